package report

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/kitci/internal/filelock"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

// NoMissedCommands is the body of a report without missed commands.
const NoMissedCommands = "No missed commands"

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Table))
	titler   = cases.Title(language.English)
)

// FormatPercent formats a coverage percentage; NaN renders as "n/a".
func FormatPercent(pct float64) string {
	if math.IsNaN(pct) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f %%", pct)
}

// CoverageFileName returns the name of the n-th coverage report.
func CoverageFileName(n int) string {
	return fmt.Sprintf("CodeCoverage%d.html", n)
}

// CoverageTitle returns the report title for cov.
func CoverageTitle(module string, cov *testresult.Coverage) string {
	title := titler.String("code coverage")
	if module != "" {
		title += " " + module
	}
	return fmt.Sprintf("%s: %s", title, FormatPercent(cov.Percent()))
}

// RenderCoverage renders a coverage report as a standalone HTML page.
func RenderCoverage(module string, cov *testresult.Coverage) ([]byte, error) {
	title := CoverageTitle(module, cov)

	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", escapeMarkdown(title))
	fmt.Fprintf(&md, "Analyzed: %d, executed: %d, missed: %d\n\n", cov.Analyzed, cov.Executed, cov.Analyzed-cov.Executed)

	if len(cov.Missed) == 0 {
		md.WriteString(NoMissedCommands + "\n")
	} else {
		md.WriteString("| File | Line | Function | Command |\n")
		md.WriteString("| --- | ---: | --- | --- |\n")
		for _, m := range cov.Missed {
			fmt.Fprintf(&md, "| %s | %d | %s | %s |\n",
				escapeCell(m.File), m.Line, escapeCell(m.Function), escapeCell(m.Command))
		}
	}

	var body bytes.Buffer
	if err := markdown.Convert([]byte(md.String()), &body); err != nil {
		return nil, fmt.Errorf("failed to render coverage report: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		htmlEscaper.Replace(title))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// WriteCoverage renders cov into dir/CodeCoverage<n>.html and returns the
// written path.
func WriteCoverage(dir string, n int, module string, cov *testresult.Coverage) (string, error) {
	page, err := RenderCoverage(module, cov)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, CoverageFileName(n))
	if err := filelock.AtomicWrite(path, page); err != nil {
		return "", err
	}
	return path, nil
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "<", `\<`, "[", `\[`, "]", `\]`, "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeMarkdown(s), "|", `\|`)
}
