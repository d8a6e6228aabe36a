package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/report"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

func (a *app) summaryCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "summary [file|-]",
		Short: "Summarize a test result document",
		Long: `Parse a test result document and print a summary, highlighting failed
tests. Defaults to the configured result file; "-" reads stdin.`,
		Example: `  kitci summary
  kitci summary TestsResults.xml
  cat report.xml | kitci summary --format junit -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSummary(cmd.InOrStdin(), args, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "result document format (default: engine.format)")
	return cmd
}

func (a *app) runSummary(stdin io.Reader, args []string, format string) error {
	proj, err := a.loadProject()
	if err != nil {
		return err
	}
	if format == "" {
		format = proj.Config.Engine.Format
	}
	parser, err := testresult.NewRegistry().Parser(format)
	if err != nil {
		return kerrors.Config(err.Error())
	}

	input := stdin
	source := "stdin"
	if len(args) == 0 || args[0] != "-" {
		path := proj.ResultsFile()
		if len(args) > 0 {
			path = args[0]
		}
		f, err := os.Open(path)
		if err != nil {
			return kerrors.NotFound("result document", path)
		}
		defer func() { _ = f.Close() }()
		input = f
		source = path
	}

	res, err := parser.Parse(input)
	if err != nil {
		a.out.Hint("is %s a %s document? use --format to choose another parser", source, format)
		return fmt.Errorf("failed to parse %s: %w", source, err)
	}

	printTestSummary(a, res)
	if res.Failed > 0 {
		return &reportedError{err: &kerrors.TestFailureError{Module: res.Module, Failed: res.Failed}}
	}
	return nil
}

// printTestSummary prints counts and failed test details.
func printTestSummary(a *app, res *testresult.TestResult) {
	out := a.out
	out.Println("")
	out.SummaryHeader("Test Summary")

	total := report.Report{Passed: res.Passed, Failed: res.Failed}.Total()
	skipped := 0
	for _, c := range res.Cases {
		if c.Outcome == testresult.OutcomeSkipped || c.Outcome == testresult.OutcomeInconclusive {
			skipped++
		}
	}

	out.SummaryPassed("Passed", fmt.Sprint(res.Passed))
	if res.Failed > 0 {
		out.SummaryFailed("Failed", fmt.Sprint(res.Failed))
	}
	if skipped > 0 {
		out.SummaryItem("Skipped", fmt.Sprint(skipped))
	}
	out.SummaryItem("Total", fmt.Sprint(total))

	if failed := res.FailedCases(); len(failed) > 0 {
		out.Println("")
		out.SummarySectionLabel("Failed Tests:")
		for _, c := range failed {
			out.SummaryFailed("  "+c.Classification()+" > "+c.Name, c.Message)
		}
	}
	out.Println("")

	if res.Failed == 0 {
		out.FinalSuccess("All %d tests passed.", total)
	} else {
		out.FinalFailure("%d of %d tests failed.", res.Failed, total)
	}
}
