package testresult

import (
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
)

// JaCoCoParser parses JaCoCo XML coverage documents. The report-level
// INSTRUCTION counter gives the analyzed and executed command counts; each
// source line with missed instructions becomes a missed command.
type JaCoCoParser struct{}

// Name returns the parser name.
func (p *JaCoCoParser) Name() string {
	return "jacoco"
}

type jacocoReport struct {
	XMLName  xml.Name        `xml:"report"`
	Packages []jacocoPackage `xml:"package"`
	Counters []jacocoCounter `xml:"counter"`
}

type jacocoPackage struct {
	Name        string             `xml:"name,attr"`
	Classes     []jacocoClass      `xml:"class"`
	SourceFiles []jacocoSourceFile `xml:"sourcefile"`
}

type jacocoClass struct {
	Name           string         `xml:"name,attr"`
	SourceFileName string         `xml:"sourcefilename,attr"`
	Methods        []jacocoMethod `xml:"method"`
}

type jacocoMethod struct {
	Name string `xml:"name,attr"`
	Line int    `xml:"line,attr"`
}

type jacocoSourceFile struct {
	Name  string       `xml:"name,attr"`
	Lines []jacocoLine `xml:"line"`
}

type jacocoLine struct {
	Number  int `xml:"nr,attr"`
	Missed  int `xml:"mi,attr"`
	Covered int `xml:"ci,attr"`
}

type jacocoCounter struct {
	Type    string `xml:"type,attr"`
	Missed  int    `xml:"missed,attr"`
	Covered int    `xml:"covered,attr"`
}

// ParseCoverage decodes a JaCoCo report. Missed commands are ordered by file
// then line.
func (p *JaCoCoParser) ParseCoverage(r io.Reader) (*Coverage, error) {
	var doc jacocoReport
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("jacoco: %w", err)
	}

	cov := &Coverage{}
	found := false
	for _, c := range doc.Counters {
		if c.Type == "INSTRUCTION" {
			if c.Missed < 0 || c.Covered < 0 {
				return nil, fmt.Errorf("jacoco: negative instruction counter (missed %d, covered %d)", c.Missed, c.Covered)
			}
			cov.Analyzed = c.Missed + c.Covered
			cov.Executed = c.Covered
			found = true
		}
	}

	for _, pkg := range doc.Packages {
		methods := methodsByFile(pkg.Classes)
		for _, sf := range pkg.SourceFiles {
			file := sf.Name
			if pkg.Name != "" {
				file = path.Join(pkg.Name, sf.Name)
			}
			for _, line := range sf.Lines {
				if line.Missed < 0 || line.Covered < 0 {
					return nil, fmt.Errorf("jacoco: negative counter on %s:%d", file, line.Number)
				}
				if !found {
					cov.Analyzed += line.Missed + line.Covered
					cov.Executed += line.Covered
				}
				if line.Missed == 0 {
					continue
				}
				cov.Missed = append(cov.Missed, MissedCommand{
					File:     file,
					Line:     line.Number,
					Function: enclosingMethod(methods[sf.Name], line.Number),
				})
			}
		}
	}

	sort.SliceStable(cov.Missed, func(i, j int) bool {
		if cov.Missed[i].File != cov.Missed[j].File {
			return cov.Missed[i].File < cov.Missed[j].File
		}
		return cov.Missed[i].Line < cov.Missed[j].Line
	})

	if cov.Executed > cov.Analyzed {
		return nil, fmt.Errorf("jacoco: executed %d exceeds analyzed %d", cov.Executed, cov.Analyzed)
	}
	return cov, nil
}

// methodsByFile groups methods by source file, sorted by start line.
func methodsByFile(classes []jacocoClass) map[string][]jacocoMethod {
	out := make(map[string][]jacocoMethod)
	for _, c := range classes {
		out[c.SourceFileName] = append(out[c.SourceFileName], c.Methods...)
	}
	for _, ms := range out {
		sort.Slice(ms, func(i, j int) bool { return ms[i].Line < ms[j].Line })
	}
	return out
}

// enclosingMethod returns the last method starting at or before line.
func enclosingMethod(methods []jacocoMethod, line int) string {
	name := ""
	for _, m := range methods {
		if m.Line > line {
			break
		}
		name = m.Name
	}
	return name
}
