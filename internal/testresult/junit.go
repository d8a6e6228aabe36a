package testresult

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// JUnitParser parses JUnit XML documents. The classname attribute carries
// the grouping as "Describe.Context" or just "Describe".
type JUnitParser struct{}

// Name returns the parser name.
func (p *JUnitParser) Name() string {
	return "junit"
}

type junitSuites struct {
	XMLName xml.Name
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name   string       `xml:"name,attr"`
	Suites []junitSuite `xml:"testsuite"`
	Cases  []junitCase  `xml:"testcase"`
}

type junitCase struct {
	Name      string `xml:"name,attr"`
	Classname string `xml:"classname,attr"`
	Time      string `xml:"time,attr"`
	Failure   *struct {
		Message string `xml:"message,attr"`
		Text    string `xml:",chardata"`
	} `xml:"failure"`
	Error *struct {
		Message string `xml:"message,attr"`
		Text    string `xml:",chardata"`
	} `xml:"error"`
	Skipped *struct{} `xml:"skipped"`
}

// Parse decodes a JUnit document rooted at either <testsuites> or a single
// <testsuite>.
func (p *JUnitParser) Parse(r io.Reader) (*TestResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("junit: %w", err)
	}

	var suites []junitSuite
	var root junitSuites
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("junit: %w", err)
	}
	suites = root.Suites
	if root.XMLName.Local == "testsuite" {
		var single junitSuite
		if err := xml.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("junit: %w", err)
		}
		suites = []junitSuite{single}
	}

	result := &TestResult{}
	for _, s := range suites {
		collectJUnit(s, result)
	}
	return result, nil
}

func collectJUnit(s junitSuite, result *TestResult) {
	for _, c := range s.Cases {
		tc := TestCase{
			Name:     c.Name,
			Duration: parseSeconds(c.Time),
			Outcome:  OutcomePassed,
		}
		group := c.Classname
		if group == "" {
			group = s.Name
		}
		tc.Describe, tc.Context, _ = strings.Cut(group, ".")

		switch {
		case c.Failure != nil:
			tc.Outcome = OutcomeFailed
			tc.Message = firstNonEmpty(c.Failure.Message, strings.TrimSpace(c.Failure.Text))
		case c.Error != nil:
			tc.Outcome = OutcomeFailed
			tc.Message = firstNonEmpty(c.Error.Message, strings.TrimSpace(c.Error.Text))
		case c.Skipped != nil:
			tc.Outcome = OutcomeSkipped
		}

		switch tc.Outcome {
		case OutcomePassed:
			result.Passed++
		case OutcomeFailed:
			result.Failed++
		}
		result.Cases = append(result.Cases, tc)
	}
	for _, nested := range s.Suites {
		collectJUnit(nested, result)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
