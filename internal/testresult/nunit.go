package testresult

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// NUnitParser parses NUnit 2.5 result documents, the format the engine
// writes in its NUnitXml output mode:
//
//	<test-results total="2" failures="1" ...>
//	  <test-suite name="Pester">
//	    <results>
//	      <test-suite name="MSFT_xDisk">           describe
//	        <results>
//	          <test-suite name="Get-TargetResource"> context
//	            <results>
//	              <test-case name="..." result="Success" time="0.01"/>
type NUnitParser struct{}

// Name returns the parser name.
func (p *NUnitParser) Name() string {
	return "nunit"
}

type nunitResults struct {
	XMLName xml.Name     `xml:"test-results"`
	Suites  []nunitSuite `xml:"test-suite"`
}

type nunitSuite struct {
	Name        string       `xml:"name,attr"`
	Description string       `xml:"description,attr"`
	Suites      []nunitSuite `xml:"results>test-suite"`
	Cases       []nunitCase  `xml:"results>test-case"`
}

type nunitCase struct {
	Name        string `xml:"name,attr"`
	Description string `xml:"description,attr"`
	Executed    string `xml:"executed,attr"`
	Result      string `xml:"result,attr"`
	Time        string `xml:"time,attr"`
	Failure     *struct {
		Message string `xml:"message"`
	} `xml:"failure"`
	Reason *struct {
		Message string `xml:"message"`
	} `xml:"reason"`
}

// Parse decodes an NUnit document. Passed and Failed are counted from the
// test cases; skipped and inconclusive cases count toward neither.
func (p *NUnitParser) Parse(r io.Reader) (*TestResult, error) {
	var doc nunitResults
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("nunit: %w", err)
	}

	result := &TestResult{}
	for _, root := range doc.Suites {
		// The root suite names the run, not a grouping.
		walkNUnit(root.Suites, nil, result)
		collectNUnitCases(root.Cases, nil, result)
	}
	return result, nil
}

func walkNUnit(suites []nunitSuite, path []string, result *TestResult) {
	for _, s := range suites {
		name := s.Description
		if name == "" {
			name = s.Name
		}
		next := append(append([]string(nil), path...), name)
		walkNUnit(s.Suites, next, result)
		collectNUnitCases(s.Cases, next, result)
	}
}

func collectNUnitCases(cases []nunitCase, path []string, result *TestResult) {
	describe, context := groupings(path)
	for _, c := range cases {
		tc := TestCase{
			Name:     c.Description,
			Describe: describe,
			Context:  context,
			Outcome:  nunitOutcome(c),
			Duration: parseSeconds(c.Time),
		}
		if tc.Name == "" {
			tc.Name = c.Name
		}
		switch {
		case c.Failure != nil:
			tc.Message = strings.TrimSpace(c.Failure.Message)
		case c.Reason != nil:
			tc.Message = strings.TrimSpace(c.Reason.Message)
		}
		switch tc.Outcome {
		case OutcomePassed:
			result.Passed++
		case OutcomeFailed:
			result.Failed++
		}
		result.Cases = append(result.Cases, tc)
	}
}

// groupings maps an enclosing suite path to Describe and Context: the
// innermost suite is the context when there are at least two levels below
// the file suite, otherwise it is the describe block.
func groupings(path []string) (describe, context string) {
	switch {
	case len(path) >= 3:
		return path[len(path)-2], path[len(path)-1]
	case len(path) >= 1:
		return path[len(path)-1], ""
	default:
		return "", ""
	}
}

func nunitOutcome(c nunitCase) Outcome {
	switch strings.ToLower(c.Result) {
	case "success", "passed":
		return OutcomePassed
	case "failure", "failed", "error":
		return OutcomeFailed
	case "ignored", "skipped", "notrunnable", "notrun":
		return OutcomeSkipped
	case "inconclusive", "pending":
		return OutcomeInconclusive
	}
	if strings.EqualFold(c.Executed, "false") {
		return OutcomeSkipped
	}
	return OutcomeInconclusive
}

// parseSeconds parses a decimal seconds attribute; invalid values are zero.
func parseSeconds(s string) time.Duration {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
