// Package testresult parses test engine documents into test results.
package testresult

import (
	"io"
	"math"
	"time"
)

// Outcome is the result of a single test case.
type Outcome string

// Test case outcomes, named the way the CI test API expects them.
const (
	OutcomePassed       Outcome = "Passed"
	OutcomeFailed       Outcome = "Failed"
	OutcomeSkipped      Outcome = "Skipped"
	OutcomeInconclusive Outcome = "Inconclusive"
)

// TestCase holds a single executed test.
type TestCase struct {
	Name     string
	Describe string // outer grouping
	Context  string // inner grouping, may be empty
	Outcome  Outcome
	Duration time.Duration
	Message  string // failure message, if any
}

// Classification returns the "Describe:Context" label reported to the CI.
func (c TestCase) Classification() string {
	return c.Describe + ":" + c.Context
}

// MissedCommand is a source command the tests never executed.
type MissedCommand struct {
	File     string
	Line     int
	Function string
	Command  string
}

// Coverage holds command coverage for one test run. Executed never exceeds
// Analyzed.
type Coverage struct {
	Analyzed int
	Executed int
	Missed   []MissedCommand
}

// Percent returns 100 * Executed / Analyzed, or NaN when nothing was analyzed.
func (c *Coverage) Percent() float64 {
	if c == nil || c.Analyzed == 0 {
		return math.NaN()
	}
	return 100 * float64(c.Executed) / float64(c.Analyzed)
}

// TestResult is the outcome of running the engine on one test path.
// Coverage is nil when coverage was not requested.
type TestResult struct {
	Module   string // producing module, empty when unknown
	Passed   int
	Failed   int
	Cases    []TestCase
	Coverage *Coverage
}

// Add adds the counts and cases of other into r. Coverage is not merged:
// each coverage-bearing result gets its own report.
func (r *TestResult) Add(other *TestResult) {
	if other == nil {
		return
	}
	r.Passed += other.Passed
	r.Failed += other.Failed
	r.Cases = append(r.Cases, other.Cases...)
}

// FailedCases returns the cases whose outcome is OutcomeFailed.
func (r *TestResult) FailedCases() []TestCase {
	var failed []TestCase
	for _, c := range r.Cases {
		if c.Outcome == OutcomeFailed {
			failed = append(failed, c)
		}
	}
	return failed
}

// Parser reads a test result document.
type Parser interface {
	// Parse decodes the document into a TestResult with nil Coverage.
	Parse(r io.Reader) (*TestResult, error)
	// Name returns the format name.
	Name() string
}

// CoverageParser reads a coverage document.
type CoverageParser interface {
	ParseCoverage(r io.Reader) (*Coverage, error)
	Name() string
}
