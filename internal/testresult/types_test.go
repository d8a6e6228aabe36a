package testresult

import (
	"math"
	"testing"
)

func TestCoveragePercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cov  *Coverage
		want float64
	}{
		{"full", &Coverage{Analyzed: 10, Executed: 10}, 100},
		{"partial", &Coverage{Analyzed: 8, Executed: 6}, 75},
		{"none executed", &Coverage{Analyzed: 4, Executed: 0}, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cov.Percent(); got != tt.want {
				t.Errorf("Percent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoveragePercentZeroAnalyzedIsNaN(t *testing.T) {
	t.Parallel()

	if got := (&Coverage{}).Percent(); !math.IsNaN(got) {
		t.Errorf("Percent() = %v, want NaN", got)
	}
	var nilCov *Coverage
	if got := nilCov.Percent(); !math.IsNaN(got) {
		t.Errorf("nil Percent() = %v, want NaN", got)
	}
}

func TestTestResultAdd(t *testing.T) {
	t.Parallel()

	total := &TestResult{}
	total.Add(&TestResult{Passed: 3, Failed: 1, Cases: []TestCase{{Name: "a", Outcome: OutcomeFailed}}})
	total.Add(nil)
	total.Add(&TestResult{Passed: 2, Coverage: &Coverage{Analyzed: 1}})

	if total.Passed != 5 || total.Failed != 1 {
		t.Errorf("got passed=%d failed=%d, want 5 and 1", total.Passed, total.Failed)
	}
	if total.Coverage != nil {
		t.Error("Add must not merge coverage")
	}
	if got := total.FailedCases(); len(got) != 1 || got[0].Name != "a" {
		t.Errorf("FailedCases() = %+v", got)
	}
}

func TestClassification(t *testing.T) {
	t.Parallel()

	c := TestCase{Describe: "MSFT_xDisk", Context: "Get-TargetResource"}
	if got := c.Classification(); got != "MSFT_xDisk:Get-TargetResource" {
		t.Errorf("Classification() = %q", got)
	}
	if got := (TestCase{Describe: "MSFT_xDisk"}).Classification(); got != "MSFT_xDisk:" {
		t.Errorf("Classification() = %q", got)
	}
}
