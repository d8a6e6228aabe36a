package runner

import (
	"github.com/AndreyAkinshin/kitci/internal/logging"
	"github.com/AndreyAkinshin/kitci/internal/report"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

// Aggregator sums test results and writes one coverage report per
// coverage-bearing result.
type Aggregator struct {
	OutputDir string
	Logger    *logging.Logger
}

// Aggregate walks results in order, skipping nil entries. Coverage reports
// are numbered from 1 within this call, so CodeCoverage<N>.html files are
// overwritten by the next run. Counters never outlive the call.
func (a *Aggregator) Aggregate(results []*testresult.TestResult) (report.Report, error) {
	var rep report.Report
	n := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		rep.Passed += r.Passed
		rep.Failed += r.Failed

		if r.Coverage == nil {
			continue
		}
		n++
		path, err := report.WriteCoverage(a.OutputDir, n, r.Module, r.Coverage)
		if err != nil {
			return rep, err
		}
		a.Logger.Info("wrote coverage report", "module", r.Module, "coverage", report.FormatPercent(r.Coverage.Percent()), "file", path)
	}
	return rep, nil
}
