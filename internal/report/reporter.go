package report

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AndreyAkinshin/kitci/internal/logging"
)

// Report is the aggregate outcome of one test stage run.
type Report struct {
	Passed int
	Failed int
}

// Total returns Passed + Failed.
func (r Report) Total() int {
	return r.Passed + r.Failed
}

// Reporter publishes stage counts through a sink and logs stage boundaries.
type Reporter struct {
	sink        Sink
	logger      *logging.Logger
	metricsFile string
}

// NewReporter creates a Reporter. metricsFile may be empty.
func NewReporter(sink Sink, logger *logging.Logger, metricsFile string) *Reporter {
	return &Reporter{sink: sink, logger: logger, metricsFile: metricsFile}
}

// Sink returns the sink the reporter publishes through.
func (r *Reporter) Sink() Sink {
	return r.sink
}

// StageStart logs the start of a stage.
func (r *Reporter) StageStart(stage string, keyvals ...any) {
	r.logger.Info(fmt.Sprintf("%s stage start", stage), keyvals...)
}

// StageEnd logs the end of a stage.
func (r *Reporter) StageEnd(stage string, keyvals ...any) {
	r.logger.Info(fmt.Sprintf("%s stage end", stage), keyvals...)
}

// Publish sends both counts to the sink and, when configured, writes the
// metrics textfile. Both are best-effort: failures are logged as warnings
// and never fail the stage.
func (r *Reporter) Publish(ctx context.Context, rep Report) {
	published := true
	for _, v := range []struct{ name, value string }{
		{PassedVariable, strconv.Itoa(rep.Passed)},
		{FailedVariable, strconv.Itoa(rep.Failed)},
	} {
		if err := r.sink.Publish(ctx, v.name, v.value); err != nil {
			r.logger.Warn("failed to publish test count", "sink", r.sink.Name(), "variable", v.name, "err", err)
			published = false
		}
	}
	if published {
		r.logger.Info("published test counts", "sink", r.sink.Name(), "passed", rep.Passed, "failed", rep.Failed)
	}

	if r.metricsFile != "" {
		if err := WriteMetrics(r.metricsFile, rep); err != nil {
			r.logger.Warn("failed to write metrics", "file", r.metricsFile, "err", err)
			return
		}
		r.logger.Debug("wrote metrics", "file", r.metricsFile)
	}
}
