package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/filelock"
	"github.com/AndreyAkinshin/kitci/internal/logging"
	"github.com/AndreyAkinshin/kitci/internal/module"
	"github.com/AndreyAkinshin/kitci/internal/report"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

// State is the phase of a test stage run.
type State int

const (
	StateNotStarted State = iota
	StateInvoking
	StateAggregating
	StateReported
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateInvoking:
		return "invoking"
	case StateAggregating:
		return "aggregating"
	case StateReported:
		return "reported"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// StageName is the stage name used in log lines.
const StageName = "test"

// Stage wires the invoker, aggregator and reporter into one test stage run.
// A Stage holds no per-run state and may be run repeatedly.
type Stage struct {
	Invoker    *Invoker
	Aggregator *Aggregator
	Reporter   *report.Reporter
	// LockDir holds the run lock; empty disables locking.
	LockDir string
	Logger  *logging.Logger
	// OnState, when set, observes state transitions.
	OnState func(State)
}

// StageResult describes one test stage run.
type StageResult struct {
	RunID    string
	Report   report.Report
	Results  []*testresult.TestResult
	Invoked  []string // modules that ran
	Skipped  []string // modules whose path did not exist
	Duration time.Duration
}

// Run validates descriptors, invokes every module in order, aggregates the
// results and publishes the counts. A TestFailureError stops the run before
// aggregation; the partial result is still returned. Publishing failures are
// logged and do not fail the run.
func (s *Stage) Run(ctx context.Context, descriptors []module.Descriptor) (*StageResult, error) {
	s.transition(StateNotStarted)
	if err := module.Validate(descriptors); err != nil {
		return nil, err
	}

	if s.LockDir != "" {
		lock := filelock.NewRunLock(s.LockDir)
		if err := lock.Acquire(); err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				s.Logger.Warn("failed to release run lock", "err", err)
			}
		}()
	}

	start := time.Now()
	result := &StageResult{RunID: uuid.NewString()}
	s.Reporter.StageStart(StageName, "run", result.RunID, "modules", len(descriptors))

	s.transition(StateInvoking)
	for _, d := range descriptors {
		results, err := s.Invoker.InvokeModule(ctx, d)
		result.Results = append(result.Results, results...)
		if err != nil {
			result.Duration = time.Since(start)
			s.end(result, err)
			return result, err
		}
		if results == nil {
			result.Skipped = append(result.Skipped, d.Name)
			continue
		}
		result.Invoked = append(result.Invoked, d.Name)
	}

	s.transition(StateAggregating)
	rep, err := s.Aggregator.Aggregate(result.Results)
	result.Report = rep
	if err != nil {
		result.Duration = time.Since(start)
		s.end(result, err)
		return result, err
	}

	s.Reporter.Publish(ctx, rep)
	s.transition(StateReported)

	result.Duration = time.Since(start)
	s.end(result, nil)
	s.transition(StateDone)
	return result, nil
}

func (s *Stage) end(result *StageResult, err error) {
	keyvals := []any{"run", result.RunID, "passed", result.Report.Passed, "failed", result.Report.Failed, "duration", FormatDuration(result.Duration)}
	var tf *kerrors.TestFailureError
	switch {
	case err == nil:
	case errors.As(err, &tf):
		keyvals = append(keyvals, "failed_module", tf.Module, "module_failures", tf.Failed)
	default:
		keyvals = append(keyvals, "err", err)
	}
	s.Reporter.StageEnd(StageName, keyvals...)
}

func (s *Stage) transition(st State) {
	if s.OnState != nil {
		s.OnState(st)
	}
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}
