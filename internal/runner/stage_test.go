package runner

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/filelock"
	"github.com/AndreyAkinshin/kitci/internal/logging"
	"github.com/AndreyAkinshin/kitci/internal/module"
	"github.com/AndreyAkinshin/kitci/internal/report"
	"github.com/AndreyAkinshin/kitci/internal/testing/mocks"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

type stageFixture struct {
	*invokerFixture
	stage  *Stage
	sink   *mocks.Sink
	log    *bytes.Buffer
	states []State
}

func newStageFixture(t *testing.T) *stageFixture {
	t.Helper()
	f := &stageFixture{invokerFixture: newInvokerFixture(t), sink: &mocks.Sink{}, log: &bytes.Buffer{}}
	logger := logging.New(f.log, "info")
	f.invoker.Logger = logger
	out := filepath.Join(f.dir, "out")
	f.stage = &Stage{
		Invoker:    f.invoker,
		Aggregator: &Aggregator{OutputDir: out, Logger: logger},
		Reporter:   report.NewReporter(f.sink, logger, ""),
		LockDir:    out,
		Logger:     logger,
		OnState:    func(s State) { f.states = append(f.states, s) },
	}
	return f
}

func TestStage_AllPassing(t *testing.T) {
	t.Parallel()
	f := newStageFixture(t)
	f.engine.WithResult("t1.test", &testresult.TestResult{Passed: 5, Failed: 0})

	descriptors := []module.Descriptor{{Name: "A", Path: f.moduleDir(t, "exists"), Tests: []string{"t1.test"}}}
	result, err := f.stage.Run(context.Background(), descriptors)

	require.NoError(t, err)
	assert.Equal(t, report.Report{Passed: 5, Failed: 0}, result.Report)
	assert.Equal(t, map[string]string{"PassedTestsCount": "5", "FailedTestsCount": "0"}, f.sink.Values())
	assert.Equal(t, []string{"A"}, result.Invoked)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []State{StateNotStarted, StateInvoking, StateAggregating, StateReported, StateDone}, f.states)

	logText := f.log.String()
	assert.Contains(t, logText, "test stage start")
	assert.Contains(t, logText, "test stage end")
	assert.Contains(t, logText, result.RunID)
}

func TestStage_FailuresAbortBeforeAggregation(t *testing.T) {
	t.Parallel()
	f := newStageFixture(t)
	f.engine.WithResult("t1.test", &testresult.TestResult{Passed: 3, Failed: 2})

	descriptors := []module.Descriptor{{Name: "A", Path: f.moduleDir(t, "exists"), Tests: []string{"t1.test"}}}
	result, err := f.stage.Run(context.Background(), descriptors)

	var tf *kerrors.TestFailureError
	require.True(t, errors.As(err, &tf), "want TestFailureError, got %v", err)
	assert.Equal(t, 2, tf.Failed)
	assert.Equal(t, kerrors.ExitRuntimeError, kerrors.GetExitCode(err))

	assert.Equal(t, report.Report{}, result.Report, "aggregation never runs")
	assert.Empty(t, f.sink.Published())
	assert.NotContains(t, f.states, StateAggregating)
	assert.Contains(t, f.log.String(), "test stage end")
}

func TestStage_MissingModuleIsNotCounted(t *testing.T) {
	t.Parallel()
	f := newStageFixture(t)
	f.engine.WithResult(".", &testresult.TestResult{Passed: 4})

	descriptors := []module.Descriptor{
		{Name: "Present", Path: f.moduleDir(t, "present")},
		{Name: "Missing", Path: filepath.Join(f.dir, "missing")},
	}
	result, err := f.stage.Run(context.Background(), descriptors)

	require.NoError(t, err)
	assert.Equal(t, report.Report{Passed: 4}, result.Report)
	assert.Equal(t, []string{"Present"}, result.Invoked)
	assert.Equal(t, []string{"Missing"}, result.Skipped)
	assert.Len(t, f.engine.Requests(), 1)
}

func TestStage_InvalidDescriptorFailsBeforeInvocation(t *testing.T) {
	t.Parallel()
	f := newStageFixture(t)

	descriptors := []module.Descriptor{
		{Name: "A", Path: f.moduleDir(t, "a")},
		{Name: "B"},
	}
	result, err := f.stage.Run(context.Background(), descriptors)

	var idErr *kerrors.InvalidDescriptorError
	require.True(t, errors.As(err, &idErr), "want InvalidDescriptorError, got %v", err)
	assert.Equal(t, 1, idErr.Index)
	assert.Nil(t, result)
	assert.Empty(t, f.engine.Requests())
	assert.Empty(t, f.sink.Published())
}

func TestStage_EmptyListPublishesZero(t *testing.T) {
	t.Parallel()
	f := newStageFixture(t)

	result, err := f.stage.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, report.Report{}, result.Report)
	assert.Equal(t, map[string]string{"PassedTestsCount": "0", "FailedTestsCount": "0"}, f.sink.Values())
}

func TestStage_CountersStartAtZeroEveryRun(t *testing.T) {
	t.Parallel()
	f := newStageFixture(t)
	f.engine.WithResult(".", &testresult.TestResult{Passed: 2, Coverage: &testresult.Coverage{Analyzed: 2, Executed: 2}})
	descriptors := []module.Descriptor{{Name: "A", Path: f.moduleDir(t, "a")}}

	first, err := f.stage.Run(context.Background(), descriptors)
	require.NoError(t, err)
	second, err := f.stage.Run(context.Background(), descriptors)
	require.NoError(t, err)

	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, report.Report{Passed: 2}, second.Report)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestStage_ConcurrentRunIsRejected(t *testing.T) {
	t.Parallel()
	f := newStageFixture(t)

	held := filelock.NewRunLock(f.stage.LockDir)
	require.NoError(t, held.Acquire())
	defer held.Release()

	_, err := f.stage.Run(context.Background(), []module.Descriptor{{Name: "A", Path: f.moduleDir(t, "a")}})
	require.Error(t, err)
	assert.Equal(t, kerrors.ExitEnvironmentError, kerrors.GetExitCode(err))
	assert.Empty(t, f.engine.Requests())
}

func TestStage_PublishFailureDoesNotFailRun(t *testing.T) {
	t.Parallel()
	f := newStageFixture(t)
	f.sink.Err = errors.New("build variables API down")
	f.engine.WithResult("t1.test", &testresult.TestResult{Passed: 5})

	descriptors := []module.Descriptor{{Name: "A", Path: f.moduleDir(t, "a"), Tests: []string{"t1.test"}}}
	result, err := f.stage.Run(context.Background(), descriptors)

	require.NoError(t, err)
	assert.Equal(t, report.Report{Passed: 5}, result.Report)
	assert.Contains(t, f.log.String(), "failed to publish test count")
	assert.Contains(t, f.log.String(), "build variables API down")
	assert.Equal(t, []State{StateNotStarted, StateInvoking, StateAggregating, StateReported, StateDone}, f.states)
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "invoking", StateInvoking.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
