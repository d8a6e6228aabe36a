// Package runner drives the test stage: per-module engine invocation,
// aggregation of results into a report and publication of the counts.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/kitci/internal/ci"
	"github.com/AndreyAkinshin/kitci/internal/engine"
	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/filelock"
	"github.com/AndreyAkinshin/kitci/internal/logging"
	"github.com/AndreyAkinshin/kitci/internal/module"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

// engineOutputName is the scratch result document the engine writes before
// it is copied over the fixed result file.
const engineOutputName = ".engine-results.xml"

// Invoker runs the test engine for one module at a time.
type Invoker struct {
	Engine engine.Engine

	// ResultsFile is the fixed result artifact, overwritten per test path.
	ResultsFile string
	// ScratchDir holds the engine's raw output documents.
	ScratchDir string
	// CoverageFile is the name of the coverage document inside ScratchDir.
	CoverageFile string

	// Tests reports individual test cases; nil outside CI.
	Tests ci.TestReporter
	// Store receives the result file after every test path.
	Store ci.ArtifactStore
	// UploadResults, when set, uploads the result file to the CI test
	// results endpoint.
	UploadResults func(ctx context.Context, path string) error

	Logger *logging.Logger
}

// InvokeModule runs every test path of d in order and returns one result per
// path. A module whose path does not exist is skipped: no result, no error.
// When the module's summed failed count is positive the results are returned
// together with a TestFailureError.
func (inv *Invoker) InvokeModule(ctx context.Context, d module.Descriptor) ([]*testresult.TestResult, error) {
	if _, err := os.Stat(d.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			inv.Logger.Debug("skipping module with missing path", "module", d.Name, "path", d.Path)
			return nil, nil
		}
		return nil, kerrors.ModuleError(d.Name, "test", fmt.Sprintf("cannot access %s: %v", d.Path, err))
	}

	if err := os.MkdirAll(inv.ScratchDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", inv.ScratchDir, err)
	}

	var results []*testresult.TestResult
	failed := 0
	for _, path := range d.TestPaths() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := inv.invokePath(ctx, d, path)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		failed += res.Failed
	}

	if failed > 0 {
		return results, &kerrors.TestFailureError{Module: d.Name, Failed: failed}
	}
	return results, nil
}

func (inv *Invoker) invokePath(ctx context.Context, d module.Descriptor, path string) (*testresult.TestResult, error) {
	req := engine.Request{
		Path:            path,
		CoverageTargets: d.CodeCoverage,
		OutputFile:      filepath.Join(inv.ScratchDir, engineOutputName),
	}
	if len(d.CodeCoverage) > 0 {
		req.CoverageFile = filepath.Join(inv.ScratchDir, inv.CoverageFile)
	}

	inv.Logger.Info("running tests", "module", d.Name, "path", path, "coverage_targets", len(d.CodeCoverage))
	res, err := inv.Engine.Run(ctx, req)
	if err != nil {
		return nil, &kerrors.KitError{
			Kind:    kerrors.KindRuntime,
			Module:  d.Name,
			Command: "test",
			Message: fmt.Sprintf("test engine failed for %s", path),
			Cause:   err,
		}
	}
	res.Module = d.Name

	if err := filelock.CopyAtomic(req.OutputFile, inv.ResultsFile); err != nil {
		return nil, kerrors.ModuleError(d.Name, "test", fmt.Sprintf("failed to persist results: %v", err))
	}
	inv.Logger.Info("tests finished", "module", d.Name, "path", path, "passed", res.Passed, "failed", res.Failed)

	if inv.UploadResults != nil {
		if err := inv.UploadResults(ctx, inv.ResultsFile); err != nil {
			inv.Logger.Warn("failed to upload test results", "module", d.Name, "err", err)
		}
	}
	inv.reportCases(ctx, d, res)
	if inv.Store != nil {
		if err := inv.Store.Push(ctx, inv.ResultsFile); err != nil {
			inv.Logger.Warn("failed to push artifact", "file", inv.ResultsFile, "err", err)
		}
	}
	return res, nil
}

// reportCases sends each test case to the CI test API. Failures are logged
// and never fail the invocation.
func (inv *Invoker) reportCases(ctx context.Context, d module.Descriptor, res *testresult.TestResult) {
	if inv.Tests == nil {
		return
	}
	failures := 0
	for _, c := range res.Cases {
		err := inv.Tests.ReportTest(ctx, ci.TestRecord{
			Name:           c.Name,
			Classification: c.Classification(),
			Outcome:        c.Outcome,
			Duration:       c.Duration,
			Message:        c.Message,
		})
		if err != nil {
			failures++
			inv.Logger.Debug("failed to report test case", "module", d.Name, "test", c.Name, "err", err)
		}
	}
	if failures > 0 {
		inv.Logger.Warn("some test cases were not reported to CI", "module", d.Name, "failed_reports", failures, "cases", len(res.Cases))
	}
}
