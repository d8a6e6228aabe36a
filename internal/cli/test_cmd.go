package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/kitci/internal/ci"
	"github.com/AndreyAkinshin/kitci/internal/engine"
	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/module"
	"github.com/AndreyAkinshin/kitci/internal/output"
	"github.com/AndreyAkinshin/kitci/internal/project"
	"github.com/AndreyAkinshin/kitci/internal/report"
	"github.com/AndreyAkinshin/kitci/internal/runner"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

type testOptions struct {
	ModulesFile string
	Modules     []string
}

func (a *app) testCommand() *cobra.Command {
	var opts testOptions
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the test stage for every module",
		Long: `Run the test engine for every module in order, write code coverage reports
and publish PassedTestsCount and FailedTestsCount.

Modules come from tests.modules_file when configured, otherwise from
discovery. Under CI the counts become build variables; elsewhere they are
set in the process environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTests(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.ModulesFile, "modules-file", "", "module list file (overrides tests.modules_file)")
	cmd.Flags().StringSliceVarP(&opts.Modules, "module", "m", nil, "only test the named modules")
	return cmd
}

func (a *app) runTests(ctx context.Context, opts testOptions) error {
	proj, err := a.loadProject()
	if err != nil {
		return err
	}
	if opts.ModulesFile != "" {
		proj.Config.Tests.ModulesFile = opts.ModulesFile
	}

	descriptors, source, err := proj.Modules()
	if err != nil {
		return err
	}
	descriptors, err = filterModules(descriptors, opts.Modules)
	if err != nil {
		return err
	}
	a.logger.Debug("modules resolved", "source", source, "count", len(descriptors))

	stage, err := a.newStage(proj)
	if err != nil {
		return err
	}

	result, err := stage.Run(ctx, descriptors)
	var tf *kerrors.TestFailureError
	if err != nil && !errors.As(err, &tf) {
		return err
	}
	a.printStageSummary(result, err)
	if err != nil {
		return &reportedError{err: err}
	}
	return nil
}

// newStage wires the test stage for a project. The reporting sink is chosen
// here, once, from the CI environment.
func (a *app) newStage(proj *project.Project) (*runner.Stage, error) {
	cfg := proj.Config

	eng, err := engine.NewCommand(cfg.Engine, proj.Root)
	if err != nil {
		return nil, kerrors.Configf("engine: %v", err)
	}
	eng.LogFile = proj.Path(cfg.Engine.LogFile)
	if a.opts.Verbose {
		eng.Stdout = a.stderr
	}

	env := ci.Probe(cfg.CI.Provider)
	client := ciClient(env)

	invoker := &runner.Invoker{
		Engine:       eng,
		ResultsFile:  proj.ResultsFile(),
		ScratchDir:   proj.OutputDir(),
		CoverageFile: cfg.Engine.CoverageFile,
		Store:        artifactStore(client),
		Logger:       a.logger,
	}
	var setter ci.VariableSetter
	if client != nil {
		setter = client
		invoker.Tests = client
		resultsURL := cfg.CI.ResultsURL
		invoker.UploadResults = func(ctx context.Context, path string) error {
			return client.UploadResults(ctx, resultsURL, path)
		}
	}

	sink := report.SelectSink(env, setter)
	a.logger.Debug("reporting sink selected", "sink", sink.Name(), "ci", env.UnderCI())

	return &runner.Stage{
		Invoker:    invoker,
		Aggregator: &runner.Aggregator{OutputDir: proj.OutputDir(), Logger: a.logger},
		Reporter:   report.NewReporter(sink, a.logger, proj.Path(cfg.Tests.MetricsFile)),
		LockDir:    proj.OutputDir(),
		Logger:     a.logger,
	}, nil
}

// filterModules keeps the named modules, in list order. Unknown names are
// a configuration error.
func filterModules(descriptors []module.Descriptor, names []string) ([]module.Descriptor, error) {
	if len(names) == 0 {
		return descriptors, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}
	var kept []module.Descriptor
	for _, d := range descriptors {
		if wanted[strings.ToLower(d.Name)] {
			kept = append(kept, d)
			delete(wanted, strings.ToLower(d.Name))
		}
	}
	if len(wanted) > 0 {
		var missing []string
		for _, n := range names {
			if wanted[strings.ToLower(n)] {
				missing = append(missing, n)
			}
		}
		return nil, kerrors.Configf("unknown module(s): %s", strings.Join(missing, ", "))
	}
	return kept, nil
}

func (a *app) printStageSummary(result *runner.StageResult, err error) {
	out := a.out
	out.Println("")
	out.SummaryHeader("Test Summary")

	var rows [][]string
	for _, r := range result.Results {
		if r == nil {
			continue
		}
		coverage := "-"
		if r.Coverage != nil {
			coverage = report.FormatPercent(r.Coverage.Percent())
		}
		rows = append(rows, []string{r.Module, fmt.Sprint(r.Passed), fmt.Sprint(r.Failed), coverage})
	}
	if len(rows) > 0 {
		out.Table([]string{"Module", "Passed", "Failed", "Coverage"}, rows)
	}

	// invoked merges every result; aggregation may not have run.
	var invoked testresult.TestResult
	for _, r := range result.Results {
		invoked.Add(r)
	}
	counts := result.Report
	if err != nil {
		counts = report.Report{Passed: invoked.Passed, Failed: invoked.Failed}
	}
	out.SummaryPassed("Passed", fmt.Sprint(counts.Passed))
	if counts.Failed > 0 {
		out.SummaryFailed("Failed", fmt.Sprint(counts.Failed))
	}
	if len(result.Skipped) > 0 {
		out.SummaryItem("Skipped modules", strings.Join(result.Skipped, ", "))
	}
	out.SummaryItem("Duration", runner.FormatDuration(result.Duration))

	if failedCases := invoked.FailedCases(); len(failedCases) > 0 {
		out.Println("")
		out.SummarySectionLabel("Failed Tests:")
		for _, c := range failedCases {
			out.SummaryFailed(fmt.Sprintf("  %s > %s", c.Classification(), c.Name), "")
			if c.Message != "" {
				out.Hint("%s", output.Indent(c.Message, 6))
			}
		}
	}
	out.Println("")

	switch {
	case err != nil:
		out.FinalFailure("%v", err)
	case counts.Failed == 0:
		out.FinalSuccess("All %d tests passed.", counts.Total())
	default:
		out.FinalFailure("%d of %d tests failed.", counts.Failed, counts.Total())
	}
}
