// Package cli provides the kitci command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/kitci/internal/ci"
	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/logging"
	"github.com/AndreyAkinshin/kitci/internal/output"
	"github.com/AndreyAkinshin/kitci/internal/project"
)

// Version is set at build time.
var Version = "dev"

// globalOptions holds the persistent flags.
type globalOptions struct {
	Quiet      bool
	Verbose    bool
	ConfigPath string
}

// app carries the state shared by every command of one invocation.
type app struct {
	opts   globalOptions
	out    *output.Writer
	stderr io.Writer
	logger *logging.Logger
	// dir is the directory the project is looked up from.
	dir string
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		output.New().ErrorPrefix("%v", err)
		return kerrors.ExitEnvironmentError
	}
	return run(ctx, args, output.New(), os.Stderr, cwd)
}

// run is Run with injectable output and working directory.
func run(ctx context.Context, args []string, out *output.Writer, stderr io.Writer, dir string) int {
	a := &app{out: out, stderr: stderr, dir: dir}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(out.Out())
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return kerrors.ExitSuccess
	}
	var reported *reportedError
	if !errors.As(err, &reported) {
		a.out.ErrorPrefix("%v", err)
	}
	return kerrors.GetExitCode(err)
}

// reportedError wraps an error whose details were already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "kitci",
		Short: "Build and test helper for resource kit repositories",
		Long: `kitci runs the test engine for every module of a resource kit, publishes
pass/fail counts to the CI service, writes code coverage reports, stamps
module manifests with the build version and packages modules for release.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetVersionTemplate("kitci {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return kerrors.Config(err.Error())
	})

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.opts.Quiet, "quiet", "q", false, "minimal output (errors only)")
	flags.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "debug logging and engine output")
	flags.StringVar(&a.opts.ConfigPath, "config", "", "config file (default: .kitci/config.json in the project root)")

	root.AddCommand(
		a.testCommand(),
		a.discoverCommand(),
		a.validateCommand(),
		a.summaryCommand(),
		a.stampCommand(),
		a.packageCommand(),
		a.initCommand(),
		a.versionCommand(),
	)
	return root
}

// setup applies the global flags before any command runs.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	if a.opts.Quiet && a.opts.Verbose {
		return kerrors.Config("--quiet and --verbose are mutually exclusive")
	}
	a.out.SetQuiet(a.opts.Quiet)

	level := os.Getenv("KITCI_LOG_LEVEL")
	switch {
	case a.opts.Verbose:
		level = "debug"
	case a.opts.Quiet:
		level = "error"
	}
	a.logger = logging.New(a.stderr, level)
	return nil
}

// loadProject loads the project for the working directory or --config and
// prints configuration warnings.
func (a *app) loadProject() (*project.Project, error) {
	var (
		proj *project.Project
		err  error
	)
	if a.opts.ConfigPath != "" {
		path := a.opts.ConfigPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.dir, path)
		}
		proj, err = project.LoadFile(a.configRoot(path), path)
	} else {
		proj, err = project.LoadFrom(a.dir)
	}
	if err != nil {
		var coded interface{ ExitCode() int }
		if errors.As(err, &coded) {
			return nil, err
		}
		// An unreadable or invalid config file is a configuration error.
		return nil, &kerrors.KitError{Kind: kerrors.KindConfig, Message: err.Error(), Cause: err}
	}
	for _, w := range proj.Warnings {
		a.out.WarningSimple("%s", w)
	}
	return proj, nil
}

// configRoot is the project root for an explicit --config path: the parent of
// a .kitci directory, otherwise the working directory.
func (a *app) configRoot(configPath string) string {
	dir := filepath.Dir(configPath)
	if filepath.Base(dir) == project.ConfigDirName {
		return filepath.Dir(dir)
	}
	return a.dir
}

// ciClient returns the build worker client when the CI exposes its API.
func ciClient(env ci.Environment) *ci.Client {
	if !env.HasWorkerAPI() {
		return nil
	}
	return ci.NewClient(env.APIURL, env.JobID)
}

// artifactStore returns client as a store, or a no-op store outside CI.
func artifactStore(client *ci.Client) ci.ArtifactStore {
	if client == nil {
		return ci.NoopStore{}
	}
	return client
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a.out.Println("kitci %s", Version)
			return nil
		},
	}
}
