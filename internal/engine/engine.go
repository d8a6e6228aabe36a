// Package engine runs the external test engine for one test path and reads
// back the documents it writes.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/acarl005/stripansi"
	"mvdan.cc/sh/v3/shell"

	"github.com/AndreyAkinshin/kitci/internal/config"
	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

// Request describes one engine invocation.
type Request struct {
	Path            string   // test path
	CoverageTargets []string // files to instrument; empty disables coverage
	OutputFile      string   // where the engine writes its result document
	CoverageFile    string   // where the engine writes its coverage document
}

// Engine runs tests for a single path. Run blocks until the engine exits.
type Engine interface {
	Run(ctx context.Context, req Request) (*testresult.TestResult, error)
}

// Command is an Engine backed by an external command line.
type Command struct {
	Template       string
	CoverageArgs   string
	Dir            string
	Parser         testresult.Parser
	CoverageParser testresult.CoverageParser

	// LogFile receives the engine's combined output with ANSI escapes removed.
	// Empty disables the log.
	LogFile string
	// Stdout mirrors the engine's output while it runs. Nil discards it.
	Stdout io.Writer
}

// NewCommand builds a Command engine from configuration.
func NewCommand(cfg *config.EngineConfig, dir string) (*Command, error) {
	registry := testresult.NewRegistry()
	parser, err := registry.Parser(cfg.Format)
	if err != nil {
		return nil, err
	}
	covParser, err := registry.CoverageParser(cfg.CoverageFormat)
	if err != nil {
		return nil, err
	}
	return &Command{
		Template:       cfg.Command,
		CoverageArgs:   cfg.CoverageArgs,
		Dir:            dir,
		Parser:         parser,
		CoverageParser: covParser,
		LogFile:        cfg.LogFile,
	}, nil
}

// Args renders the command line for req into argv.
func (c *Command) Args(req Request) ([]string, error) {
	args, err := splitFields(c.Template)
	if err != nil {
		return nil, fmt.Errorf("engine command: %w", err)
	}
	if len(req.CoverageTargets) > 0 && c.CoverageArgs != "" {
		extra, err := splitFields(c.CoverageArgs)
		if err != nil {
			return nil, fmt.Errorf("engine coverage args: %w", err)
		}
		args = append(args, extra...)
	}
	if len(args) == 0 {
		return nil, errors.New("engine command is empty")
	}

	r := strings.NewReplacer(
		"{path}", req.Path,
		"{output}", req.OutputFile,
		"{coverage}", strings.Join(req.CoverageTargets, ","),
		"{coverage_output}", req.CoverageFile,
	)
	for i, a := range args {
		args[i] = r.Replace(a)
	}
	return args, nil
}

// splitFields splits a command template the way a POSIX shell would.
// Variable references are left to the engine.
func splitFields(s string) ([]string, error) {
	return shell.Fields(s, func(name string) string {
		return "$" + name
	})
}

// Run executes the engine and parses its result document. A non-zero exit is
// tolerated when the result document was written, since failing tests make
// most engines exit non-zero.
func (c *Command) Run(ctx context.Context, req Request) (*testresult.TestResult, error) {
	args, err := c.Args(req)
	if err != nil {
		return nil, err
	}

	_ = os.Remove(req.OutputFile)
	if req.CoverageFile != "" {
		_ = os.Remove(req.CoverageFile)
	}

	var captured bytes.Buffer
	out := io.Writer(&captured)
	if c.Stdout != nil {
		out = io.MultiWriter(c.Stdout, &captured)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = os.Environ()
	cmd.Stdout = out
	cmd.Stderr = out
	runErr := cmd.Run()

	if err := c.appendLog(args, captured.Bytes()); err != nil {
		return nil, err
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, fmt.Errorf("failed to start test engine %q: %w", args[0], runErr)
	}

	result, err := c.readResult(req.OutputFile)
	if err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("test engine failed (%v) and wrote no readable results: %w", runErr, err)
		}
		return nil, err
	}

	if len(req.CoverageTargets) > 0 {
		cov, err := c.readCoverage(req.CoverageFile)
		if err != nil {
			return nil, err
		}
		result.Coverage = cov
	}
	return result, nil
}

func (c *Command) readResult(path string) (*testresult.TestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result document: %w", err)
	}
	defer f.Close()
	return c.Parser.Parse(f)
}

func (c *Command) readCoverage(path string) (*testresult.Coverage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coverage document: %w", err)
	}
	defer f.Close()
	return c.CoverageParser.ParseCoverage(f)
}

func (c *Command) appendLog(args []string, output []byte) error {
	if c.LogFile == "" {
		return nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open engine log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "> %s\n%s\n", strings.Join(args, " "), stripansi.Strip(string(output))); err != nil {
		return fmt.Errorf("failed to write engine log: %w", err)
	}
	return nil
}
