// Package report publishes test stage outcomes: count variables through a
// sink, coverage reports as HTML and optional Prometheus textfile metrics.
package report

import (
	"context"
	"fmt"
	"os"

	"github.com/AndreyAkinshin/kitci/internal/ci"
)

// Names of the published count variables.
const (
	PassedVariable = "PassedTestsCount"
	FailedVariable = "FailedTestsCount"
)

// Sink receives published name/value pairs.
type Sink interface {
	Publish(ctx context.Context, name, value string) error
	Name() string
}

// EnvSink sets process environment variables.
type EnvSink struct {
	setenv func(key, value string) error
}

// NewEnvSink returns a sink backed by os.Setenv.
func NewEnvSink() *EnvSink {
	return &EnvSink{setenv: os.Setenv}
}

// Publish sets name=value in the process environment.
func (s *EnvSink) Publish(_ context.Context, name, value string) error {
	if err := s.setenv(name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

// Name returns "environment".
func (s *EnvSink) Name() string {
	return "environment"
}

// CISink sets CI build variables through the build worker API.
type CISink struct {
	Setter ci.VariableSetter
}

// Publish sets a CI build variable.
func (s *CISink) Publish(ctx context.Context, name, value string) error {
	if err := s.Setter.SetVariable(ctx, name, value); err != nil {
		return fmt.Errorf("failed to set build variable %s: %w", name, err)
	}
	return nil
}

// Name returns "ci".
func (s *CISink) Name() string {
	return "ci"
}

// SelectSink picks the sink once at startup: CI build variables when the
// worker API is exposed, the process environment otherwise.
func SelectSink(env ci.Environment, setter ci.VariableSetter) Sink {
	if env.HasWorkerAPI() && setter != nil {
		return &CISink{Setter: setter}
	}
	return NewEnvSink()
}
