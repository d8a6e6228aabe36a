// Package errors provides structured error types and exit codes for kitci.
package errors

import (
	"errors"
	"fmt"

	"github.com/AndreyAkinshin/kitci/pkg/kitci"
)

// Exit codes returned by the kitci CLI, mirroring the public constants.
const (
	ExitSuccess          = kitci.ExitSuccess
	ExitRuntimeError     = kitci.ExitFailure
	ExitConfigError      = kitci.ExitConfigError
	ExitEnvironmentError = kitci.ExitEnvError
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
)

// KitError is the base error type for kitci.
type KitError struct {
	Kind    ErrorKind
	Message string
	Module  string // Module name if applicable
	Command string // Command or stage name if applicable
	Cause   error  // Underlying error
}

func (e *KitError) Error() string {
	if e.Module != "" && e.Command != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Module, e.Command, e.Message)
	}
	if e.Module != "" {
		return fmt.Sprintf("[%s] %s", e.Module, e.Message)
	}
	return e.Message
}

func (e *KitError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *KitError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// InvalidDescriptorError reports a module list element that does not carry
// the module descriptor shape. Index is the zero-based position in the list.
type InvalidDescriptorError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid module descriptor at index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid module descriptor at index %d: %s %s", e.Index, e.Field, e.Reason)
}

// ExitCode returns ExitConfigError: a bad module list is an input error.
func (e *InvalidDescriptorError) ExitCode() int {
	return ExitConfigError
}

// TestFailureError reports that one or more tests of a module failed.
type TestFailureError struct {
	Module string
	Failed int
}

func (e *TestFailureError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("%d tests failed.", e.Failed)
	}
	return fmt.Sprintf("[%s] %d tests failed.", e.Module, e.Failed)
}

// ExitCode returns ExitRuntimeError.
func (e *TestFailureError) ExitCode() int {
	return ExitRuntimeError
}

// New creates a new runtime error.
func New(message string) *KitError {
	return &KitError{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *KitError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *KitError {
	return &KitError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *KitError {
	return Config(fmt.Sprintf(format, args...))
}

// Environment creates a new environment error.
func Environment(message string) *KitError {
	return &KitError{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *KitError {
	return Environment(fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *KitError {
	return &KitError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// ModuleError creates an error for a specific module and stage.
func ModuleError(module, command, message string) *KitError {
	return &KitError{
		Kind:    KindRuntime,
		Module:  module,
		Command: command,
		Message: message,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *KitError {
	return &KitError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// exitCoder is implemented by every error type in this package.
type exitCoder interface {
	ExitCode() int
}

// GetExitCode returns the exit code for an error, looking through wrapping.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitRuntimeError
}
