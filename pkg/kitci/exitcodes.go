// Package kitci provides public constants for external tools integrating
// with kitci (build scripts, CI wrappers).
package kitci

// Exit codes returned by the kitci CLI.
// These constants allow external tools to check exit codes symbolically
// rather than using magic numbers.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure (tests failed, packaging failed, etc.).
	ExitFailure = 1

	// ExitConfigError indicates a configuration error (invalid config, invalid module list, etc.).
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (test engine missing, run already in progress, etc.).
	ExitEnvError = 3
)
