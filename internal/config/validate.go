package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Supported engine output formats.
var (
	validEngineFormats   = []string{"nunit", "junit"}
	validCoverageFormats = []string{"jacoco"}
	validCIProviders     = []string{"appveyor", "none"}
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration (with defaults applied) for errors and
// returns warnings for non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	engineWarnings, err := validateEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, engineWarnings...)

	if err := validateVersion(cfg.Version); err != nil {
		return nil, err
	}

	if !contains(validCIProviders, cfg.CI.Provider) {
		return nil, &ValidationError{
			Field:   "ci.provider",
			Message: fmt.Sprintf("must be one of %s", strings.Join(validCIProviders, ", ")),
		}
	}

	if cfg.Package.Command != "" && !strings.Contains(cfg.Package.Command, "{nuspec}") {
		warnings = append(warnings, "package.command does not reference {nuspec}; the generated nuspec will not be passed to the packaging tool")
	}

	return warnings, nil
}

func validateEngine(e *EngineConfig) ([]string, error) {
	var warnings []string

	if !contains(validEngineFormats, e.Format) {
		return nil, &ValidationError{
			Field:   "engine.format",
			Message: fmt.Sprintf("must be one of %s", strings.Join(validEngineFormats, ", ")),
		}
	}
	if !contains(validCoverageFormats, e.CoverageFormat) {
		return nil, &ValidationError{
			Field:   "engine.coverage_format",
			Message: fmt.Sprintf("must be one of %s", strings.Join(validCoverageFormats, ", ")),
		}
	}
	if !strings.Contains(e.Command, "{output}") {
		return nil, &ValidationError{
			Field:   "engine.command",
			Message: "must reference {output} so the result document can be collected",
		}
	}
	if e.CoverageArgs != "" && !strings.Contains(e.CoverageArgs, "{coverage}") {
		return nil, &ValidationError{
			Field:   "engine.coverage_args",
			Message: "must reference {coverage}",
		}
	}
	if !strings.Contains(e.Command, "{path}") {
		warnings = append(warnings, "engine.command does not reference {path}; every test path will run the same tests")
	}

	return warnings, nil
}

func validateVersion(v *VersionConfig) error {
	if _, err := regexp.Compile(v.ManifestPattern); err != nil {
		return &ValidationError{Field: "version.manifest_pattern", Message: fmt.Sprintf("invalid pattern: %v", err)}
	}
	if !strings.Contains(v.ManifestReplace, "{version}") {
		return &ValidationError{Field: "version.manifest_replace", Message: "must contain {version}"}
	}
	for i, f := range v.Files {
		field := fmt.Sprintf("version.files[%d]", i)
		if f.Path == "" {
			return &ValidationError{Field: field + ".path", Message: "is required"}
		}
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return &ValidationError{Field: field + ".pattern", Message: fmt.Sprintf("invalid pattern: %v", err)}
		}
		if !strings.Contains(f.Replace, "{version}") {
			return &ValidationError{Field: field + ".replace", Message: "must contain {version}"}
		}
	}
	return nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
