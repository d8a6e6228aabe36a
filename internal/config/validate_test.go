package config

import (
	"errors"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()
	warnings, err := Validate(Default())
	if err != nil {
		t.Fatalf("Validate(Default()) error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Validate(Default()) warnings = %v, want none", warnings)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(cfg *Config)
		field  string
	}{
		{"unknown format", func(c *Config) { c.Engine.Format = "trx" }, "engine.format"},
		{"unknown coverage format", func(c *Config) { c.Engine.CoverageFormat = "cobertura" }, "engine.coverage_format"},
		{"command without output", func(c *Config) { c.Engine.Command = "pester {path}" }, "engine.command"},
		{"coverage args without targets", func(c *Config) { c.Engine.CoverageArgs = "-Coverage" }, "engine.coverage_args"},
		{"bad manifest pattern", func(c *Config) { c.Version.ManifestPattern = "(" }, "version.manifest_pattern"},
		{"replace without version", func(c *Config) { c.Version.ManifestReplace = "ModuleVersion = ''" }, "version.manifest_replace"},
		{"version file without path", func(c *Config) {
			c.Version.Files = []VersionFileConfig{{Pattern: "x", Replace: "{version}"}}
		}, "version.files[0].path"},
		{"version file bad pattern", func(c *Config) {
			c.Version.Files = []VersionFileConfig{{Path: "a", Pattern: "[", Replace: "{version}"}}
		}, "version.files[0].pattern"},
		{"unknown provider", func(c *Config) { c.CI.Provider = "jenkins" }, "ci.provider"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)

			_, err := Validate(cfg)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Engine.Command = "run-tests --out {output}"
	cfg.Package.Command = "pack-it"

	warnings, err := Validate(cfg)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !hasWarning(warnings, "{path}") {
		t.Errorf("expected warning about {path}, got %v", warnings)
	}
	if !hasWarning(warnings, "{nuspec}") {
		t.Errorf("expected warning about {nuspec}, got %v", warnings)
	}
}
