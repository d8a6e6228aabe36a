package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidMinimal(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, `{"project": {"name": "xnetworking"}}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Project.Name != "xnetworking" {
		t.Errorf("Project.Name = %q, want %q", cfg.Project.Name, "xnetworking")
	}
	if cfg.Engine != nil {
		t.Error("Load() should not apply defaults")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()
	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	errMsg := err.Error()
	if !strings.Contains(errMsg, "nonexistent") && !strings.Contains(errMsg, "no such file") {
		t.Errorf("error = %q, want to contain file path or 'no such file'", errMsg)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	t.Parallel()
	if _, err := Load(writeConfig(t, `{"project": `)); err == nil {
		t.Fatal("Load() expected error for malformed JSON")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadWithDefaults(writeConfig(t, `{"tests": {"output_dir": "artifacts"}}`))
	if err != nil {
		t.Fatalf("LoadWithDefaults() error = %v", err)
	}
	if cfg.Tests.OutputDir != "artifacts" {
		t.Errorf("Tests.OutputDir = %q, want %q", cfg.Tests.OutputDir, "artifacts")
	}
	if cfg.Tests.ResultsFile != DefaultResultsFile {
		t.Errorf("Tests.ResultsFile = %q, want %q", cfg.Tests.ResultsFile, DefaultResultsFile)
	}
	if cfg.Engine.Format != DefaultEngineFormat {
		t.Errorf("Engine.Format = %q, want %q", cfg.Engine.Format, DefaultEngineFormat)
	}
	if cfg.Discovery.ManifestPattern != DefaultManifestPattern {
		t.Errorf("Discovery.ManifestPattern = %q, want %q", cfg.Discovery.ManifestPattern, DefaultManifestPattern)
	}
}

func TestLoadAndValidate_SchemaError(t *testing.T) {
	t.Parallel()
	_, _, err := LoadAndValidate(writeConfig(t, `{"engine": {"format": "trx"}}`))
	if err == nil {
		t.Fatal("LoadAndValidate() expected schema error")
	}
}

func TestLoadAndValidate_SemanticError(t *testing.T) {
	t.Parallel()
	_, _, err := LoadAndValidate(writeConfig(t, `{"engine": {"command": "pester {path}"}}`))
	if err == nil {
		t.Fatal("LoadAndValidate() expected validation error")
	}
	if !strings.Contains(err.Error(), "engine.command") {
		t.Errorf("error = %v, want mention of engine.command", err)
	}
}

func TestLoadAndValidate_EnvOverrides(t *testing.T) {
	t.Setenv("KITCI_OUTPUT_DIR", "build/out")
	t.Setenv("KITCI_RESULTS_FILE", "Results.xml")

	cfg, _, err := LoadAndValidate(writeConfig(t, `{"tests": {"output_dir": "ignored"}}`))
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}
	if cfg.Tests.OutputDir != "build/out" {
		t.Errorf("Tests.OutputDir = %q, want %q", cfg.Tests.OutputDir, "build/out")
	}
	if cfg.Tests.ResultsFile != "Results.xml" {
		t.Errorf("Tests.ResultsFile = %q, want %q", cfg.Tests.ResultsFile, "Results.xml")
	}
}

func TestDefaultWithEnv(t *testing.T) {
	t.Setenv("KITCI_MODULES_FILE", "modules.yaml")

	cfg, _, err := DefaultWithEnv()
	if err != nil {
		t.Fatalf("DefaultWithEnv() error = %v", err)
	}
	if cfg.Tests.ModulesFile != "modules.yaml" {
		t.Errorf("Tests.ModulesFile = %q, want %q", cfg.Tests.ModulesFile, "modules.yaml")
	}
	if cfg.Tests.OutputDir != DefaultOutputDir {
		t.Errorf("Tests.OutputDir = %q, want %q", cfg.Tests.OutputDir, DefaultOutputDir)
	}
}
