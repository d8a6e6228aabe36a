package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/AndreyAkinshin/kitci/internal/schema"
)

// EnvPrefix is the prefix of environment variables overriding configuration.
const EnvPrefix = "KITCI"

// Load reads and parses a config.json configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults reads a config file and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadAndValidate reads a config file, checks it against the embedded schema,
// applies defaults and environment overrides, validates, and returns warnings.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := schema.ValidateConfig(data); err != nil {
		return nil, nil, err
	}

	cfg, unknownWarnings, err := LoadWithWarnings(path, data)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	validationWarnings, err := Validate(cfg)

	allWarnings := make([]string, 0, len(unknownWarnings)+len(validationWarnings))
	allWarnings = append(allWarnings, unknownWarnings...)
	allWarnings = append(allWarnings, validationWarnings...)

	if err != nil {
		return nil, allWarnings, err
	}

	return cfg, allWarnings, nil
}

// DefaultWithEnv returns the default configuration with environment
// overrides applied. Used when a project has no config file.
func DefaultWithEnv() (*Config, []string, error) {
	cfg := Default()
	applyEnvOverrides(cfg)
	warnings, err := Validate(cfg)
	if err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

// envOverrides maps environment keys (after the KITCI_ prefix) to the fields
// they override.
var envOverrides = map[string]func(cfg *Config, value string){
	"output_dir":     func(cfg *Config, v string) { cfg.Tests.OutputDir = v },
	"results_file":   func(cfg *Config, v string) { cfg.Tests.ResultsFile = v },
	"modules_file":   func(cfg *Config, v string) { cfg.Tests.ModulesFile = v },
	"metrics_file":   func(cfg *Config, v string) { cfg.Tests.MetricsFile = v },
	"engine_command": func(cfg *Config, v string) { cfg.Engine.Command = v },
	"ci_provider":    func(cfg *Config, v string) { cfg.CI.Provider = v },
}

// applyEnvOverrides replaces configuration values with KITCI_* environment
// variables when they are set to a non-empty value.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, apply := range envOverrides {
		_ = v.BindEnv(key) // only fails on an empty key
		if value := v.GetString(key); value != "" {
			apply(cfg, value)
		}
	}
}
