package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/kitci/internal/config"
)

// Project represents a loaded kitci project.
type Project struct {
	Root string
	// HasConfig is false when no config file was found and defaults apply.
	HasConfig bool
	Config    *config.Config
	Warnings  []string
}

// Load finds and loads the project containing the current directory. A
// directory tree without .kitci/config.json is a project rooted at the
// current directory with default settings.
func Load() (*Project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadFrom(cwd)
}

// LoadFrom is Load starting at dir.
func LoadFrom(dir string) (*Project, error) {
	root, err := FindRootFrom(dir)
	if errors.Is(err, ErrNoProjectRoot) {
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			return nil, absErr
		}
		cfg, warnings, err := config.DefaultWithEnv()
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return &Project{Root: abs, Config: cfg, Warnings: warnings}, nil
	}
	if err != nil {
		return nil, err
	}
	return LoadFile(root, filepath.Join(root, ConfigDirName, ConfigFileName))
}

// LoadFile loads a project rooted at root from an explicit config file.
func LoadFile(root, configPath string) (*Project, error) {
	cfg, warnings, err := config.LoadAndValidate(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Project{
		Root:      abs,
		HasConfig: true,
		Config:    cfg,
		Warnings:  warnings,
	}, nil
}

// ConfigPath returns the full path to the project configuration file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, ConfigDirName, ConfigFileName)
}

// Path resolves a configured path against the project root. Absolute paths
// are returned unchanged.
func (p *Project) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, rel)
}

// OutputDir returns the absolute test output directory.
func (p *Project) OutputDir() string {
	return p.Path(p.Config.Tests.OutputDir)
}

// ResultsFile returns the absolute path of the fixed result file.
func (p *Project) ResultsFile() string {
	return p.Path(p.Config.Tests.ResultsFile)
}
