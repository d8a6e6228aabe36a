// Package project locates a kitci project and loads its configuration and
// module list.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigDirName is the name of the kitci configuration directory.
const ConfigDirName = ".kitci"

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "config.json"

// ErrNoProjectRoot is returned when .kitci/config.json is not found.
var ErrNoProjectRoot = errors.New(".kitci/config.json not found in the current directory or any parent")

// FindRoot walks up from the current working directory until it finds .kitci/config.json.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds .kitci/config.json.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		configPath := filepath.Join(dir, ConfigDirName, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}
