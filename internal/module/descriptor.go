// Package module defines the module descriptor, its list validator, loading
// of descriptor list files and auto-discovery of modules in a repository.
package module

import (
	"path/filepath"
	"strings"

	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
)

// DefaultTestPath is used when a descriptor does not list test paths.
const DefaultTestPath = "."

// Descriptor identifies one module under test.
type Descriptor struct {
	Name         string   `json:"name" yaml:"name"`
	Path         string   `json:"path" yaml:"path"`
	CodeCoverage []string `json:"code_coverage,omitempty" yaml:"code_coverage,omitempty"`
	Tests        []string `json:"tests,omitempty" yaml:"tests,omitempty"`
}

// TestPaths returns the test paths to run, in order. An unset list means the
// working directory.
func (d Descriptor) TestPaths() []string {
	if len(d.Tests) == 0 {
		return []string{DefaultTestPath}
	}
	return append([]string(nil), d.Tests...)
}

// ManifestPath returns the module manifest: the module name with the
// extension of manifestPattern, inside the module path.
func (d Descriptor) ManifestPath(manifestPattern string) string {
	return filepath.Join(d.Path, d.Name+filepath.Ext(manifestPattern))
}

// Validate checks that every descriptor carries a name and a path. The first
// offending element is reported. An empty list is valid.
func Validate(descriptors []Descriptor) error {
	for i, d := range descriptors {
		if strings.TrimSpace(d.Name) == "" {
			return &kerrors.InvalidDescriptorError{Index: i, Field: "name", Reason: "is required"}
		}
		if strings.TrimSpace(d.Path) == "" {
			return &kerrors.InvalidDescriptorError{Index: i, Field: "path", Reason: "is required"}
		}
	}
	return nil
}
