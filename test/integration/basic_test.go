// Package integration contains integration tests for kitci.
package integration

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/AndreyAkinshin/kitci/internal/project"
)

var (
	fixturesDirOnce sync.Once
	fixturesDirPath string
)

// fixturesDir returns the path to the test fixtures directory.
func fixturesDir() string {
	fixturesDirOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		fixturesDirPath = filepath.Join(filepath.Dir(filename), "..", "fixtures")
	})
	return fixturesDirPath
}

// copyFixture copies a fixture tree into a temp dir so tests may modify it.
func copyFixture(t *testing.T, name string) string {
	t.Helper()
	src := filepath.Join(fixturesDir(), name)
	dst := filepath.Join(t.TempDir(), name)
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	if err != nil {
		t.Fatalf("failed to copy fixture %s: %v", name, err)
	}
	return dst
}

func TestResourceKitProject(t *testing.T) {
	t.Parallel()
	fixtureDir := filepath.Join(fixturesDir(), "resource-kit")

	proj, err := project.LoadFrom(fixtureDir)
	if err != nil {
		t.Fatalf("failed to load resource-kit project: %v", err)
	}

	if proj.Config.Project.Name != "resource-kit" {
		t.Errorf("expected project name %q, got %q", "resource-kit", proj.Config.Project.Name)
	}
	if !proj.HasConfig {
		t.Error("expected HasConfig to be true")
	}
	if len(proj.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", proj.Warnings)
	}
}

func TestResourceKitDiscovery(t *testing.T) {
	t.Parallel()
	fixtureDir := filepath.Join(fixturesDir(), "resource-kit")

	proj, err := project.LoadFrom(fixtureDir)
	if err != nil {
		t.Fatalf("failed to load project: %v", err)
	}

	modules, source, err := proj.Modules()
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if source != project.SourceDiscovery {
		t.Errorf("source = %q, want discovery", source)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}

	net := modules[0]
	if net.Name != "xNetworking" {
		t.Errorf("modules[0].Name = %q, want xNetworking", net.Name)
	}
	// Both libraries are coverage targets; the Tests folder is excluded.
	if len(net.CodeCoverage) != 2 {
		t.Errorf("xNetworking coverage targets = %v, want 2", net.CodeCoverage)
	}
	if got := net.TestPaths(); len(got) != 1 || got[0] != "." {
		t.Errorf("TestPaths() = %v, want [.]", got)
	}

	if modules[1].Name != "xStorage" || len(modules[1].CodeCoverage) != 1 {
		t.Errorf("modules[1] = %+v", modules[1])
	}
}

func TestListedProject(t *testing.T) {
	t.Parallel()
	fixtureDir := filepath.Join(fixturesDir(), "listed")

	proj, err := project.LoadFrom(fixtureDir)
	if err != nil {
		t.Fatalf("failed to load listed project: %v", err)
	}

	modules, source, err := proj.Modules()
	if err != nil {
		t.Fatalf("Modules() error = %v", err)
	}
	if source != project.SourceList {
		t.Errorf("source = %q, want list", source)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if modules[0].Name != "xStorage" || modules[1].Name != "xRetired" {
		t.Errorf("module order = %s, %s; want list order", modules[0].Name, modules[1].Name)
	}
	if got := modules[0].TestPaths(); len(got) != 2 || got[1] != "xStorage/Tests/Integration" {
		t.Errorf("TestPaths() = %v", got)
	}
	if modules[0].Path != filepath.Join(proj.Root, "xStorage") {
		t.Errorf("Path = %q, want it resolved against the project root", modules[0].Path)
	}
}

func TestProjectFromSubdirectory(t *testing.T) {
	t.Parallel()
	subdir := filepath.Join(fixturesDir(), "resource-kit", "xNetworking", "DSCResources")

	proj, err := project.LoadFrom(subdir)
	if err != nil {
		t.Fatalf("failed to load project from subdirectory: %v", err)
	}

	want, _ := filepath.Abs(filepath.Join(fixturesDir(), "resource-kit"))
	if proj.Root != want {
		t.Errorf("Root = %q, want %q", proj.Root, want)
	}
}
