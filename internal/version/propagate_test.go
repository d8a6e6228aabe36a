package version

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/kitci/internal/config"
)

const manifest = `@{
    RootModule = 'xStorage.psm1'
    ModuleVersion = '2.5.0.0'
    GUID = '00d73ca1-58b5-46b7-ac1a-5bfcf5814faf'
}
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStampManifest(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "xStorage.psd1", manifest)

	err := StampManifest(path, config.DefaultManifestVersionPattern, config.DefaultManifestVersionReplace, "2.6.45.0")
	if err != nil {
		t.Fatalf("StampManifest() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "ModuleVersion = '2.6.45.0'") {
		t.Errorf("manifest = %q, want stamped version", data)
	}
	if !strings.Contains(string(data), "RootModule = 'xStorage.psm1'") {
		t.Error("other manifest fields must be preserved")
	}
}

func TestStampManifest_PadsShortVersions(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "m.psd1", manifest)

	if err := StampManifest(path, config.DefaultManifestVersionPattern, config.DefaultManifestVersionReplace, "3.1"); err != nil {
		t.Fatalf("StampManifest() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "ModuleVersion = '3.1.0'") {
		t.Errorf("manifest = %q", data)
	}
}

func TestStampManifest_Errors(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "m.psd1", "@{ RootModule = 'x.psm1' }")
	if err := StampManifest(path, config.DefaultManifestVersionPattern, config.DefaultManifestVersionReplace, "1.0.0"); err == nil {
		t.Error("StampManifest() without ModuleVersion: error = nil")
	}

	path = writeTemp(t, "m.psd1", manifest)
	if err := StampManifest(path, config.DefaultManifestVersionPattern, config.DefaultManifestVersionReplace, "latest"); err == nil {
		t.Error("StampManifest() with invalid version: error = nil")
	}
}

func TestPropagate(t *testing.T) {
	t.Parallel()
	readme := writeTemp(t, "README.md", "Install xStorage v1.0.0 from the gallery.")
	appveyor := writeTemp(t, "appveyor.yml", "version: 1.0.{build}.0\n")

	files := []config.VersionFileConfig{
		{Path: readme, Pattern: `v[\d.]+`, Replace: "v{version}"},
		{Path: appveyor, Pattern: `version: [\d.]+\{build\}`, Replace: "version: {version}.{build}"},
	}
	if err := Propagate("2.0", files); err != nil {
		t.Fatalf("Propagate() error = %v", err)
	}

	data, _ := os.ReadFile(readme)
	if string(data) != "Install xStorage v2.0 from the gallery." {
		t.Errorf("README = %q", data)
	}
	data, _ = os.ReadFile(appveyor)
	if string(data) != "version: 2.0.{build}.0\n" {
		t.Errorf("appveyor.yml = %q", data)
	}

	if err := Propagate("2.0", []config.VersionFileConfig{{Path: filepath.Join(t.TempDir(), "missing")}}); err == nil {
		t.Error("Propagate() with missing file: error = nil")
	}
	if err := Propagate("2.0", nil); err != nil {
		t.Errorf("Propagate(nil) error = %v", err)
	}
}

func TestUpdateFile(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "f.txt", "a 1.0 b 1.0")
	if err := UpdateFile(path, `\d+\.\d+`, "{version}", "2.0"); err != nil {
		t.Fatalf("UpdateFile() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "a 2.0 b 2.0" {
		t.Errorf("content = %q, want all matches replaced", data)
	}

	if err := UpdateFile(path, `[`, "{version}", "2.0"); err == nil {
		t.Error("UpdateFile() with invalid pattern: error = nil")
	}
	if err := UpdateFile(path, `zzz`, "{version}", "2.0"); err == nil {
		t.Error("UpdateFile() with unmatched pattern: error = nil")
	}
}

func TestUpdateFile_ReplacementIsLiteral(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "f.txt", "price: 1.0")
	if err := UpdateFile(path, `\d+\.\d+`, "$1-{version}", "2.0"); err != nil {
		t.Fatalf("UpdateFile() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "price: $1-2.0" {
		t.Errorf("content = %q", data)
	}
}

func TestCheckConsistency(t *testing.T) {
	t.Parallel()
	ok := writeTemp(t, "ok.txt", "v2.0")
	stale := writeTemp(t, "stale.txt", "v1.0")
	unmatched := writeTemp(t, "unmatched.txt", "nothing here")

	files := []config.VersionFileConfig{
		{Path: ok, Pattern: `v[\d.]+`, Replace: "v{version}"},
		{Path: stale, Pattern: `v[\d.]+`, Replace: "v{version}"},
		{Path: unmatched, Pattern: `v[\d.]+`, Replace: "v{version}"},
		{Path: filepath.Join(t.TempDir(), "missing"), Pattern: `v`, Replace: "v"},
		{Path: ok, Pattern: `[`, Replace: "v"},
	}

	got := CheckConsistency("2.0", files)
	if len(got) != 4 {
		t.Fatalf("CheckConsistency() = %v, want 4 entries", got)
	}
	for i, want := range []string{"version mismatch", "pattern not matched", "file not found", "invalid pattern"} {
		if !strings.Contains(got[i], want) {
			t.Errorf("entry %d = %q, want it to mention %q", i, got[i], want)
		}
	}
}
