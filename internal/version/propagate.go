package version

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/AndreyAkinshin/kitci/internal/config"
	"github.com/AndreyAkinshin/kitci/internal/filelock"
)

// Placeholder is replaced with the version in replacement templates.
const Placeholder = "{version}"

// StampManifest rewrites the version field of a module manifest. It fails
// when the field is absent.
func StampManifest(path, pattern, replace, v string) error {
	if err := Validate(v); err != nil {
		return err
	}
	parsed, err := Parse(v)
	if err != nil {
		return err
	}
	if err := UpdateFile(path, pattern, replace, parsed.ManifestVersion()); err != nil {
		return fmt.Errorf("failed to stamp %s: %w", path, err)
	}
	return nil
}

// Propagate updates the version in every configured file.
func Propagate(v string, files []config.VersionFileConfig) error {
	for _, f := range files {
		if err := UpdateFile(f.Path, f.Pattern, f.Replace, v); err != nil {
			return fmt.Errorf("failed to update %s: %w", f.Path, err)
		}
	}
	return nil
}

// UpdateFile replaces every match of pattern in path with replace, where
// {version} stands for v. The file is rewritten atomically and only when
// its content changes.
func UpdateFile(path, pattern, replace, v string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	if !re.Match(data) {
		return fmt.Errorf("version pattern %q not found", pattern)
	}

	replacement := strings.ReplaceAll(replace, Placeholder, v)
	result := re.ReplaceAllLiteral(data, []byte(replacement))
	if string(result) == string(data) {
		return nil
	}
	return filelock.AtomicWrite(path, result)
}

// CheckConsistency lists files whose version differs from v.
func CheckConsistency(v string, files []config.VersionFileConfig) []string {
	var inconsistencies []string
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			inconsistencies = append(inconsistencies, fmt.Sprintf("%s: file not found", f.Path))
			continue
		}
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			inconsistencies = append(inconsistencies, fmt.Sprintf("%s: invalid pattern: %v", f.Path, err))
			continue
		}
		if !re.Match(data) {
			inconsistencies = append(inconsistencies, fmt.Sprintf("%s: pattern not matched", f.Path))
			continue
		}
		want := []byte(strings.ReplaceAll(f.Replace, Placeholder, v))
		if string(re.ReplaceAllLiteral(data, want)) != string(data) {
			inconsistencies = append(inconsistencies, fmt.Sprintf("%s: version mismatch", f.Path))
		}
	}
	return inconsistencies
}
