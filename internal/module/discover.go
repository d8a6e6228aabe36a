package module

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverOptions controls module auto-discovery.
type DiscoverOptions struct {
	ManifestPattern string   // e.g. "*.psd1"
	LibraryPattern  string   // e.g. "*.psm1"; matches become coverage targets
	Exclude         []string // directory names never scanned
}

// Discover finds modules in root and its immediate subdirectories. Each
// manifest matching ManifestPattern yields one descriptor named after the
// manifest, rooted at the manifest's directory. Results are sorted by name.
func Discover(root string, opts DiscoverOptions) ([]Descriptor, error) {
	if opts.ManifestPattern == "" {
		return nil, fmt.Errorf("discovery: manifest pattern is empty")
	}
	if _, err := filepath.Match(opts.ManifestPattern, ""); err != nil {
		return nil, fmt.Errorf("discovery: invalid manifest pattern %q: %w", opts.ManifestPattern, err)
	}
	if opts.LibraryPattern != "" {
		if _, err := filepath.Match(opts.LibraryPattern, ""); err != nil {
			return nil, fmt.Errorf("discovery: invalid library pattern %q: %w", opts.LibraryPattern, err)
		}
	}

	dirs := []string{root}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Skip hidden directories and excluded ones
		if strings.HasPrefix(name, ".") || isExcluded(name, opts.Exclude) {
			continue
		}
		dirs = append(dirs, filepath.Join(root, name))
	}

	var found []Descriptor
	for _, dir := range dirs {
		manifests, err := filepath.Glob(filepath.Join(dir, opts.ManifestPattern))
		if err != nil {
			return nil, err
		}
		for _, manifest := range manifests {
			d := Descriptor{
				Name:  strings.TrimSuffix(filepath.Base(manifest), filepath.Ext(manifest)),
				Path:  dir,
				Tests: []string{DefaultTestPath},
			}
			if opts.LibraryPattern != "" {
				targets, err := findLibraries(dir, opts.LibraryPattern, opts.Exclude)
				if err != nil {
					return nil, err
				}
				d.CodeCoverage = targets
			}
			found = append(found, d)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found, nil
}

// findLibraries walks dir and returns every file matching pattern, sorted.
func findLibraries(dir, pattern string, exclude []string) ([]string, error) {
	var libs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(d.Name(), ".") || isExcluded(d.Name(), exclude)) {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			libs = append(libs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(libs)
	return libs, nil
}

func isExcluded(name string, exclude []string) bool {
	for _, e := range exclude {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}
