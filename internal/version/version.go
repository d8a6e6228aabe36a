// Package version parses build versions and stamps them into module
// manifests and other versioned files.
package version

import (
	"cmp"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// SemverRegex matches semantic versions such as 1.4.0-rc.1+build.7.
var SemverRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(-([a-zA-Z0-9]+(\.[a-zA-Z0-9]+)*))?(\+([a-zA-Z0-9]+(\.[a-zA-Z0-9]+)*))?$`)

// DottedRegex matches CI build numbers with two to four numeric parts, such
// as 1.2 or 3.0.45.0.
var DottedRegex = regexp.MustCompile(`^\d+(\.\d+){1,3}$`)

// Version is a parsed build version. Numeric holds two to four parts.
type Version struct {
	Numeric    []int
	Prerelease string
	Build      string
}

// Validate checks that v is a semantic version or a dotted numeric version.
func Validate(v string) error {
	if SemverRegex.MatchString(v) || DottedRegex.MatchString(v) {
		return nil
	}
	return fmt.Errorf("invalid version %q: want semver (1.2.3) or 2-4 numeric parts (1.2.3.4)", v)
}

// Parse parses a semantic or dotted numeric version.
func Parse(v string) (*Version, error) {
	if m := SemverRegex.FindStringSubmatch(v); m != nil {
		parsed := &Version{Prerelease: m[5], Build: m[8]}
		for _, s := range m[1:4] {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("invalid version %q: %w", v, err)
			}
			parsed.Numeric = append(parsed.Numeric, n)
		}
		return parsed, nil
	}
	if !DottedRegex.MatchString(v) {
		return nil, Validate(v)
	}
	parsed := &Version{}
	for _, s := range strings.Split(v, ".") {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", v, err)
		}
		parsed.Numeric = append(parsed.Numeric, n)
	}
	return parsed, nil
}

// String returns the version in its canonical form.
func (v *Version) String() string {
	parts := make([]string, len(v.Numeric))
	for i, n := range v.Numeric {
		parts[i] = strconv.Itoa(n)
	}
	s := strings.Join(parts, ".")
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// ManifestVersion returns the numeric part padded to at least three parts,
// the shape module manifests accept (no prerelease or build suffix).
func (v *Version) ManifestVersion() string {
	nums := append([]int(nil), v.Numeric...)
	for len(nums) < 3 {
		nums = append(nums, 0)
	}
	return (&Version{Numeric: nums}).String()
}

// Compare orders two versions by their numeric parts; missing parts count as
// zero. A prerelease sorts before the same version without one.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}

	for i := 0; i < max(len(va.Numeric), len(vb.Numeric)); i++ {
		if c := cmp.Compare(part(va.Numeric, i), part(vb.Numeric, i)); c != 0 {
			return c, nil
		}
	}
	switch {
	case va.Prerelease == vb.Prerelease:
		return 0, nil
	case va.Prerelease == "":
		return 1, nil
	case vb.Prerelease == "":
		return -1, nil
	default:
		return strings.Compare(va.Prerelease, vb.Prerelease), nil
	}
}

func part(nums []int, i int) int {
	if i < len(nums) {
		return nums[i]
	}
	return 0
}

// Read reads and validates a version from a file. A missing file is returned
// wrapped, so callers can test for os.ErrNotExist.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("version file not readable: %w", err)
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", fmt.Errorf("version file is empty: %s", path)
	}
	if err := Validate(v); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
