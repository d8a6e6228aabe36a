// Package packaging turns modules into release artifacts: a zip archive, its
// checksum sidecar and a package built by an external packaging tool.
package packaging

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ChecksumSuffix is appended to an artifact path to name its checksum file.
const ChecksumSuffix = ".checksum.txt"

// Zip archives the contents of srcDir into dest. Entries are relative to
// srcDir. skip, when non-nil, is consulted with slash-separated relative
// paths; skipping a directory skips its subtree. dest itself is never
// archived, even when it lies under srcDir.
func Zip(srcDir, dest string, skip func(rel string, isDir bool) bool) (err error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(absDest), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(absDest)
	if err != nil {
		return fmt.Errorf("failed to create zip file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(absDest)
		}
	}()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(f)
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	walkErr := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(srcDir, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if abs, _ := filepath.Abs(path); abs == absDest {
			return nil
		}
		if skip != nil && skip(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			_, err := zw.Create(rel + "/")
			return err
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("failed to get file info: %w", infoErr)
		}
		header, headerErr := zip.FileInfoHeader(info)
		if headerErr != nil {
			return fmt.Errorf("failed to create file header: %w", headerErr)
		}
		header.Name = rel
		header.Method = zip.Deflate

		w, createErr := zw.CreateHeader(header)
		if createErr != nil {
			return fmt.Errorf("failed to create zip entry: %w", createErr)
		}
		src, openErr := os.Open(path)
		if openErr != nil {
			return openErr
		}
		defer src.Close()
		_, copyErr := io.Copy(w, src)
		return copyErr
	})
	if walkErr != nil {
		return fmt.Errorf("failed to archive %s: %w", srcDir, walkErr)
	}
	return nil
}

// Checksum returns the uppercase hex SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

// WriteChecksum writes the checksum of path to path+ChecksumSuffix and
// returns the sidecar path.
func WriteChecksum(path string) (string, error) {
	sum, err := Checksum(path)
	if err != nil {
		return "", err
	}
	sidecar := path + ChecksumSuffix
	if err := os.WriteFile(sidecar, []byte(sum), 0644); err != nil {
		return "", fmt.Errorf("failed to write checksum: %w", err)
	}
	return sidecar, nil
}
