// Package archive persists the export document and handles the optional
// single-entry compression formats.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"
)

// WriteJSON serializes v to path as indented JSON. Two-space indentation and
// Go's deterministic map-key ordering keep successive backups diffable.
func WriteJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Zip wraps the file at path as the single entry of path+".zip" and removes
// the uncompressed original. Returns the archive path.
func Zip(path string) (string, error) {
	dst := path + ".zip"

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	entry, err := zw.Create(filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create zip entry: %w", err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return "", fmt.Errorf("compress %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}

	src.Close()
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove uncompressed %s: %w", path, err)
	}
	return dst, nil
}

// XZ compresses the file at path into path+".xz" and removes the
// uncompressed original. Returns the archive path.
func XZ(path string) (string, error) {
	dst := path + ".xz"

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	xw, err := xz.NewWriter(out)
	if err != nil {
		return "", fmt.Errorf("create xz writer: %w", err)
	}
	if _, err := io.Copy(xw, src); err != nil {
		return "", fmt.Errorf("compress %s: %w", path, err)
	}
	if err := xw.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}

	src.Close()
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("remove uncompressed %s: %w", path, err)
	}
	return dst, nil
}

// Restore extracts a .zip backup archive into dir.
func Restore(archivePath, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := unzip.Extract(archivePath, dir); err != nil {
		return fmt.Errorf("extract %s: %w", archivePath, err)
	}
	return nil
}
