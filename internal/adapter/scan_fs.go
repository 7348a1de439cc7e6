package adapter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	m "github.com/BurtTheCoder/bouncer/internal/model"
)

// ScanFSAdapter abstracts the filesystem operations the batch scanner
// relies on.
type ScanFSAdapter interface {
	// WalkFiles calls fn for every regular file under root. Enumeration
	// order is whatever the filesystem yields; it is stable within a single
	// run but callers must not assume a particular order across platforms.
	WalkFiles(root m.Path, fn func(path m.Path) error) error

	// FileExists reports whether path exists and is a regular file.
	FileExists(path m.Path) bool

	// Abs resolves path to its absolute form.
	Abs(path m.Path) (m.Path, error)
}

// LocalScanFSAdapter is the disk-backed ScanFSAdapter.
type LocalScanFSAdapter struct{}

// NewLocalScanFSAdapter constructs a LocalScanFSAdapter.
func NewLocalScanFSAdapter() *LocalScanFSAdapter {
	return &LocalScanFSAdapter{}
}

// WalkFiles iterates over regular files under root.
func (a *LocalScanFSAdapter) WalkFiles(root m.Path, fn func(path m.Path) error) error {
	err := filepath.WalkDir(string(root), func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}

		return fn(m.Path(path))
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	return nil
}

// FileExists reports whether path is an existing regular file.
func (a *LocalScanFSAdapter) FileExists(path m.Path) bool {
	info, err := os.Stat(string(path))

	return err == nil && info.Mode().IsRegular()
}

// Abs resolves path to its absolute form.
func (a *LocalScanFSAdapter) Abs(path m.Path) (m.Path, error) {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return "", err
	}

	return m.Path(abs), nil
}
