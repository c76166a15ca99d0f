package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// OSTree implements TreeContainer for the OS filesystem
type OSTree struct{}

// NewOSTree creates a new OS-backed tree
func NewOSTree() *OSTree {
	return &OSTree{}
}

func (t *OSTree) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (t *OSTree) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (t *OSTree) ReadDirectory(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (t *OSTree) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (t *OSTree) Stream(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (t *OSTree) Stat(path string) (FileInfo, error) {
	// os.Stat returns os.FileInfo which implements fs.FileInfo
	return os.Stat(path)
}

// WriteFile writes data to path, creating parent directories as needed.
func (t *OSTree) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (t *OSTree) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (t *OSTree) Remove(path string) error {
	return os.Remove(path)
}
