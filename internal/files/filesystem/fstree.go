package filesystem

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FSTree implements TreeContainer over any fs.FS. Paths are interpreted
// relative to the fs root; a leading slash is ignored.
type FSTree struct {
	fsys fs.FS
}

// NewFSTree wraps an fs.FS.
func NewFSTree(fsys fs.FS) *FSTree {
	return &FSTree{fsys: fsys}
}

// NewZipTree opens an in-memory zip archive, such as a retrieve payload, as a tree.
func NewZipTree(data []byte) (*FSTree, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}
	return NewFSTree(zr), nil
}

func (t *FSTree) clean(p string) string {
	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	if p == "" {
		return "."
	}
	return p
}

func (t *FSTree) Exists(p string) bool {
	_, err := fs.Stat(t.fsys, t.clean(p))
	return err == nil
}

func (t *FSTree) IsDirectory(p string) bool {
	info, err := fs.Stat(t.fsys, t.clean(p))
	return err == nil && info.IsDir()
}

func (t *FSTree) ReadDirectory(p string) ([]string, error) {
	entries, err := fs.ReadDir(t.fsys, t.clean(p))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (t *FSTree) ReadFile(p string) ([]byte, error) {
	content, err := fs.ReadFile(t.fsys, t.clean(p))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", p, err)
	}
	return content, nil
}

func (t *FSTree) Stream(p string) (io.ReadCloser, error) {
	f, err := t.fsys.Open(t.clean(p))
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", p, err)
	}
	return f, nil
}

func (t *FSTree) Stat(p string) (FileInfo, error) {
	info, err := fs.Stat(t.fsys, t.clean(p))
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %s: %w", p, err)
	}
	return info, nil
}
