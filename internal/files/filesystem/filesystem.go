package filesystem

import (
	"io"
	"io/fs"
	"path/filepath"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
// This provides compatibility with the fs.FS ecosystem while maintaining
// a stable local type for our abstraction layer.
type FileInfo = fs.FileInfo

// TreeContainer is a read-only view of a file tree. Resolvers and transformers
// are agnostic to whether it is backed by disk, memory or a zip archive.
type TreeContainer interface {
	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool

	// IsDirectory reports whether path exists and is a directory.
	IsDirectory(path string) bool

	// ReadDirectory returns the sorted base names of the entries in a directory.
	ReadDirectory(path string) ([]string, error)

	// ReadFile reads a file's full content.
	ReadFile(path string) ([]byte, error)

	// Stream opens a file for sequential reading. Callers must close it.
	Stream(path string) (io.ReadCloser, error)

	// Stat returns file information for the given path
	Stat(path string) (FileInfo, error)
}

// WritableTree is a TreeContainer that can also be written to. Converters
// write their output through it.
type WritableTree interface {
	TreeContainer

	// WriteFile creates or replaces a file, creating parent directories.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error

	// Remove deletes a file or an empty directory.
	Remove(path string) error
}

// WalkFunc is called for every regular file found by Walk.
type WalkFunc func(path string) error

// Walk visits every file under root in lexical order, descending into
// directories depth-first. Directories for which skipDir returns true are
// not entered. A nil skipDir visits everything.
func Walk(tree TreeContainer, root string, skipDir func(path string) bool, fn WalkFunc) error {
	if !tree.IsDirectory(root) {
		if tree.Exists(root) {
			return fn(root)
		}
		return nil
	}

	names, err := tree.ReadDirectory(root)
	if err != nil {
		return err
	}

	for _, name := range names {
		child := filepath.Join(root, name)
		if tree.IsDirectory(child) {
			if skipDir != nil && skipDir(child) {
				continue
			}
			if err := Walk(tree, child, skipDir, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(child); err != nil {
			return err
		}
	}
	return nil
}

// Files returns every file under root in walk order.
func Files(tree TreeContainer, root string) ([]string, error) {
	var out []string
	err := Walk(tree, root, nil, func(p string) error {
		out = append(out, p)
		return nil
	})
	return out, err
}
