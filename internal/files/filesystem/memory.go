package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryFileInfo implements fs.FileInfo for in-memory files
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryEntry struct {
	content []byte
	info    *memoryFileInfo
}

// MemoryTree implements TreeContainer in memory. It is safe for concurrent use.
type MemoryTree struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry // absolute slash path -> entry
	root    string
}

// NewMemoryTree creates a new in-memory tree.
// The root path is normalized to use forward slashes for virtual filesystem consistency.
func NewMemoryTree(root string) *MemoryTree {
	root = path.Clean(filepath.ToSlash(root))

	mt := &MemoryTree{
		entries: make(map[string]*memoryEntry),
		root:    root,
	}
	mt.entries[root] = &memoryEntry{info: dirInfo(root)}
	return mt
}

// Root returns the normalized root path.
func (mt *MemoryTree) Root() string { return mt.root }

func dirInfo(p string) *memoryFileInfo {
	return &memoryFileInfo{
		name:    path.Base(p),
		mode:    0755 | fs.ModeDir,
		modTime: time.Now(),
		isDir:   true,
	}
}

// abs resolves p against the root using forward slashes.
func (mt *MemoryTree) abs(p string) string {
	p = filepath.ToSlash(p)
	if p == "" || p == "." {
		return mt.root
	}
	if !path.IsAbs(p) && !strings.HasPrefix(p, mt.root+"/") && p != mt.root {
		p = path.Join(mt.root, p)
	}
	return path.Clean(p)
}

// AddFile adds a file to the in-memory tree
func (mt *MemoryTree) AddFile(filePath string, content string) {
	mt.WriteFile(filePath, []byte(content))
}

// WriteFile creates or replaces a file, creating parent directories as needed.
func (mt *MemoryTree) WriteFile(filePath string, content []byte) error {
	absPath := mt.abs(filePath)

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.entries[absPath] = &memoryEntry{
		content: bytes.Clone(content),
		info: &memoryFileInfo{
			name:    path.Base(absPath),
			size:    int64(len(content)),
			mode:    0644,
			modTime: time.Now(),
		},
	}
	mt.ensureDirectoriesExist(absPath)
	return nil
}

// MkdirAll creates a directory and its parents.
func (mt *MemoryTree) MkdirAll(dirPath string) error {
	absPath := mt.abs(dirPath)

	mt.mu.Lock()
	defer mt.mu.Unlock()

	if e, ok := mt.entries[absPath]; ok {
		if !e.info.isDir {
			return fmt.Errorf("path is a file, not a directory: %s", dirPath)
		}
		return nil
	}
	mt.entries[absPath] = &memoryEntry{info: dirInfo(absPath)}
	mt.ensureDirectoriesExist(absPath)
	return nil
}

// Remove deletes a file or an empty directory.
func (mt *MemoryTree) Remove(filePath string) error {
	absPath := mt.abs(filePath)

	mt.mu.Lock()
	defer mt.mu.Unlock()

	e, ok := mt.entries[absPath]
	if !ok {
		return fmt.Errorf("path not found: %s", filePath)
	}
	if e.info.isDir {
		for p := range mt.entries {
			if path.Dir(p) == absPath && p != absPath {
				return fmt.Errorf("directory not empty: %s", filePath)
			}
		}
	}
	delete(mt.entries, absPath)
	return nil
}

// ensureDirectoriesExist creates directory entries for all parent directories
func (mt *MemoryTree) ensureDirectoriesExist(filePath string) {
	dir := path.Dir(filePath)
	if dir == "." || dir == "/" || dir == filePath {
		return
	}
	if _, exists := mt.entries[dir]; exists {
		return
	}
	mt.entries[dir] = &memoryEntry{info: dirInfo(dir)}
	mt.ensureDirectoriesExist(dir)
}

func (mt *MemoryTree) lookup(p string) (*memoryEntry, bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	e, ok := mt.entries[mt.abs(p)]
	return e, ok
}

func (mt *MemoryTree) Exists(p string) bool {
	_, ok := mt.lookup(p)
	return ok
}

func (mt *MemoryTree) IsDirectory(p string) bool {
	e, ok := mt.lookup(p)
	return ok && e.info.isDir
}

func (mt *MemoryTree) ReadDirectory(p string) ([]string, error) {
	dir := mt.abs(p)
	e, ok := mt.lookup(dir)
	if !ok {
		return nil, fmt.Errorf("directory not found: %s", p)
	}
	if !e.info.isDir {
		return nil, fmt.Errorf("path is not a directory: %s", p)
	}

	mt.mu.RLock()
	defer mt.mu.RUnlock()

	var names []string
	for entryPath := range mt.entries {
		if entryPath != dir && path.Dir(entryPath) == dir {
			names = append(names, path.Base(entryPath))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (mt *MemoryTree) ReadFile(p string) ([]byte, error) {
	e, ok := mt.lookup(p)
	if !ok {
		return nil, fmt.Errorf("file not found: %s", p)
	}
	if e.info.isDir {
		return nil, fmt.Errorf("path is a directory, not a file: %s", p)
	}
	return e.content, nil
}

func (mt *MemoryTree) Stream(p string) (io.ReadCloser, error) {
	content, err := mt.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (mt *MemoryTree) Stat(p string) (FileInfo, error) {
	e, ok := mt.lookup(p)
	if !ok {
		return nil, fmt.Errorf("path not found: %s", p)
	}
	return e.info, nil
}
