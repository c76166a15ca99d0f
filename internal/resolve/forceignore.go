package resolve

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"

	"github.com/vvka-141/sfmeta/internal/files/filesystem"
)

// ForceIgnoreFileName is the ignore file looked up in the project root.
const ForceIgnoreFileName = ".forceignore"

// defaultIgnorePatterns apply even without a .forceignore file.
var defaultIgnorePatterns = []string{
	"**/*.dup",
	"**/.*",
	"**/package2-descriptor.json",
	"**/package2-manifest.json",
}

// ForceIgnore decides which files resolvers skip. Patterns follow .gitignore
// conventions: a pattern without a slash matches at any depth, a leading
// slash anchors it to the ignore file's directory, and "!" re-includes.
type ForceIgnore struct {
	root    string
	matcher *patternmatcher.PatternMatcher
}

// NewForceIgnore builds a matcher for files under root.
func NewForceIgnore(root string, patterns []string) (*ForceIgnore, error) {
	all := make([]string, 0, len(defaultIgnorePatterns)+len(patterns))
	all = append(all, defaultIgnorePatterns...)
	for _, p := range patterns {
		if converted, ok := convertPattern(p); ok {
			all = append(all, converted)
		}
	}

	matcher, err := patternmatcher.New(all)
	if err != nil {
		return nil, fmt.Errorf("invalid %s pattern: %w", ForceIgnoreFileName, err)
	}
	return &ForceIgnore{root: root, matcher: matcher}, nil
}

// LoadForceIgnore reads root/.forceignore from tree. A missing file yields
// a matcher with only the default patterns.
func LoadForceIgnore(tree filesystem.TreeContainer, root string) (*ForceIgnore, error) {
	path := filepath.Join(root, ForceIgnoreFileName)
	if !tree.Exists(path) {
		return NewForceIgnore(root, nil)
	}
	data, err := tree.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewForceIgnore(root, ParseIgnoreFile(data))
}

// ParseIgnoreFile returns the non-comment, non-blank lines of an ignore file.
func ParseIgnoreFile(data []byte) []string {
	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// convertPattern rewrites a gitignore-style pattern into the dockerignore
// dialect the matcher speaks.
func convertPattern(p string) (string, bool) {
	negate := strings.HasPrefix(p, "!")
	p = strings.TrimPrefix(p, "!")
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return "", false
	}

	if strings.HasPrefix(p, "/") {
		p = strings.TrimPrefix(p, "/")
	} else if !strings.Contains(p, "/") && !strings.HasPrefix(p, "**") {
		p = "**/" + p
	}

	if negate {
		p = "!" + p
	}
	return p, true
}

// Denies reports whether path is ignored. Paths outside root are never ignored.
func (f *ForceIgnore) Denies(path string) bool {
	if f == nil {
		return false
	}
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	ignored, err := f.matcher.MatchesOrParentMatches(filepath.ToSlash(rel))
	return err == nil && ignored
}

// Accepts is the inverse of Denies.
func (f *ForceIgnore) Accepts(path string) bool {
	return !f.Denies(path)
}
