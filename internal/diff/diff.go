// Package diff renders unified patches for files a merge conversion overwrote.
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of context lines around each hunk.
const DefaultContext = 3

// Options controls patch generation.
type Options struct {
	// Context lines per hunk; 0 means DefaultContext.
	Context int

	// MaxBytes skips files whose old+new size exceeds it. 0 means no limit.
	MaxBytes int
}

// FileDiff is the patch for one file.
type FileDiff struct {
	Path  string
	Patch string

	// Oversize is set when the patch was omitted because of Options.MaxBytes.
	Oversize bool
}

// Unified produces a unified patch from old to new for path. An empty patch
// means the contents are equal.
func Unified(path string, old, new []byte, opt Options) FileDiff {
	if opt.MaxBytes > 0 && len(old)+len(new) > opt.MaxBytes {
		return FileDiff{Path: path, Patch: omitted(path), Oversize: true}
	}

	ctx := opt.Context
	if ctx <= 0 {
		ctx = DefaultContext
	}

	fromFile := "a/" + path
	if old == nil {
		fromFile = "/dev/null"
	}
	u := difflib.UnifiedDiff{
		A:        splitLines(string(old)),
		B:        splitLines(string(new)),
		FromFile: fromFile,
		ToFile:   "b/" + path,
		Context:  ctx,
	}
	patch, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return FileDiff{Path: path, Patch: omitted(path)}
	}
	return FileDiff{Path: path, Patch: patch}
}

// Render joins patches in order, skipping empty ones.
func Render(diffs []FileDiff) string {
	var b strings.Builder
	for _, d := range diffs {
		if d.Patch == "" {
			continue
		}
		b.WriteString(d.Patch)
		if !strings.HasSuffix(d.Patch, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// splitLines keeps line terminators, which difflib needs to print
// well-formed hunks.
func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}

func omitted(path string) string {
	return fmt.Sprintf("--- a/%s\n+++ b/%s\n@@\n# diff omitted (oversize)\n", path, path)
}
