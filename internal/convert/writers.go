package convert

import (
	"context"
	"path/filepath"

	"github.com/vvka-141/sfmeta/internal/checksum"
	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/diff"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
)

// writer is the last pipeline stage.
type writer interface {
	write(ctx context.Context, c *components.SourceComponent, infos []WriteInfo) error
}

// writtenFile remembers which package root a file was written under, so
// the result can be resolved back into components.
type writtenFile struct {
	root string
	path string
}

type standardWriter struct {
	tree    filesystem.WritableTree
	root    string
	written []writtenFile
}

func (w *standardWriter) write(ctx context.Context, _ *components.SourceComponent, infos []WriteInfo) error {
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := readInfo(info)
		if err != nil {
			return err
		}
		dest := filepath.Join(w.root, filepath.FromSlash(info.Output))
		if err := w.tree.WriteFile(dest, data); err != nil {
			return err
		}
		w.written = append(w.written, writtenFile{root: w.root, path: dest})
	}
	return nil
}

type zipWriter struct {
	archive *archive
}

func (w *zipWriter) write(ctx context.Context, _ *components.SourceComponent, infos []WriteInfo) error {
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return err
		}
		rc, err := info.Open()
		if err != nil {
			return err
		}
		err = w.archive.add(info.Output, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// mergeWriter writes converted components next to their existing copies,
// or into the default directory when there is none.
type mergeWriter struct {
	tree       filesystem.WritableTree
	defaultDir string
	index      map[components.Key]*components.SourceComponent
	checksums  checksum.SHA256
	diffs      bool
	diffOpts   diff.Options

	written []writtenFile
	deleted []string
	changes []FileChange
	patches []diff.FileDiff
}

func newMergeWriter(tree filesystem.WritableTree, out OutputConfig, opts diff.Options) *mergeWriter {
	w := &mergeWriter{
		tree:       tree,
		defaultDir: out.DefaultDirectory,
		index:      make(map[components.Key]*components.SourceComponent, len(out.MergeWith)),
		checksums:  checksum.New(),
		diffs:      out.Diff,
		diffOpts:   opts,
	}
	for _, existing := range out.MergeWith {
		key := mergeKey(existing)
		if _, dup := w.index[key]; !dup {
			w.index[key] = existing
		}
	}
	return w
}

// mergeKey indexes children under their parent, except children of bundles,
// which are addressed on their own.
func mergeKey(c *components.SourceComponent) components.Key {
	if c.Parent != nil && !c.Parent.Type.IsBundle() {
		return c.Parent.Key()
	}
	return c.Key()
}

// existingFor finds the local copy of c by its own key, then its parent's.
func (w *mergeWriter) existingFor(c *components.SourceComponent) *components.SourceComponent {
	if existing, ok := w.index[c.Key()]; ok {
		return existing
	}
	if c.Parent != nil {
		if existing, ok := w.index[c.Parent.Key()]; ok {
			return existing
		}
	}
	return nil
}

func (w *mergeWriter) write(ctx context.Context, c *components.SourceComponent, infos []WriteInfo) error {
	existing := w.existingFor(c)
	root := w.defaultDir
	if existing != nil {
		if r, ok := packageRoot(existing); ok && r != "" {
			root = filepath.FromSlash(r)
		}
	}

	written := make(map[string]bool, len(infos))
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := readInfo(info)
		if err != nil {
			return err
		}
		dest := filepath.Join(root, filepath.FromSlash(info.Output))

		status := StatusCreated
		if w.tree.Exists(dest) {
			old, err := w.tree.ReadFile(dest)
			if err != nil {
				return err
			}
			if w.checksums.Equal(old, data) {
				status = StatusUnchanged
			} else {
				status = StatusChanged
				if w.diffs {
					w.patches = append(w.patches, diff.Unified(dest, old, data, w.diffOpts))
				}
			}
		}
		if status != StatusUnchanged {
			if err := w.tree.WriteFile(dest, data); err != nil {
				return err
			}
		}
		written[dest] = true
		w.written = append(w.written, writtenFile{root: root, path: dest})
		w.changes = append(w.changes, FileChange{Path: dest, Status: status, Type: c.Type.Name, FullName: c.FullName})
	}

	if existing == nil || !existing.Type.SupportsPartialDelete || !isContentDir(existing) {
		return nil
	}
	stale, err := existing.WalkContent()
	if err != nil {
		return err
	}
	for _, f := range stale {
		if written[f] || !w.tree.Exists(f) {
			continue
		}
		if err := w.tree.Remove(f); err != nil {
			return err
		}
		w.deleted = append(w.deleted, f)
		w.changes = append(w.changes, FileChange{Path: f, Status: StatusDeleted, Type: existing.Type.Name, FullName: existing.FullName})
	}
	return nil
}
