package convert

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/config"
	"github.com/vvka-141/sfmeta/internal/diff"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/lazy"
	"github.com/vvka-141/sfmeta/internal/logging"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/resolve"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// pipelineBuffer bounds how many transformed components wait for the writer.
const pipelineBuffer = 16

// Converter rewrites component sets between source and metadata API format.
type Converter struct {
	registry     *registry.Registry
	tree         filesystem.WritableTree
	logger       sfmeta.Logger
	now          func() time.Time
	lookupEnv    func(string) (string, bool)
	projectDir   string
	replacements []config.ReplacementRule
	diffOptions  diff.Options
}

// Option configures a Converter.
type Option func(*Converter)

func WithRegistry(r *registry.Registry) Option { return func(c *Converter) { c.registry = r } }

// WithTree sets where output is written. Defaults to the OS file system.
func WithTree(t filesystem.WritableTree) Option { return func(c *Converter) { c.tree = t } }

func WithLogger(l sfmeta.Logger) Option { return func(c *Converter) { c.logger = l } }

func WithClock(now func() time.Time) Option { return func(c *Converter) { c.now = now } }

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(c *Converter) { c.lookupEnv = fn }
}

// WithReplacements sets the text replacement rules applied when converting
// to metadata format. Rule paths are relative to projectDir.
func WithReplacements(projectDir string, rules []config.ReplacementRule) Option {
	return func(c *Converter) {
		c.projectDir = projectDir
		c.replacements = rules
	}
}

func WithDiffOptions(opts diff.Options) Option { return func(c *Converter) { c.diffOptions = opts } }

// New returns a converter with the given options applied over defaults.
func New(opts ...Option) *Converter {
	c := &Converter{
		registry:  registry.Default(),
		tree:      filesystem.NewOSTree(),
		logger:    logging.NewNullLogger(),
		now:       time.Now,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert writes set in the target format. Errors that already carry a
// specific diagnosis are returned as is; everything else is wrapped in a
// *ConversionError.
func (cv *Converter) Convert(ctx context.Context, set *components.ComponentSet, target TargetFormat, out OutputConfig) (*Result, error) {
	res, err := cv.convert(ctx, set, target, out)
	if err != nil {
		return nil, wrapError(err)
	}
	if target == FormatMetadata {
		if dir, ok := cv.lookupEnv(sfmeta.EnvMDAPITempDir); ok && dir != "" {
			cv.writeDebugCopy(ctx, set, dir)
		}
	}
	return res, nil
}

// ConvertComponents converts a plain list of components.
func (cv *Converter) ConvertComponents(ctx context.Context, comps []*components.SourceComponent, target TargetFormat, out OutputConfig) (*Result, error) {
	set := components.New(cv.registry)
	for _, c := range comps {
		set.Add(c)
	}
	return cv.Convert(ctx, set, target, out)
}

func (cv *Converter) writeDebugCopy(ctx context.Context, set *components.ComponentSet, dir string) {
	cv.logger.Warn("%s is set: writing an extra copy of the converted metadata to %s. Unset it to speed up conversion.",
		sfmeta.EnvMDAPITempDir, dir)
	_, err := cv.convert(ctx, set, FormatMetadata, OutputConfig{
		Type:            OutputDirectory,
		OutputDirectory: dir,
		PackageName:     "metadata_" + uuid.NewString(),
	})
	if err != nil {
		cv.logger.Warn("failed to write metadata copy to %s: %v", dir, err)
	}
}

func (cv *Converter) convert(ctx context.Context, set *components.ComponentSet, target TargetFormat, out OutputConfig) (*Result, error) {
	if target != FormatSource && target != FormatMetadata {
		return nil, fmt.Errorf("%w: unknown target format %q", sfmeta.ErrInvalidConfig, target)
	}
	if out.Type == OutputMerge && target != FormatSource {
		return nil, unsupportedMerge(target)
	}

	rep, err := cv.replacer(set, target, out)
	if err != nil {
		return nil, err
	}
	comps := convertible(set)

	switch out.Type {
	case OutputDirectory:
		return cv.toDirectory(ctx, set, comps, target, rep, out)
	case OutputZip:
		return cv.toZip(ctx, set, comps, target, rep, out)
	case OutputMerge:
		return cv.toMerge(ctx, comps, rep, out)
	default:
		return nil, fmt.Errorf("%w: unknown output type %q", sfmeta.ErrInvalidConfig, out.Type)
	}
}

// replacer is active for metadata output when the output is a zip or when
// SF_APPLY_REPLACEMENTS_ON_CONVERT is true.
func (cv *Converter) replacer(set *components.ComponentSet, target TargetFormat, out OutputConfig) (*replacer, error) {
	if target == FormatSource || len(cv.replacements) == 0 {
		return nil, nil
	}
	flag, _ := cv.lookupEnv(sfmeta.EnvApplyReplacementsOnConv)
	if out.Type != OutputZip && !strings.EqualFold(flag, "true") {
		return nil, nil
	}
	return compileReplacements(cv.replacements, cv.projectDir, filesystem.NewOSTree(), cv.lookupEnv)
}

// convertible yields file-backed components that can be written. Children
// stored in their parent's files are replaced by the parent, once.
func convertible(set *components.ComponentSet) iter.Seq[*components.SourceComponent] {
	seen := make(map[string]bool)
	mapped := lazy.Map(set.GetSourceComponents(), func(c *components.SourceComponent) *components.SourceComponent {
		if c.Parent != nil && c.Parent.XML != "" && !c.Parent.Type.IsBundle() {
			return c.Parent
		}
		return c
	})
	return lazy.Filter(mapped, func(c *components.SourceComponent) bool {
		if c.IsMarkedForDelete() || !c.Type.Addressable() || c.Tree == nil || (c.XML == "" && c.Content == "") {
			return false
		}
		key := c.Type.Name + "\x00" + c.XML + "\x00" + c.Content
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})
}

func (cv *Converter) toDirectory(ctx context.Context, set *components.ComponentSet, comps iter.Seq[*components.SourceComponent], target TargetFormat, rep *replacer, out OutputConfig) (*Result, error) {
	pkg := packagePath(out, cv.now(), false)
	if pkg == "" {
		return nil, fmt.Errorf("%w: directory output requires an output directory", sfmeta.ErrInvalidConfig)
	}
	if err := cv.tree.MkdirAll(pkg); err != nil {
		return nil, err
	}

	w := &standardWriter{tree: cv.tree, root: pkg}
	g, gctx := errgroup.WithContext(ctx)
	if target == FormatMetadata {
		g.Go(func() error {
			return writeManifests(set, func(name string, data []byte) error {
				return cv.tree.WriteFile(filepath.Join(pkg, name), data)
			})
		})
	}
	g.Go(func() error { return cv.pipeline(gctx, comps, target, rep, nil, w) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	converted, err := cv.reresolve(w.written)
	if err != nil {
		return nil, err
	}
	return &Result{PackagePath: pkg, Converted: converted}, nil
}

func (cv *Converter) toZip(ctx context.Context, set *components.ComponentSet, comps iter.Seq[*components.SourceComponent], target TargetFormat, rep *replacer, out OutputConfig) (*Result, error) {
	a := newArchive()
	if target == FormatMetadata {
		if err := writeManifests(set, a.addBytes); err != nil {
			return nil, err
		}
	}
	if err := cv.pipeline(ctx, comps, target, rep, nil, &zipWriter{archive: a}); err != nil {
		return nil, err
	}
	data, count, err := a.bytes()
	if err != nil {
		return nil, err
	}

	res := &Result{ZipFileCount: count}
	if out.OutputDirectory == "" {
		res.ZipBuffer = data
		return res, nil
	}
	p := packagePath(out, cv.now(), true)
	if err := cv.tree.WriteFile(p, data); err != nil {
		return nil, err
	}
	res.PackagePath = p
	return res, nil
}

func (cv *Converter) toMerge(ctx context.Context, comps iter.Seq[*components.SourceComponent], rep *replacer, out OutputConfig) (*Result, error) {
	if out.DefaultDirectory == "" {
		return nil, fmt.Errorf("%w: merge output requires a default directory", sfmeta.ErrInvalidConfig)
	}
	w := newMergeWriter(cv.tree, out, cv.diffOptions)
	if err := cv.pipeline(ctx, comps, FormatSource, rep, w.existingFor, w); err != nil {
		return nil, err
	}
	converted, err := cv.reresolve(w.written)
	if err != nil {
		return nil, err
	}
	return &Result{
		Converted: converted,
		Deleted:   w.deleted,
		Changes:   w.changes,
		Diffs:     w.patches,
	}, nil
}

type batch struct {
	component *components.SourceComponent
	infos     []WriteInfo
}

// pipeline transforms components in one goroutine and writes them in
// another. Either side failing cancels the other.
func (cv *Converter) pipeline(
	ctx context.Context,
	comps iter.Seq[*components.SourceComponent],
	target TargetFormat,
	rep *replacer,
	mergeWith func(*components.SourceComponent) *components.SourceComponent,
	w writer,
) error {
	ch := make(chan batch, pipelineBuffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ch)
		for c := range comps {
			if err := rep.mark(c); err != nil {
				return err
			}
			infos, err := cv.transform(c, target, mergeWith)
			if err != nil {
				return fmt.Errorf("failed to convert %s: %w", c, err)
			}
			select {
			case ch <- batch{component: c, infos: infos}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for b := range ch {
			if err := w.write(gctx, b.component, b.infos); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

func (cv *Converter) transform(c *components.SourceComponent, target TargetFormat, mergeWith func(*components.SourceComponent) *components.SourceComponent) ([]WriteInfo, error) {
	t := transformerFor(c.Type)
	if target == FormatMetadata {
		return t.ToMetadataFormat(c)
	}
	var existing *components.SourceComponent
	if mergeWith != nil {
		existing = mergeWith(c)
	}
	return t.ToSourceFormat(c, existing)
}

// writeManifests emits package.xml and one destructive manifest per phase.
func writeManifests(set *components.ComponentSet, put func(name string, data []byte) error) error {
	data, err := set.GetPackageXML(sfmeta.DefaultManifestIndentation)
	if err != nil {
		return err
	}
	if err := put(sfmeta.ManifestFileName, data); err != nil {
		return err
	}
	for _, phase := range set.GetTypesOfDestructiveChanges() {
		data, err := set.GetPackageXML(sfmeta.DefaultManifestIndentation, phase)
		if err != nil {
			return err
		}
		if err := put(phase.FileName(), data); err != nil {
			return err
		}
	}
	return nil
}

// reresolve turns written files back into components, grouped by the
// package root they were written under.
func (cv *Converter) reresolve(written []writtenFile) ([]*components.SourceComponent, error) {
	var roots []string
	byRoot := make(map[string][]string)
	for _, f := range written {
		if _, ok := byRoot[f.root]; !ok {
			roots = append(roots, f.root)
		}
		byRoot[f.root] = append(byRoot[f.root], f.path)
	}

	resolver := resolve.NewMetadataResolver(cv.registry, cv.tree)
	var out []*components.SourceComponent
	for _, root := range roots {
		comps, err := resolver.ComponentsFromFiles(root, byRoot[root])
		if err != nil {
			return nil, err
		}
		out = append(out, comps...)
	}
	return out, nil
}
