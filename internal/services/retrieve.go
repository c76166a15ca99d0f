package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/convert"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/resolve"
	"github.com/vvka-141/sfmeta/internal/transfer"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// DefaultZipFileName names a retrieved zip written without unpacking.
const DefaultZipFileName = "unpackaged.zip"

// RetrieveOptions describes what to retrieve and where it goes.
type RetrieveOptions struct {
	// Components lists what to retrieve. With Merge, its source components
	// are also the merge targets for the retrieved files.
	Components   *components.ComponentSet
	PackageNames []string

	// Output is the output directory, and for a merge the default
	// directory for components with no local copy.
	Output string
	Format convert.TargetFormat

	Merge bool
	Diff  bool

	// SkipUniqueDir writes source output straight into Output.
	SkipUniqueDir bool

	// Unzip extracts metadata format output instead of writing ZipFileName.
	Unzip       bool
	ZipFileName string
}

// MetadataAPIRetrieve retrieves components through the metadata API and
// writes them locally.
type MetadataAPIRetrieve struct {
	*transfer.Transfer[sfmeta.RetrieveStatus, *RetrieveResult]
}

// NewMetadataAPIRetrieve prepares a retrieve over conn. Nothing is sent
// until Start.
func NewMetadataAPIRetrieve(conn *Connection, opts RetrieveOptions, options ...Option) *MetadataAPIRetrieve {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if opts.Format == "" {
		opts.Format = convert.FormatSource
	}
	d := newDeps(options)
	op := &retrieveOperation{conn: conn, opts: opts, deps: d}
	return &MetadataAPIRetrieve{Transfer: transfer.New(op, d.transferOptions()...)}
}

type retrieveOperation struct {
	conn *Connection
	opts RetrieveOptions
	deps *deps
}

func (o *retrieveOperation) Pre(ctx context.Context) (sfmeta.AsyncResult, error) {
	set := o.opts.Components
	if set != nil {
		set = set.View()
		set.ForRetrieve = true
		set.AddVersionSources(versionSources(ctx, o.deps.settings, o.conn)...)
	}
	if v := transferVersion(set, o.deps.settings); v != "" {
		o.conn.SetAPIVersion(v)
	}
	svc := o.conn.Capped(ctx)

	req := sfmeta.RetrieveRequest{
		APIVersion:    svc.APIVersion(),
		PackageNames:  o.opts.PackageNames,
		SinglePackage: len(o.opts.PackageNames) == 0,
	}
	if set != nil && set.Size() > 0 {
		pkg, err := set.GetObject()
		if err != nil {
			return sfmeta.AsyncResult{}, err
		}
		req.Unpackaged = &pkg
	}
	if req.Unpackaged == nil && len(req.PackageNames) == 0 {
		return sfmeta.AsyncResult{}, fmt.Errorf("%w: a retrieve needs components or package names", sfmeta.ErrMissingComponents)
	}
	return svc.Retrieve(ctx, req)
}

func (o *retrieveOperation) CheckStatus(ctx context.Context, id string) (sfmeta.RetrieveStatus, error) {
	return o.conn.Capped(ctx).CheckRetrieveStatus(ctx, id, true)
}

// Cancel does nothing remotely; the next poll reports the retrieve canceled.
func (o *retrieveOperation) Cancel(context.Context, string) error { return nil }

func (o *retrieveOperation) CanceledStatus(id string) (sfmeta.RetrieveStatus, bool) {
	return sfmeta.RetrieveStatus{ID: id, Status: sfmeta.StatusCanceled, Done: true}, true
}

func (o *retrieveOperation) Post(ctx context.Context, status sfmeta.RetrieveStatus) (*RetrieveResult, error) {
	if status.IsCanceled() || status.ZipFile == "" {
		return NewRetrieveResult(status, nil, nil), nil
	}

	data, err := base64.StdEncoding.DecodeString(status.ZipFile)
	if err != nil {
		return nil, fmt.Errorf("failed to decode retrieve payload: %w", err)
	}

	if o.opts.Format == convert.FormatMetadata && !o.opts.Unzip {
		return o.writeZip(status, data)
	}

	retrieved, err := o.resolveZip(data)
	if err != nil {
		return nil, err
	}

	out, err := o.deps.converter.Convert(ctx, retrieved, o.opts.Format, o.outputConfig())
	if err != nil {
		return nil, err
	}

	local := components.New(retrieved.Registry())
	for _, c := range out.Converted {
		local.Add(c)
	}
	return NewRetrieveResult(status, local, out), nil
}

func (o *retrieveOperation) writeZip(status sfmeta.RetrieveStatus, data []byte) (*RetrieveResult, error) {
	name := o.opts.ZipFileName
	if name == "" {
		name = DefaultZipFileName
	}
	if err := o.deps.tree.MkdirAll(o.opts.Output); err != nil {
		return nil, err
	}
	path := filepath.Join(o.opts.Output, name)
	if err := o.deps.tree.WriteFile(path, data); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	o.deps.logger.Info("Wrote retrieved metadata to %s", path)
	return NewRetrieveResult(status, nil, nil), nil
}

func (o *retrieveOperation) resolveZip(data []byte) (*components.ComponentSet, error) {
	tree, err := filesystem.NewZipTree(data)
	if err != nil {
		return nil, err
	}
	reg := registry.Default()
	if o.opts.Components != nil && o.opts.Components.Registry() != nil {
		reg = o.opts.Components.Registry()
	}
	found, err := resolve.NewMetadataResolver(reg, tree).ComponentsFromPath(".", nil)
	if err != nil {
		return nil, err
	}
	set := components.New(reg)
	for _, c := range found {
		set.Add(c)
	}
	return set, nil
}

func (o *retrieveOperation) outputConfig() convert.OutputConfig {
	if o.opts.Merge && o.opts.Format == convert.FormatSource {
		var existing []*components.SourceComponent
		if o.opts.Components != nil {
			for c := range o.opts.Components.GetSourceComponents() {
				existing = append(existing, c)
			}
		}
		return convert.OutputConfig{
			Type:             convert.OutputMerge,
			MergeWith:        existing,
			DefaultDirectory: o.opts.Output,
			Diff:             o.opts.Diff,
		}
	}
	return convert.OutputConfig{
		Type:            convert.OutputDirectory,
		OutputDirectory: o.opts.Output,
		SkipUniqueDir:   o.opts.SkipUniqueDir,
	}
}

func (o *retrieveOperation) ComponentCount() int {
	if o.opts.Components == nil {
		return 0
	}
	return o.opts.Components.Size()
}
