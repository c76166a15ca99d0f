package resolve

import (
	"fmt"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// SourceOptions configures FromSource.
type SourceOptions struct {
	// Paths are files or directories to resolve.
	Paths []string

	// ProjectDir holds the .forceignore file. Empty disables ignore rules
	// unless ForceIgnore is set.
	ProjectDir  string
	ForceIgnore *ForceIgnore

	// Include restricts results to components present in this set.
	Include *components.ComponentSet

	// DestructivePre and DestructivePost mark resolved components as deletions.
	DestructivePre  *components.ComponentSet
	DestructivePost *components.ComponentSet

	Registry *registry.Registry
	Tree     filesystem.TreeContainer
}

// FromSource builds a component set from files on disk.
func FromSource(opts SourceOptions) (*components.ComponentSet, error) {
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("%w: at least one source path is required", sfmeta.ErrInvalidConfig)
	}

	tree := opts.Tree
	if tree == nil {
		tree = filesystem.NewOSTree()
	}
	fi := opts.ForceIgnore
	if fi == nil && opts.ProjectDir != "" {
		var err error
		if fi, err = LoadForceIgnore(tree, opts.ProjectDir); err != nil {
			return nil, err
		}
	}

	resolver := NewMetadataResolver(opts.Registry, tree, WithForceIgnore(fi))
	set := components.New(opts.Registry)

	for _, path := range opts.Paths {
		found, err := resolver.ComponentsFromPath(path, opts.Include)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			set.Add(c)
		}
	}

	deletions := []struct {
		phase sfmeta.DestructiveChangesType
		marks *components.ComponentSet
	}{
		{sfmeta.DestructivePre, opts.DestructivePre},
		{sfmeta.DestructivePost, opts.DestructivePost},
	}
	for _, d := range deletions {
		if d.marks == nil {
			continue
		}
		for _, path := range opts.Paths {
			found, err := resolver.ComponentsFromPath(path, d.marks)
			if err != nil {
				return nil, err
			}
			for _, c := range found {
				set.Add(c, d.phase)
			}
		}
	}

	set.ForceIgnoredPaths = resolver.IgnoredPaths()
	return set, nil
}

// ManifestOptions configures FromManifest.
type ManifestOptions struct {
	ManifestPath string

	// DestructivePre and DestructivePost are optional destructive manifests.
	DestructivePre  string
	DestructivePost string

	// ResolveSourcePaths, when set, replaces manifest entries with the
	// matching source components found under these paths.
	ResolveSourcePaths []string

	// ForceAddWildcards keeps wildcard members in the set even when source
	// paths are resolved. Retrieves need them to ask for every member.
	ForceAddWildcards bool

	ProjectDir string
	Registry   *registry.Registry
	Tree       filesystem.TreeContainer
}

// FromManifest builds a component set from a package.xml and optional
// destructive manifests.
func FromManifest(opts ManifestOptions) (*components.ComponentSet, error) {
	if opts.ManifestPath == "" {
		return nil, fmt.Errorf("%w: manifest path is required", sfmeta.ErrInvalidConfig)
	}

	mr := NewManifestResolver(opts.Registry, opts.Tree)
	res, err := mr.Resolve(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	include := components.New(opts.Registry)
	for _, c := range res.Components {
		include.Add(c)
	}

	destructive := make(map[sfmeta.DestructiveChangesType]*ManifestResolution)
	for phase, path := range map[sfmeta.DestructiveChangesType]string{
		sfmeta.DestructivePre:  opts.DestructivePre,
		sfmeta.DestructivePost: opts.DestructivePost,
	} {
		if path == "" {
			continue
		}
		d, err := mr.Resolve(path)
		if err != nil {
			return nil, err
		}
		destructive[phase] = d
	}

	var set *components.ComponentSet
	if len(opts.ResolveSourcePaths) == 0 {
		set = include
	} else {
		set, err = FromSource(SourceOptions{
			Paths:      opts.ResolveSourcePaths,
			ProjectDir: opts.ProjectDir,
			Include:    include,
			Registry:   opts.Registry,
			Tree:       opts.Tree,
		})
		if err != nil {
			return nil, err
		}
		if opts.ForceAddWildcards {
			for _, c := range res.Components {
				if c.FullName == sfmeta.Wildcard {
					set.Add(c)
				}
			}
		}
	}

	for _, phase := range []sfmeta.DestructiveChangesType{sfmeta.DestructivePre, sfmeta.DestructivePost} {
		d, ok := destructive[phase]
		if !ok {
			continue
		}
		for _, c := range d.Components {
			set.Add(c, phase)
		}
	}

	set.FullName = res.FullName
	set.APIVersion = res.APIVersion
	return set, nil
}
