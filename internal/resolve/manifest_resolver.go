package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/manifest"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// ManifestResolution is the content of one manifest file.
type ManifestResolution struct {
	FullName   string
	APIVersion string
	Components []components.MetadataComponent
}

// ManifestResolver reads package.xml style files into typed components.
type ManifestResolver struct {
	registry *registry.Registry
	tree     filesystem.TreeContainer
}

// NewManifestResolver creates a resolver. Nil arguments select the default
// registry and the local filesystem.
func NewManifestResolver(reg *registry.Registry, tree filesystem.TreeContainer) *ManifestResolver {
	if reg == nil {
		reg = registry.Default()
	}
	if tree == nil {
		tree = filesystem.NewOSTree()
	}
	return &ManifestResolver{registry: reg, tree: tree}
}

// Resolve parses and validates the manifest at path.
func (r *ManifestResolver) Resolve(path string) (*ManifestResolution, error) {
	data, err := r.tree.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	pkg, err := manifest.Decode(data, path)
	if err != nil {
		return nil, err
	}

	known := func(name string) bool {
		_, err := r.registry.TypeByName(name)
		return err == nil
	}
	if result := manifest.Validate(pkg, known); !result.Valid {
		return nil, result.Err(path)
	}

	res := &ManifestResolution{FullName: pkg.FullName, APIVersion: pkg.Version}
	for _, block := range pkg.Types {
		t, err := r.registry.TypeByName(block.Name)
		if err != nil {
			return nil, err
		}
		for _, member := range block.Members {
			res.Components = append(res.Components, r.component(t, strings.TrimSpace(member)))
		}
	}
	return res, nil
}

// ResolveDestructive reads the destructiveChangesPre.xml and
// destructiveChangesPost.xml files next to the manifest at path, when present.
func (r *ManifestResolver) ResolveDestructive(path string) (map[sfmeta.DestructiveChangesType]*ManifestResolution, error) {
	dir := filepath.Dir(path)
	out := make(map[sfmeta.DestructiveChangesType]*ManifestResolution)
	for _, phase := range []sfmeta.DestructiveChangesType{sfmeta.DestructivePre, sfmeta.DestructivePost} {
		p := filepath.Join(dir, phase.FileName())
		if !r.tree.Exists(p) {
			continue
		}
		res, err := r.Resolve(p)
		if err != nil {
			return nil, err
		}
		out[phase] = res
	}
	return out, nil
}

// component builds the typed reference for one member. Members of in-folder
// types without a "/" name the folder itself; dotted members of child types
// carry their parent.
func (r *ManifestResolver) component(t *registry.MetadataType, member string) components.MetadataComponent {
	if t.InFolder && member != sfmeta.Wildcard && !strings.Contains(member, "/") {
		if folder, ok := r.registry.FolderType(t); ok {
			return components.MetadataComponent{Type: folder, FullName: member}
		}
	}

	c := components.MetadataComponent{Type: t, FullName: member}
	if parent := t.Parent(); parent != nil {
		if parentName, _, ok := strings.Cut(member, "."); ok && parentName != sfmeta.Wildcard {
			c.Parent = &components.MetadataComponent{Type: parent, FullName: parentName}
		}
	}
	return c
}
