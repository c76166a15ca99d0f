package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// MetadataResolver turns files in a tree into source components. It
// understands both source format and metadata API format layouts.
type MetadataResolver struct {
	registry    *registry.Registry
	tree        filesystem.TreeContainer
	forceIgnore *ForceIgnore
	ignored     []string
}

// ResolverOption configures a MetadataResolver.
type ResolverOption func(*MetadataResolver)

// WithForceIgnore skips paths the matcher denies.
func WithForceIgnore(fi *ForceIgnore) ResolverOption {
	return func(r *MetadataResolver) { r.forceIgnore = fi }
}

// NewMetadataResolver creates a resolver. A nil registry uses the default
// one and a nil tree reads the local filesystem.
func NewMetadataResolver(reg *registry.Registry, tree filesystem.TreeContainer, opts ...ResolverOption) *MetadataResolver {
	if reg == nil {
		reg = registry.Default()
	}
	if tree == nil {
		tree = filesystem.NewOSTree()
	}
	r := &MetadataResolver{registry: reg, tree: tree}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IgnoredPaths returns every path skipped because of .forceignore, in walk order.
func (r *MetadataResolver) IgnoredPaths() []string {
	return append([]string(nil), r.ignored...)
}

// ComponentsFromPath resolves every component at or below path. When
// include is non-nil only components it contains (directly or through a
// child) are returned.
func (r *MetadataResolver) ComponentsFromPath(path string, include *components.ComponentSet) ([]*components.SourceComponent, error) {
	path = filepath.Clean(path)
	if !r.tree.Exists(path) {
		return nil, fmt.Errorf("%w: path does not exist: %s", sfmeta.ErrInvalidConfig, path)
	}
	if r.forceIgnore.Denies(path) {
		r.ignored = append(r.ignored, path)
		return nil, nil
	}

	start := max(0, len(splitPath(path))-3)
	seen := make(map[componentID]bool)
	var out []*components.SourceComponent

	collect := func(file string) error {
		c, err := r.resolveFile(file, start)
		if err != nil || c == nil {
			return err
		}
		id := idOf(c)
		if seen[id] {
			return nil
		}
		seen[id] = true

		if include != nil {
			ok, err := included(include, c)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		out = append(out, c)
		return nil
	}

	if !r.tree.IsDirectory(path) {
		if err := collect(path); err != nil {
			return nil, err
		}
		return out, nil
	}

	skipDir := func(dir string) bool {
		if r.forceIgnore.Denies(dir) {
			r.ignored = append(r.ignored, dir)
			return true
		}
		return false
	}
	err := filesystem.Walk(r.tree, path, skipDir, func(file string) error {
		if r.forceIgnore.Denies(file) {
			r.ignored = append(r.ignored, file)
			return nil
		}
		return collect(file)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve components from %s: %w", path, err)
	}
	return out, nil
}

// ComponentsFromFiles resolves individual files that live below root,
// such as the output of a conversion. root anchors the search for type
// directories.
func (r *MetadataResolver) ComponentsFromFiles(root string, files []string) ([]*components.SourceComponent, error) {
	start := len(splitPath(strings.TrimSuffix(filepath.ToSlash(filepath.Clean(root)), "/")))
	seen := make(map[componentID]bool)
	var out []*components.SourceComponent
	for _, f := range files {
		if r.forceIgnore.Denies(f) {
			r.ignored = append(r.ignored, f)
			continue
		}
		c, err := r.resolveFile(filepath.Clean(f), start)
		if err != nil {
			return nil, err
		}
		if c == nil || seen[idOf(c)] {
			continue
		}
		seen[idOf(c)] = true
		out = append(out, c)
	}
	return out, nil
}

type componentID struct {
	typeName, fullName, xml, content string
}

func idOf(c *components.SourceComponent) componentID {
	return componentID{c.Type.Name, c.FullName, c.XML, c.Content}
}

func included(set *components.ComponentSet, c *components.SourceComponent) (bool, error) {
	if set.Has(c) {
		return true, nil
	}
	children, err := c.GetChildren()
	if err != nil {
		return false, err
	}
	for _, child := range children {
		if set.Has(child) {
			return true, nil
		}
	}
	return false, nil
}

// resolveFile maps one file to the component owning it, or nil when no
// registered type claims it. Directory-anchored types are searched from
// segment start onward.
func (r *MetadataResolver) resolveFile(path string, start int) (*components.SourceComponent, error) {
	parts := splitPath(path)

	for i := start; i < len(parts)-1; i++ {
		t, ok := r.registry.TypeByDirectory(parts[i])
		if !ok {
			continue
		}
		switch t.Strategies.Adapter {
		case registry.AdapterBundle:
			if i+2 < len(parts) {
				return r.bundleComponent(t, parts, i)
			}
		case registry.AdapterDigitalExperience:
			if i+3 < len(parts) {
				return r.experienceComponent(t, parts, i), nil
			}
		case registry.AdapterMixedContent:
			return r.mixedContentComponent(t, parts, i)
		}
	}

	base := parts[len(parts)-1]
	if name, suffix, ok := components.SplitMetaFileName(base); ok {
		if suffix == "" {
			return r.folderFromMetadataFormat(parts, name), nil
		}
		t, ok := r.registry.TypeBySuffix(suffix)
		if !ok {
			return nil, nil
		}
		return r.fromMetaFile(t, parts, name), nil
	}

	dot := strings.LastIndex(base, ".")
	if dot <= 0 {
		return nil, nil
	}
	name, suffix := base[:dot], base[dot+1:]
	t, ok := r.registry.TypeBySuffix(suffix)
	if !ok || t.Parent() != nil || !r.inTypeDirectory(t, parts) {
		return nil, nil
	}

	c := &components.SourceComponent{
		Type:     t,
		FullName: folderQualifiedName(t, parts, name),
		Tree:     r.tree,
	}
	if t.Strategies.Adapter == registry.AdapterMatchingContent {
		c.Content = path
		if meta := path + components.MetaFileSuffix; r.tree.Exists(meta) {
			c.XML = meta
		}
		return c, nil
	}
	c.XML = path
	return c, nil
}

func (r *MetadataResolver) bundleComponent(t *registry.MetadataType, parts []string, i int) (*components.SourceComponent, error) {
	dir := joinPath(parts[:i+2])
	name := parts[i+1]

	entries, err := r.tree.ReadDirectory(dir)
	if err != nil {
		return nil, err
	}
	xml := ""
	for _, entry := range entries {
		if strings.HasPrefix(entry, name+".") && strings.HasSuffix(entry, components.MetaFileSuffix) {
			xml = filepath.Join(dir, entry)
			break
		}
	}
	return &components.SourceComponent{Type: t, FullName: name, XML: xml, Content: dir, Tree: r.tree}, nil
}

// experienceComponent resolves <type dir>/<space>/<name>/... into the
// "space/name" bundle.
func (r *MetadataResolver) experienceComponent(t *registry.MetadataType, parts []string, i int) *components.SourceComponent {
	dir := joinPath(parts[:i+3])
	name := parts[i+2]
	c := &components.SourceComponent{
		Type:     t,
		FullName: parts[i+1] + "/" + name,
		Content:  dir,
		Tree:     r.tree,
	}
	if meta := filepath.Join(dir, name+"."+t.Suffix+components.MetaFileSuffix); r.tree.Exists(meta) {
		c.XML = meta
	}
	return c
}

// mixedContentComponent handles types whose content may be any file or a
// whole directory, e.g. static resources.
func (r *MetadataResolver) mixedContentComponent(t *registry.MetadataType, parts []string, i int) (*components.SourceComponent, error) {
	typeDir := joinPath(parts[:i+1])
	metaFor := func(name string) string {
		meta := filepath.Join(typeDir, name+"."+t.Suffix+components.MetaFileSuffix)
		if r.tree.Exists(meta) {
			return meta
		}
		return ""
	}

	if i+2 < len(parts) {
		name := parts[i+1]
		return &components.SourceComponent{
			Type:     t,
			FullName: name,
			XML:      metaFor(name),
			Content:  joinPath(parts[:i+2]),
			Tree:     r.tree,
		}, nil
	}

	base := parts[i+1]
	name, _, _ := strings.Cut(base, ".")
	if name == "" {
		return nil, nil
	}
	c := &components.SourceComponent{Type: t, FullName: name, XML: metaFor(name), Tree: r.tree}

	if dir := filepath.Join(typeDir, name); r.tree.IsDirectory(dir) {
		c.Content = dir
		return c, nil
	}
	entries, err := r.tree.ReadDirectory(typeDir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry, name+".") || strings.HasSuffix(entry, components.MetaFileSuffix) {
			continue
		}
		if p := filepath.Join(typeDir, entry); !r.tree.IsDirectory(p) {
			c.Content = p
			break
		}
	}
	return c, nil
}

func (r *MetadataResolver) fromMetaFile(t *registry.MetadataType, parts []string, name string) *components.SourceComponent {
	path := joinPath(parts)

	if parent := t.Parent(); parent != nil {
		if !parent.IsDecomposed() {
			return nil
		}
		return r.decomposedParent(parent, t, parts)
	}
	if t.StrictDirectoryName && parts[len(parts)-2] != t.DirectoryName {
		return nil
	}

	c := &components.SourceComponent{
		Type:     t,
		FullName: folderQualifiedName(t, parts, name),
		XML:      path,
		Tree:     r.tree,
	}
	switch {
	case t.IsDecomposed():
		if len(parts) >= 2 && parts[len(parts)-2] == name {
			c.Content = joinPath(parts[:len(parts)-1])
		}
	case t.Strategies.Adapter == registry.AdapterMatchingContent:
		if content := strings.TrimSuffix(path, components.MetaFileSuffix); r.tree.Exists(content) {
			c.Content = content
		}
	}
	return c
}

// decomposedParent resolves a child file to the parent component whose
// directory holds it. Children live either in a per-type subdirectory
// (objects/Account/fields/X.field-meta.xml) or directly in the parent
// directory (objectTranslations/Account-es/X.fieldTranslation-meta.xml).
func (r *MetadataResolver) decomposedParent(parent, child *registry.MetadataType, parts []string) *components.SourceComponent {
	d := len(parts) - 2
	if d < 1 {
		return nil
	}
	if parts[d] == child.DirectoryName && parts[d-1] != parent.DirectoryName {
		d--
	}
	parentName := parts[d]
	dir := joinPath(parts[:d+1])

	c := &components.SourceComponent{Type: parent, FullName: parentName, Content: dir, Tree: r.tree}
	if xml := filepath.Join(dir, parentName+"."+parent.Suffix+components.MetaFileSuffix); r.tree.Exists(xml) {
		c.XML = xml
	}
	return c
}

// folderFromMetadataFormat resolves "Name-meta.xml" files, the metadata API
// format for folders, e.g. email/Marketing-meta.xml.
func (r *MetadataResolver) folderFromMetadataFormat(parts []string, name string) *components.SourceComponent {
	for d := len(parts) - 2; d >= 0; d-- {
		content, ok := r.registry.TypeByDirectory(parts[d])
		if !ok || !content.InFolder {
			continue
		}
		folderType, ok := r.registry.FolderType(content)
		if !ok {
			return nil
		}
		segments := append(append([]string(nil), parts[d+1:len(parts)-1]...), name)
		return &components.SourceComponent{
			Type:     folderType,
			FullName: strings.Join(segments, "/"),
			XML:      joinPath(parts),
			Tree:     r.tree,
		}
	}
	return nil
}

func (r *MetadataResolver) inTypeDirectory(t *registry.MetadataType, parts []string) bool {
	for _, p := range parts[:len(parts)-1] {
		if p == t.DirectoryName {
			return true
		}
	}
	return false
}

// folderQualifiedName prefixes name with its folder path for in-folder and
// folder types: email/Marketing/Welcome.email becomes Marketing/Welcome.
func folderQualifiedName(t *registry.MetadataType, parts []string, name string) string {
	if !t.InFolder && !t.IsFolderType() {
		return name
	}
	for d := len(parts) - 2; d >= 0; d-- {
		if parts[d] == t.DirectoryName {
			segments := append(append([]string(nil), parts[d+1:len(parts)-1]...), name)
			return strings.Join(segments, "/")
		}
	}
	return name
}

func splitPath(path string) []string {
	return strings.Split(filepath.ToSlash(path), "/")
}

func joinPath(parts []string) string {
	return filepath.FromSlash(strings.Join(parts, "/"))
}
