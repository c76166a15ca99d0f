package components

import (
	"context"
	"iter"
	"slices"
	"sort"
	"strings"

	"github.com/vvka-141/sfmeta/internal/lazy"
	"github.com/vvka-141/sfmeta/internal/manifest"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// entry holds everything stored under one type#fullName key. A key with no
// stored source components is a bare reference and still counts as one member.
type entry struct {
	ref   ComponentLike
	items *orderedMap[structuralKey, *SourceComponent]
}

func newEntry(ref ComponentLike) *entry {
	return &entry{ref: ref, items: newOrderedMap[structuralKey, *SourceComponent]()}
}

type componentMap = orderedMap[Key, *entry]

// BotVersionFilter limits which bot versions a retrieve or deploy includes.
type BotVersionFilter struct {
	BotName string
	// VersionFilter is "all", "highest" or a specific version number.
	VersionFilter string
}

// ComponentSet is a deduplicating collection of components. It is the unit
// of work for conversions, deploys and retrieves.
//
// A ComponentSet is not safe for concurrent mutation. Readers may share it
// once construction is complete.
type ComponentSet struct {
	// APIVersion is the version used for transfers.
	APIVersion string
	// SourceAPIVersion is the version written to manifests.
	SourceAPIVersion string
	// FullName is the package name written to manifests.
	FullName string
	// ForceIgnoredPaths lists files skipped by .forceignore while resolving.
	ForceIgnoredPaths []string
	// BotVersionFilters is carried through to bot resolution.
	BotVersionFilters []BotVersionFilter
	// ForRetrieve keeps parents without real values in manifests.
	ForRetrieve bool

	versionSources     []VersionSource
	registry           *registry.Registry
	components         *componentMap
	manifestComponents *componentMap
	destructive        map[sfmeta.DestructiveChangesType]*componentMap
	aiAuthoringBundles *orderedMap[structuralKey, *SourceComponent]
}

// New returns a set backed by reg, or the default registry when reg is nil,
// holding the given components.
func New(reg *registry.Registry, cs ...ComponentLike) *ComponentSet {
	if reg == nil {
		reg = registry.Default()
	}
	set := &ComponentSet{
		registry:           reg,
		components:         newOrderedMap[Key, *entry](),
		manifestComponents: newOrderedMap[Key, *entry](),
		destructive:        make(map[sfmeta.DestructiveChangesType]*componentMap),
		aiAuthoringBundles: newOrderedMap[structuralKey, *SourceComponent](),
	}
	for _, c := range cs {
		set.Add(c)
	}
	return set
}

// Registry returns the type registry the set resolves names with.
func (s *ComponentSet) Registry() *registry.Registry { return s.registry }

func ensure(m *componentMap, key Key, ref ComponentLike) *entry {
	e, ok := m.get(key)
	if !ok {
		e = newEntry(ref)
		m.set(key, e)
	}
	return e
}

// Add inserts a component. With a destructive phase the component is also
// recorded as a deletion for that phase; otherwise it is part of the
// constructive manifest. Adding an identical component twice is a no-op.
func (s *ComponentSet) Add(c ComponentLike, phase ...sfmeta.DestructiveChangesType) {
	var deletion sfmeta.DestructiveChangesType
	if len(phase) > 0 {
		deletion = phase[0]
	}

	key := KeyOf(c)
	typ := resolvedType(c)
	if typ == nil {
		if t, err := s.registry.TypeByName(c.TypeName()); err == nil && deletion != "" {
			typ = t
		}
	}

	sc, isSource := c.(*SourceComponent)
	if !isSource && deletion != "" && typ != nil {
		// a deletion needs a component that can carry the phase mark
		sc = NewSourceComponent(typ, c.ComponentName())
		isSource = true
	}

	e := ensure(s.components, key, c)

	if deletion == "" {
		me := ensure(s.manifestComponents, key, c)
		if typ != nil && !isSource {
			synthetic := NewSourceComponent(typ, c.ComponentName())
			if !me.items.has(synthetic.structuralKey()) {
				me.items.set(synthetic.structuralKey(), synthetic)
			}
		}
	}

	if !isSource {
		if deletion != "" {
			ensure(s.destructiveMap(deletion), key, c)
		}
		return
	}

	sk := sc.structuralKey()
	if existing, ok := e.items.get(sk); ok {
		sc = existing
	} else {
		e.items.set(sk, sc)
	}

	if strings.EqualFold(sc.Type.Name, "AiAuthoringBundle") && !s.aiAuthoringBundles.has(sk) {
		s.aiAuthoringBundles.set(sk, sc)
	}

	if deletion != "" {
		sc.SetMarkedForDelete(deletion)
		de := ensure(s.destructiveMap(deletion), key, sc)
		if !de.items.has(sk) {
			de.items.set(sk, sc)
		}
		return
	}

	me := ensure(s.manifestComponents, key, sc)
	if !me.items.has(sk) {
		me.items.set(sk, sc)
	}
}

func (s *ComponentSet) destructiveMap(phase sfmeta.DestructiveChangesType) *componentMap {
	m, ok := s.destructive[phase]
	if !ok {
		m = newOrderedMap[Key, *entry]()
		s.destructive[phase] = m
	}
	return m
}

// Has reports whether c is in the set, directly or through a wildcard.
// A child is also present when its parent, a wildcard of its parent's type,
// or a partial wildcard "Parent.*" of its own type is present.
func (s *ComponentSet) Has(c ComponentLike) bool {
	key := KeyOf(c)
	if s.components.has(key) {
		return true
	}
	if s.components.has(Key{Type: key.Type, FullName: sfmeta.Wildcard}) {
		return true
	}

	parentType, parentName, ok := parentOf(c)
	if !ok {
		return false
	}
	if s.components.has(NewKey(parentType, parentName)) {
		return true
	}
	if s.components.has(NewKey(parentType, sfmeta.Wildcard)) {
		return true
	}
	return s.components.has(Key{Type: key.Type, FullName: parentName + "." + sfmeta.Wildcard})
}

// Size counts members. A bare reference with no stored components counts once.
func (s *ComponentSet) Size() int {
	size := 0
	s.components.each(func(_ Key, e *entry) bool {
		size += max(1, e.items.len())
		return true
	})
	return size
}

// Seq iterates the set lazily: each stored source component, or the bare
// reference for keys that have none.
func (s *ComponentSet) Seq() iter.Seq[ComponentLike] {
	return seqOf(s.components)
}

func seqOf(m *componentMap) iter.Seq[ComponentLike] {
	return func(yield func(ComponentLike) bool) {
		m.each(func(_ Key, e *entry) bool {
			if e.items.len() == 0 {
				return yield(e.ref)
			}
			cont := true
			e.items.each(func(_ structuralKey, sc *SourceComponent) bool {
				cont = yield(sc)
				return cont
			})
			return cont
		})
	}
}

// ToArray materializes Seq.
func (s *ComponentSet) ToArray() []ComponentLike {
	var out []ComponentLike
	for c := range s.Seq() {
		out = append(out, c)
	}
	return out
}

// GetSourceComponents iterates stored source components. With a phase it
// iterates only the deletions of that phase.
func (s *ComponentSet) GetSourceComponents(phase ...sfmeta.DestructiveChangesType) iter.Seq[*SourceComponent] {
	m := s.components
	if len(phase) > 0 && phase[0] != "" {
		dm, ok := s.destructive[phase[0]]
		if !ok {
			return func(func(*SourceComponent) bool) {}
		}
		m = dm
	}
	return func(yield func(*SourceComponent) bool) {
		m.each(func(_ Key, e *entry) bool {
			cont := true
			e.items.each(func(_ structuralKey, sc *SourceComponent) bool {
				cont = yield(sc)
				return cont
			})
			return cont
		})
	}
}

// DeletedComponents returns every component marked for delete, in any phase.
func (s *ComponentSet) DeletedComponents() []*SourceComponent {
	var out []*SourceComponent
	for sc := range s.GetSourceComponents() {
		if sc.IsMarkedForDelete() {
			out = append(out, sc)
		}
	}
	return out
}

// HasDeletes reports whether any destructive changes are recorded.
func (s *ComponentSet) HasDeletes() bool {
	for _, m := range s.destructive {
		if m.len() > 0 {
			return true
		}
	}
	return false
}

// GetTypesOfDestructiveChanges returns the phases with recorded deletions,
// pre before post.
func (s *ComponentSet) GetTypesOfDestructiveChanges() []sfmeta.DestructiveChangesType {
	var out []sfmeta.DestructiveChangesType
	for _, phase := range []sfmeta.DestructiveChangesType{sfmeta.DestructivePre, sfmeta.DestructivePost} {
		if m, ok := s.destructive[phase]; ok && m.len() > 0 {
			out = append(out, phase)
		}
	}
	return out
}

// GetAiAuthoringBundles returns AiAuthoringBundle components in insertion order.
func (s *ComponentSet) GetAiAuthoringBundles() []*SourceComponent {
	var out []*SourceComponent
	s.aiAuthoringBundles.each(func(_ structuralKey, sc *SourceComponent) bool {
		out = append(out, sc)
		return true
	})
	return out
}

// VersionSource supplies a fallback API version. Errors and empty results
// fall through to the next source.
type VersionSource func(ctx context.Context) (string, error)

// StaticVersion reports v. An empty v falls through.
func StaticVersion(v string) VersionSource {
	return func(context.Context) (string, error) { return v, nil }
}

// AddVersionSources appends fallbacks consulted after SourceAPIVersion and
// APIVersion, in order.
func (s *ComponentSet) AddVersionSources(sources ...VersionSource) {
	s.versionSources = append(s.versionSources, sources...)
}

// View returns a shallow copy that shares the stored components with s.
// Metadata fields and version sources set on the view do not reach s, so a
// transfer can adjust them without touching the caller's set. The view must
// not be used to add or remove components.
func (s *ComponentSet) View() *ComponentSet {
	v := *s
	v.versionSources = slices.Clone(s.versionSources)
	return &v
}

// ResolveAPIVersion returns SourceAPIVersion, then APIVersion, then the first
// non-empty result of the set's version sources followed by fallbacks, then
// sfmeta.DefaultAPIVersion.
func (s *ComponentSet) ResolveAPIVersion(ctx context.Context, fallbacks ...VersionSource) string {
	if s.SourceAPIVersion != "" {
		return s.SourceAPIVersion
	}
	if s.APIVersion != "" {
		return s.APIVersion
	}
	for _, source := range slices.Concat(s.versionSources, fallbacks) {
		if source == nil {
			continue
		}
		if v, err := source(ctx); err == nil && v != "" {
			return v
		}
	}
	return sfmeta.DefaultAPIVersion
}

// GetPackageXML renders the manifest for the constructive set, or for one
// destructive phase.
func (s *ComponentSet) GetPackageXML(indent string, phase ...sfmeta.DestructiveChangesType) ([]byte, error) {
	pkg, err := s.GetObject(phase...)
	if err != nil {
		return nil, err
	}
	return manifest.Encode(pkg, indent), nil
}

// GetObject builds the manifest object for the constructive set, or for one
// destructive phase. Types and members are sorted.
func (s *ComponentSet) GetObject(phase ...sfmeta.DestructiveChangesType) (sfmeta.Package, error) {
	var deletion sfmeta.DestructiveChangesType
	if len(phase) > 0 {
		deletion = phase[0]
	}

	source := s.components
	if s.HasDeletes() {
		if deletion != "" {
			source = s.destructive[deletion]
			if source == nil {
				source = newOrderedMap[Key, *entry]()
			}
		} else {
			source = s.manifestComponents
		}
	}

	return s.objectFrom(source)
}

func (s *ComponentSet) objectFrom(source *componentMap) (sfmeta.Package, error) {
	tm := newTypeMap()
	var walkErr error
	source.each(func(_ Key, e *entry) bool {
		if e.items.len() == 0 {
			s.addRef(tm, e.ref)
			return true
		}
		e.items.each(func(_ structuralKey, sc *SourceComponent) bool {
			if err := s.addSourceComponent(tm, sc); err != nil {
				walkErr = err
				return false
			}
			return true
		})
		return walkErr == nil
	})
	if walkErr != nil {
		return sfmeta.Package{}, walkErr
	}

	version := s.ResolveAPIVersion(context.Background())
	return sfmeta.Package{FullName: s.FullName, Types: tm.sorted(), Version: version}, nil
}

// addRef adds a bare reference whose type may only be a name.
func (s *ComponentSet) addRef(tm *typeMap, ref ComponentLike) {
	if t := resolvedType(ref); t != nil {
		s.addToTypeMap(tm, t, ref.ComponentName())
		return
	}
	if t, err := s.registry.TypeByName(ref.TypeName()); err == nil {
		s.addToTypeMap(tm, t, ref.ComponentName())
		return
	}
	tm.add(ref.TypeName(), ref.ComponentName(), false)
}

func (s *ComponentSet) addSourceComponent(tm *typeMap, sc *SourceComponent) error {
	children, err := sc.GetChildren()
	if err != nil {
		return err
	}
	for _, child := range children {
		s.addToTypeMap(tm, child.Type, child.FullName)
	}

	skip, err := s.skipEmptyParent(sc)
	if err != nil {
		return err
	}
	if !skip {
		s.addToTypeMap(tm, sc.Type, sc.FullName)
	}
	return nil
}

// skipEmptyParent reports whether a decomposed parent should be left out of
// a deploy manifest: its own XML holds nothing but child elements, so it only
// exists to contain its addressable children.
func (s *ComponentSet) skipEmptyParent(sc *SourceComponent) (bool, error) {
	if s.ForRetrieve || sc.Type.Strategies.Transformer != registry.TransformerDecomposed || sc.XML == "" {
		return false, nil
	}
	addressableChildren := false
	for _, ct := range sc.Type.ChildTypes() {
		if ct.Addressable() {
			addressableChildren = true
			break
		}
	}
	if !addressableChildren {
		return false, nil
	}
	hasValues, err := sc.HasRealValues()
	if err != nil {
		return false, err
	}
	return !hasValues, nil
}

func (s *ComponentSet) addToTypeMap(tm *typeMap, t *registry.MetadataType, fullName string) {
	if !t.Addressable() {
		return
	}

	listed := s.registry.FolderContentType(t)
	if t.ManifestTrailingSlash && !strings.HasSuffix(fullName, "/") {
		fullName += "/"
	}
	if parent := t.Parent(); parent != nil && parent.Strategies.Recomposition == registry.RecompositionStartEmpty {
		fullName = strings.TrimPrefix(fullName, parent.Name+".")
	}

	tm.add(listed.Name, fullName, listed.SupportsWildcardAndName)
}

// typeMap accumulates manifest members per type name.
type typeMap struct {
	members map[string]map[string]bool
}

func newTypeMap() *typeMap {
	return &typeMap{members: make(map[string]map[string]bool)}
}

// add records a member. A wildcard replaces named members of types that do
// not support mixing; names are not added next to such a wildcard.
func (tm *typeMap) add(typeName, fullName string, supportsWildcardAndName bool) {
	set, ok := tm.members[typeName]
	if !ok {
		set = make(map[string]bool)
		tm.members[typeName] = set
	}

	if supportsWildcardAndName {
		set[fullName] = true
		return
	}
	if fullName == sfmeta.Wildcard {
		tm.members[typeName] = map[string]bool{sfmeta.Wildcard: true}
		return
	}
	if set[sfmeta.Wildcard] {
		return
	}
	set[fullName] = true
}

func (tm *typeMap) sorted() []sfmeta.PackageTypeMembers {
	names := make([]string, 0, len(tm.members))
	for name := range tm.members {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]sfmeta.PackageTypeMembers, 0, len(names))
	for _, name := range names {
		members := make([]string, 0, len(tm.members[name]))
		for m := range tm.members[name] {
			members = append(members, m)
		}
		sort.Strings(members)
		out = append(out, sfmeta.PackageTypeMembers{Name: name, Members: members})
	}
	return out
}

// Filter returns a lazy view of the components matching keep.
func (s *ComponentSet) Filter(keep func(ComponentLike) bool) iter.Seq[ComponentLike] {
	return lazy.Filter(s.Seq(), keep)
}
