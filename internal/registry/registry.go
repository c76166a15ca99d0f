package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

//go:embed types.yaml
var defaultTypes []byte

// TypeNotFoundError is returned when a type name is not registered.
type TypeNotFoundError struct {
	TypeName string
}

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("missing metadata type definition in registry for id '%s'", e.TypeName)
}

func (e *TypeNotFoundError) Unwrap() error { return sfmeta.ErrUnknownType }

// Name identifies the error kind for callers that pass descriptive errors through.
func (e *TypeNotFoundError) Name() string { return "RegistryError" }

// Actions lists remediation steps.
func (e *TypeNotFoundError) Actions() []string {
	return []string{fmt.Sprintf("Check the spelling of %q or add it to the type registry.", e.TypeName)}
}

type document struct {
	Types map[string]*MetadataType `yaml:"types"`
}

// Registry resolves metadata types by name, suffix and directory.
// A Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	types       map[string]*MetadataType
	suffixes    map[string]string
	directories map[string]string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from the embedded type definitions.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := New(defaultTypes)
		if err != nil {
			panic(fmt.Sprintf("embedded types.yaml is invalid: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// New builds a registry from YAML type definitions.
func New(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse type registry: %w", err)
	}
	if len(doc.Types) == 0 {
		return nil, errors.New("type registry defines no types")
	}

	r := &Registry{
		types:       make(map[string]*MetadataType),
		suffixes:    make(map[string]string),
		directories: make(map[string]string),
	}

	ids := make([]string, 0, len(doc.Types))
	for id := range doc.Types {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		t := doc.Types[id]
		if err := r.register(id, t, nil); err != nil {
			return nil, err
		}
	}

	for _, id := range ids {
		t := r.types[id]
		if t.FolderType != "" {
			if _, ok := r.types[t.FolderType]; !ok {
				return nil, fmt.Errorf("type %s references unknown folder type %s", t.Name, t.FolderType)
			}
		}
		if t.FolderContentType != "" {
			if _, ok := r.types[t.FolderContentType]; !ok {
				return nil, fmt.Errorf("type %s references unknown folder content type %s", t.Name, t.FolderContentType)
			}
			continue
		}
		if _, taken := r.directories[t.DirectoryName]; !taken {
			r.directories[t.DirectoryName] = id
		}
	}

	return r, nil
}

func (r *Registry) register(id string, t *MetadataType, parent *MetadataType) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("type %q has no name", id)
	}
	if strings.ToLower(t.Name) != id {
		return fmt.Errorf("type id %q does not match name %q", id, t.Name)
	}
	if _, dup := r.types[id]; dup {
		return fmt.Errorf("duplicate type id %q", id)
	}

	t.ID = id
	t.parent = parent
	r.types[id] = t

	if t.Suffix != "" && !t.IsBundle() {
		if other, dup := r.suffixes[t.Suffix]; dup {
			return fmt.Errorf("suffix %q is used by both %s and %s", t.Suffix, other, id)
		}
		r.suffixes[t.Suffix] = id
	}

	if t.Children == nil {
		return nil
	}
	t.Children.Suffixes = make(map[string]string)
	t.Children.Directories = make(map[string]string)

	childIDs := make([]string, 0, len(t.Children.Types))
	for cid := range t.Children.Types {
		childIDs = append(childIDs, cid)
	}
	sort.Strings(childIDs)

	for _, cid := range childIDs {
		child := t.Children.Types[cid]
		if err := r.register(cid, child, t); err != nil {
			return err
		}
		if child.Suffix != "" {
			t.Children.Suffixes[child.Suffix] = cid
			t.Children.Directories[child.DirectoryName] = cid
		}
	}
	return nil
}

// TypeByName returns the type registered under name, ignoring case.
func (r *Registry) TypeByName(name string) (*MetadataType, error) {
	t, ok := r.types[strings.ToLower(name)]
	if !ok {
		return nil, &TypeNotFoundError{TypeName: name}
	}
	return t, nil
}

// ParentType returns the parent of a child type, or nil for top-level types.
func (r *Registry) ParentType(name string) (*MetadataType, error) {
	t, err := r.TypeByName(name)
	if err != nil {
		return nil, err
	}
	return t.parent, nil
}

// TypeBySuffix returns the type owning a file suffix.
func (r *Registry) TypeBySuffix(suffix string) (*MetadataType, bool) {
	id, ok := r.suffixes[suffix]
	if !ok {
		return nil, false
	}
	return r.types[id], true
}

// TypeByDirectory returns the top-level, non-folder type stored under a
// directory name.
func (r *Registry) TypeByDirectory(dir string) (*MetadataType, bool) {
	id, ok := r.directories[dir]
	if !ok {
		return nil, false
	}
	return r.types[id], true
}

// Types returns every top-level type sorted by id.
func (r *Registry) Types() []*MetadataType {
	out := make([]*MetadataType, 0, len(r.types))
	for _, t := range r.types {
		if t.parent == nil {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FolderContentType returns the type a folder type holds, or t itself.
func (r *Registry) FolderContentType(t *MetadataType) *MetadataType {
	if t.FolderContentType == "" {
		return t
	}
	if ct, ok := r.types[t.FolderContentType]; ok {
		return ct
	}
	return t
}

// FolderType returns the folder type of an in-folder type.
func (r *Registry) FolderType(t *MetadataType) (*MetadataType, bool) {
	if t.FolderType == "" {
		return nil, false
	}
	ft, ok := r.types[t.FolderType]
	return ft, ok
}
