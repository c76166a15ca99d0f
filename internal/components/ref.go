package components

import (
	"strings"

	"github.com/vvka-141/sfmeta/internal/registry"
)

// Key identifies a component by lowercase type and full name.
type Key struct {
	Type     string
	FullName string
}

func (k Key) String() string { return k.Type + "#" + k.FullName }

// NewKey builds a key, lowercasing the type name.
func NewKey(typeName, fullName string) Key {
	return Key{Type: strings.ToLower(typeName), FullName: fullName}
}

// structuralKey identifies one stored SourceComponent. Field-wise equality
// avoids the ambiguity of concatenated string keys.
type structuralKey struct {
	typeName string
	fullName string
	xml      string
	content  string
}

// ComponentLike is anything that can be added to a ComponentSet:
// Member, MetadataComponent or *SourceComponent.
type ComponentLike interface {
	TypeName() string
	ComponentName() string
}

// Member is a loosely typed reference whose type is only a name, as read from
// a manifest or typed by a user.
type Member struct {
	Type     string
	FullName string
}

func (m Member) TypeName() string      { return m.Type }
func (m Member) ComponentName() string { return m.FullName }

// MetadataComponent is a reference with a registry type but no files.
type MetadataComponent struct {
	Type     *registry.MetadataType
	FullName string
	Parent   *MetadataComponent
}

func (m MetadataComponent) TypeName() string      { return m.Type.Name }
func (m MetadataComponent) ComponentName() string { return m.FullName }

// KeyOf returns the set key of any component.
func KeyOf(c ComponentLike) Key {
	return NewKey(c.TypeName(), c.ComponentName())
}

// resolvedType returns the registry type carried by c, if any.
func resolvedType(c ComponentLike) *registry.MetadataType {
	switch v := c.(type) {
	case *SourceComponent:
		return v.Type
	case MetadataComponent:
		return v.Type
	case *MetadataComponent:
		return v.Type
	}
	return nil
}

// parentOf returns the parent type name and full name, if c has a resolved parent.
func parentOf(c ComponentLike) (typeName, fullName string, ok bool) {
	switch v := c.(type) {
	case *SourceComponent:
		if v.Parent != nil {
			return v.Parent.Type.Name, v.Parent.FullName, true
		}
	case MetadataComponent:
		if v.Parent != nil {
			return v.Parent.Type.Name, v.Parent.FullName, true
		}
	case *MetadataComponent:
		if v.Parent != nil {
			return v.Parent.Type.Name, v.Parent.FullName, true
		}
	}
	return "", "", false
}
