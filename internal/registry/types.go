package registry

import "sort"

// Adapter strategies decide how a type's files are grouped into components.
const (
	AdapterDefault           = ""
	AdapterMatchingContent   = "matchingContent"
	AdapterMixedContent      = "mixedContent"
	AdapterBundle            = "bundle"
	AdapterDigitalExperience = "digitalExperience"
	AdapterDecomposed        = "decomposed"
)

// Transformer strategies decide how a component is rewritten between formats.
const (
	TransformerDefault        = ""
	TransformerDecomposed     = "decomposed"
	TransformerNonDecomposed  = "nonDecomposed"
	TransformerStaticResource = "staticResource"
)

// RecompositionStartEmpty marks parents that are rebuilt from their children only.
const RecompositionStartEmpty = "startEmpty"

// Strategies selects per-type behavior in resolvers and transformers.
type Strategies struct {
	Adapter       string `yaml:"adapter,omitempty"`
	Transformer   string `yaml:"transformer,omitempty"`
	Recomposition string `yaml:"recomposition,omitempty"`
}

// Children describes the child types of a parent type.
type Children struct {
	Types       map[string]*MetadataType `yaml:"types"`
	Suffixes    map[string]string        `yaml:"-"`
	Directories map[string]string        `yaml:"-"`
}

// MetadataType is the static description of one metadata type.
type MetadataType struct {
	ID                         string     `yaml:"-"`
	Name                       string     `yaml:"name"`
	DirectoryName              string     `yaml:"directoryName"`
	Suffix                     string     `yaml:"suffix,omitempty"`
	StrictDirectoryName        bool       `yaml:"strictDirectoryName,omitempty"`
	InFolder                   bool       `yaml:"inFolder,omitempty"`
	FolderType                 string     `yaml:"folderType,omitempty"`
	FolderContentType          string     `yaml:"folderContentType,omitempty"`
	IsAddressable              *bool      `yaml:"isAddressable,omitempty"`
	SupportsWildcardAndName    bool       `yaml:"supportsWildcardAndName,omitempty"`
	UnaddressableWithoutParent bool       `yaml:"unaddressableWithoutParent,omitempty"`
	SupportsPartialDelete      bool       `yaml:"supportsPartialDelete,omitempty"`
	ManifestTrailingSlash      bool       `yaml:"manifestTrailingSlash,omitempty"`
	XMLElementName             string     `yaml:"xmlElementName,omitempty"`
	UniqueIDElement            string     `yaml:"uniqueIdElement,omitempty"`
	Children                   *Children  `yaml:"children,omitempty"`
	Strategies                 Strategies `yaml:"strategies,omitempty"`

	parent *MetadataType
}

// Addressable reports whether components of this type may appear in a manifest.
// Types are addressable unless explicitly marked otherwise.
func (t *MetadataType) Addressable() bool {
	return t.IsAddressable == nil || *t.IsAddressable
}

// HasChildren reports whether the type declares child types.
func (t *MetadataType) HasChildren() bool {
	return t.Children != nil && len(t.Children.Types) > 0
}

// IsFolderType reports whether the type is the folder of another type.
func (t *MetadataType) IsFolderType() bool {
	return t.FolderContentType != ""
}

// IsBundle reports whether components are whole directories.
func (t *MetadataType) IsBundle() bool {
	return t.Strategies.Adapter == AdapterBundle || t.Strategies.Adapter == AdapterDigitalExperience
}

// IsDecomposed reports whether the source format splits children into files.
func (t *MetadataType) IsDecomposed() bool {
	return t.Strategies.Adapter == AdapterDecomposed
}

// Parent returns the parent type of a child type, or nil.
func (t *MetadataType) Parent() *MetadataType {
	return t.parent
}

// ChildTypes returns the child types sorted by id.
func (t *MetadataType) ChildTypes() []*MetadataType {
	if !t.HasChildren() {
		return nil
	}
	out := make([]*MetadataType, 0, len(t.Children.Types))
	for _, c := range t.Children.Types {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ChildByXMLElement returns the child type stored under the given element name
// in the parent's XML.
func (t *MetadataType) ChildByXMLElement(element string) (*MetadataType, bool) {
	for _, c := range t.ChildTypes() {
		if c.XMLElementName == element {
			return c, true
		}
	}
	return nil, false
}

// ChildBySuffix returns the child type for a decomposed child file suffix.
func (t *MetadataType) ChildBySuffix(suffix string) (*MetadataType, bool) {
	if t.Children == nil {
		return nil, false
	}
	id, ok := t.Children.Suffixes[suffix]
	if !ok {
		return nil, false
	}
	return t.Children.Types[id], true
}
