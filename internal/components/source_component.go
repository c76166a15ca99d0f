package components

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/xmltree"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// MetaFileSuffix is appended to content file names to name their metadata file.
const MetaFileSuffix = "-meta.xml"

// SourceComponent is a component backed by files in a tree. Synthetic
// components (built from a manifest or for destructive changes) have no files.
type SourceComponent struct {
	Type     *registry.MetadataType
	FullName string
	XML      string
	Content  string
	Tree     filesystem.TreeContainer
	Parent   *SourceComponent

	// Replacements maps a file path to text replacements to apply when it is written.
	Replacements map[string][]Replacement

	markedForDelete sfmeta.DestructiveChangesType
}

// NewSourceComponent returns a synthetic component with no backing files.
func NewSourceComponent(t *registry.MetadataType, fullName string) *SourceComponent {
	return &SourceComponent{Type: t, FullName: fullName}
}

func (c *SourceComponent) TypeName() string      { return c.Type.Name }
func (c *SourceComponent) ComponentName() string { return c.FullName }

// Key returns the set key.
func (c *SourceComponent) Key() Key { return NewKey(c.Type.Name, c.FullName) }

func (c *SourceComponent) structuralKey() structuralKey {
	return structuralKey{typeName: c.Type.Name, fullName: c.FullName, xml: c.XML, content: c.Content}
}

// ParentType returns the parent's type for child components.
func (c *SourceComponent) ParentType() *registry.MetadataType {
	if c.Parent != nil {
		return c.Parent.Type
	}
	return c.Type.Parent()
}

// IsMarkedForDelete reports whether the component is a destructive change.
func (c *SourceComponent) IsMarkedForDelete() bool { return c.markedForDelete != "" }

// MarkedForDelete returns the destructive phase, or "" for constructive components.
func (c *SourceComponent) MarkedForDelete() sfmeta.DestructiveChangesType { return c.markedForDelete }

// SetMarkedForDelete marks the component for deletion in the given phase.
// An empty phase clears the mark.
func (c *SourceComponent) SetMarkedForDelete(phase sfmeta.DestructiveChangesType) {
	c.markedForDelete = phase
}

// String is used in log messages.
func (c *SourceComponent) String() string {
	return fmt.Sprintf("%s:%s", c.Type.Name, c.FullName)
}

// ParseXML parses the component's metadata file. It returns nil, nil for
// components without one.
func (c *SourceComponent) ParseXML() (*xmltree.Node, error) {
	if c.XML == "" || c.Tree == nil {
		return nil, nil
	}
	data, err := c.Tree.ReadFile(c.XML)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.XML, err)
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", c.XML, err)
	}
	return root, nil
}

// HasRealValues reports whether the component's own XML carries any element
// other than the elements that hold child components.
func (c *SourceComponent) HasRealValues() (bool, error) {
	root, err := c.ParseXML()
	if err != nil || root == nil {
		return false, err
	}
	for _, el := range root.Children {
		if _, isChild := c.Type.ChildByXMLElement(el.Name); !isChild {
			return true, nil
		}
	}
	return false, nil
}

// WalkContent returns every content file, sorted. A content file yields
// itself; a content directory yields all files under it.
func (c *SourceComponent) WalkContent() ([]string, error) {
	if c.Content == "" || c.Tree == nil {
		return nil, nil
	}
	return filesystem.Files(c.Tree, c.Content)
}

// Files returns the xml and content files of the component, sorted and unique.
func (c *SourceComponent) Files() ([]string, error) {
	content, err := c.WalkContent()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(content)+1)
	var out []string
	for _, p := range append(content, c.XML) {
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// GetChildren returns the child components. Decomposed components read them
// from child files in their content directory; others from elements in their
// own XML. Digital experience bundles expose one child per content directory.
func (c *SourceComponent) GetChildren() ([]*SourceComponent, error) {
	if !c.Type.HasChildren() || c.Tree == nil {
		return nil, nil
	}

	switch {
	case c.Type.Strategies.Adapter == registry.AdapterDigitalExperience:
		return c.experienceChildren()
	case c.Type.IsDecomposed() && c.Content != "" && c.Tree.IsDirectory(c.Content):
		return c.decomposedChildren()
	default:
		return c.xmlChildren()
	}
}

func (c *SourceComponent) decomposedChildren() ([]*SourceComponent, error) {
	files, err := filesystem.Files(c.Tree, c.Content)
	if err != nil {
		return nil, err
	}

	var children []*SourceComponent
	for _, f := range files {
		if f == c.XML {
			continue
		}
		name, suffix, ok := SplitMetaFileName(filepath.Base(f))
		if !ok {
			continue
		}
		childType, ok := c.Type.ChildBySuffix(suffix)
		if !ok {
			continue
		}
		children = append(children, &SourceComponent{
			Type:     childType,
			FullName: c.FullName + "." + name,
			XML:      f,
			Tree:     c.Tree,
			Parent:   c,
		})
	}
	return children, nil
}

func (c *SourceComponent) xmlChildren() ([]*SourceComponent, error) {
	root, err := c.ParseXML()
	if err != nil || root == nil {
		return nil, err
	}

	var children []*SourceComponent
	for _, el := range root.Children {
		childType, ok := c.Type.ChildByXMLElement(el.Name)
		if !ok {
			continue
		}
		idElement := childType.UniqueIDElement
		if idElement == "" {
			idElement = "fullName"
		}
		id := el.ChildText(idElement)
		if id == "" {
			continue
		}
		children = append(children, &SourceComponent{
			Type:     childType,
			FullName: c.FullName + "." + id,
			XML:      c.XML,
			Tree:     c.Tree,
			Parent:   c,
		})
	}
	return children, nil
}

func (c *SourceComponent) experienceChildren() ([]*SourceComponent, error) {
	if c.Content == "" || !c.Tree.IsDirectory(c.Content) {
		return nil, nil
	}
	childType := c.Type.ChildTypes()[0]

	spaces, err := c.Tree.ReadDirectory(c.Content)
	if err != nil {
		return nil, err
	}

	var children []*SourceComponent
	for _, space := range spaces {
		spaceDir := filepath.Join(c.Content, space)
		if !c.Tree.IsDirectory(spaceDir) {
			continue
		}
		names, err := c.Tree.ReadDirectory(spaceDir)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			dir := filepath.Join(spaceDir, name)
			if !c.Tree.IsDirectory(dir) {
				continue
			}
			children = append(children, &SourceComponent{
				Type:     childType,
				FullName: c.FullName + "." + space + "/" + name,
				Content:  dir,
				Tree:     c.Tree,
				Parent:   c,
			})
		}
	}
	return children, nil
}

// SplitMetaFileName splits "Name.suffix-meta.xml" into name and suffix.
func SplitMetaFileName(base string) (name, suffix string, ok bool) {
	if !strings.HasSuffix(base, MetaFileSuffix) {
		return "", "", false
	}
	trimmed := strings.TrimSuffix(base, MetaFileSuffix)
	dot := strings.LastIndex(trimmed, ".")
	if dot <= 0 {
		return trimmed, "", true
	}
	return trimmed[:dot], trimmed[dot+1:], true
}
