package convert

import (
	"encoding/xml"
	"fmt"
	"path"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/xmltree"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// decomposedTransformer recomposes a parent directory of child files into
// one metadata file, and splits that file back into a directory.
type decomposedTransformer struct{}

func (decomposedTransformer) ToMetadataFormat(c *components.SourceComponent) ([]WriteInfo, error) {
	root, err := c.ParseXML()
	if err != nil {
		return nil, err
	}
	if root == nil {
		root = &xmltree.Node{Name: c.Type.Name}
		root.SetNamespace(sfmeta.MetadataNamespace)
	}

	if isContentDir(c) {
		children, err := c.GetChildren()
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			el, err := child.ParseXML()
			if err != nil {
				return nil, err
			}
			if el == nil {
				continue
			}
			el.Name = child.Type.XMLElementName
			el.Attrs = dropNamespace(el.Attrs)
			root.Append(el)
		}
	}

	out := metadataFileName(c)
	return []WriteInfo{{Output: out, Open: bytesOpener(marshalXML(root))}}, nil
}

func (decomposedTransformer) ToSourceFormat(c, _ *components.SourceComponent) ([]WriteInfo, error) {
	if isContentDir(c) {
		return defaultTransformer{}.ToSourceFormat(c, nil)
	}

	root, err := c.ParseXML()
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}

	parentDir := path.Join(directoryType(c.Type).DirectoryName, c.FullName)
	parent := &xmltree.Node{Name: root.Name, Attrs: root.Attrs}
	var childInfos []WriteInfo
	for _, el := range root.Children {
		childType, ok := c.Type.ChildByXMLElement(el.Name)
		if !ok || childType.Suffix == "" {
			parent.Append(el)
			continue
		}
		id := el.ChildText(idElement(childType))
		if id == "" {
			parent.Append(el)
			continue
		}
		doc := el.Clone()
		doc.Name = childType.Name
		doc.SetNamespace(sfmeta.MetadataNamespace)
		childInfos = append(childInfos, WriteInfo{
			Output: path.Join(childDir(parentDir, c.Type, childType), id+"."+childType.Suffix+components.MetaFileSuffix),
			Open:   bytesOpener(marshalXML(doc)),
		})
	}

	parentInfo := WriteInfo{
		Output: path.Join(parentDir, c.FullName+"."+c.Type.Suffix+components.MetaFileSuffix),
		Open:   bytesOpener(marshalXML(parent)),
	}
	return append([]WriteInfo{parentInfo}, childInfos...), nil
}

// metadataFileName is "<typeDir>/<fullName>.<suffix>".
func metadataFileName(c *components.SourceComponent) string {
	return fmt.Sprintf("%s/%s.%s", directoryType(c.Type).DirectoryName, c.FullName, c.Type.Suffix)
}

// childDir places child files in their own directory, except types that
// share the parent's directory name, whose files sit next to the parent.
func childDir(parentDir string, parent, child *registry.MetadataType) string {
	if child.DirectoryName == parent.DirectoryName {
		return parentDir
	}
	return path.Join(parentDir, child.DirectoryName)
}

func idElement(t *registry.MetadataType) string {
	if t.UniqueIDElement != "" {
		return t.UniqueIDElement
	}
	return "fullName"
}

func dropNamespace(attrs []xml.Attr) []xml.Attr {
	out := attrs[:0:0]
	for _, a := range attrs {
		if a.Name.Space == "" && a.Name.Local == "xmlns" {
			continue
		}
		out = append(out, a)
	}
	return out
}
