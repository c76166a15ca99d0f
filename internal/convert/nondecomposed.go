package convert

import (
	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/xmltree"
)

// nonDecomposedTransformer handles types whose children stay inside the
// parent file in both formats. Retrieved children are merged into the
// existing file instead of replacing it.
type nonDecomposedTransformer struct{}

func (nonDecomposedTransformer) ToMetadataFormat(c *components.SourceComponent) ([]WriteInfo, error) {
	return defaultTransformer{}.ToMetadataFormat(c)
}

func (nonDecomposedTransformer) ToSourceFormat(c, mergeWith *components.SourceComponent) ([]WriteInfo, error) {
	if mergeWith == nil || mergeWith.XML == "" || mergeWith.Tree == nil || !mergeWith.Tree.Exists(mergeWith.XML) {
		return defaultTransformer{}.ToSourceFormat(c, nil)
	}

	incoming, err := c.ParseXML()
	if err != nil {
		return nil, err
	}
	existing, err := mergeWith.ParseXML()
	if err != nil {
		return nil, err
	}
	if incoming == nil {
		return nil, nil
	}

	merged := mergeChildren(c, existing, incoming)
	root, found := packageRoot(mergeWith)
	out := relativeOutput(mergeWith, root, found, mergeWith.XML)
	return []WriteInfo{{Output: out, Open: bytesOpener(marshalXML(merged))}}, nil
}

// mergeChildren replaces children of existing that incoming also carries,
// matched by element name and id, and appends the rest in incoming order.
func mergeChildren(c *components.SourceComponent, existing, incoming *xmltree.Node) *xmltree.Node {
	merged := existing.Clone()
	index := make(map[[2]string]int)
	for i, el := range merged.Children {
		if id, ok := childID(c, el); ok {
			index[[2]string{el.Name, id}] = i
		}
	}
	for _, el := range incoming.Children {
		id, ok := childID(c, el)
		if !ok {
			continue
		}
		key := [2]string{el.Name, id}
		if i, found := index[key]; found {
			merged.Children[i] = el.Clone()
			continue
		}
		index[key] = len(merged.Children)
		merged.Append(el.Clone())
	}
	return merged
}

func childID(c *components.SourceComponent, el *xmltree.Node) (string, bool) {
	childType, ok := c.Type.ChildByXMLElement(el.Name)
	if !ok {
		return "", false
	}
	id := el.ChildText(idElement(childType))
	return id, id != ""
}
