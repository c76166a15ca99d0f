package manifest

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/vvka-141/sfmeta/internal/xmltree"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// document is the decoding shape of a manifest; sfmeta.Package carries no
// XMLName so it can be embedded in wire requests.
type document struct {
	XMLName xml.Name `xml:"Package"`
	sfmeta.Package
}

// Encode renders pkg as a manifest document. An empty indent uses the
// default four spaces.
func Encode(pkg sfmeta.Package, indent string) []byte {
	if indent == "" {
		indent = sfmeta.DefaultManifestIndentation
	}

	root := &xmltree.Node{Name: "Package"}
	root.SetNamespace(sfmeta.MetadataNamespace)

	if pkg.FullName != "" {
		root.Append(xmltree.NewElement("fullName", pkg.FullName))
	}
	for _, t := range pkg.Types {
		block := &xmltree.Node{Name: "types"}
		for _, m := range t.Members {
			block.Append(xmltree.NewElement("members", m))
		}
		block.Append(xmltree.NewElement("name", t.Name))
		root.Append(block)
	}
	root.Append(xmltree.NewElement("version", pkg.Version))

	return xmltree.Marshal(root, indent)
}

// Decode parses manifest content. filePath is used for error reporting only.
func Decode(data []byte, filePath string) (*sfmeta.Package, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, wrapXMLError(err, filePath)
	}
	return &doc.Package, nil
}

// ReadFile reads and decodes a manifest from disk.
func ReadFile(path string) (*sfmeta.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Decode(data, path)
}

// Write encodes pkg to w.
func Write(w io.Writer, pkg sfmeta.Package, indent string) error {
	if _, err := w.Write(Encode(pkg, indent)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
