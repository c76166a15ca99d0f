package convert

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/xmltree"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// Transformer maps one component to the files it becomes in a target format.
type Transformer interface {
	ToMetadataFormat(c *components.SourceComponent) ([]WriteInfo, error)
	// ToSourceFormat receives the existing copy of the component when
	// merging, or nil.
	ToSourceFormat(c, mergeWith *components.SourceComponent) ([]WriteInfo, error)
}

func transformerFor(t *registry.MetadataType) Transformer {
	strategy := t.Strategies.Transformer
	if p := t.Parent(); p != nil {
		strategy = p.Strategies.Transformer
	}
	switch strategy {
	case registry.TransformerDecomposed:
		return decomposedTransformer{}
	case registry.TransformerNonDecomposed:
		return nonDecomposedTransformer{}
	case registry.TransformerStaticResource:
		return staticResourceTransformer{}
	default:
		return defaultTransformer{}
	}
}

// opener streams file, applying any replacements registered for it.
func opener(c *components.SourceComponent, file string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		reps := c.Replacements[file]
		if len(reps) == 0 {
			return c.Tree.Stream(file)
		}
		data, err := c.Tree.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(components.ApplyAll(data, reps))), nil
	}
}

func bytesOpener(data []byte) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func readInfo(info WriteInfo) ([]byte, error) {
	rc, err := info.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", info.Output, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", info.Output, err)
	}
	return data, nil
}

func marshalXML(root *xmltree.Node) []byte {
	return xmltree.Marshal(root, sfmeta.DefaultManifestIndentation)
}

// defaultTransformer copies files and renames the metadata file. Bundle
// and content files keep their path below the package root.
type defaultTransformer struct{}

func (d defaultTransformer) ToMetadataFormat(c *components.SourceComponent) ([]WriteInfo, error) {
	return d.transform(c, d.metadataXMLOutput)
}

func (d defaultTransformer) ToSourceFormat(c, _ *components.SourceComponent) ([]WriteInfo, error) {
	return d.transform(c, d.sourceXMLOutput)
}

func (d defaultTransformer) transform(c *components.SourceComponent, xmlOutput func(*components.SourceComponent, string) string) ([]WriteInfo, error) {
	root, found := packageRoot(c)
	content, err := c.WalkContent()
	if err != nil {
		return nil, err
	}

	var infos []WriteInfo
	inContent := false
	for _, f := range content {
		if f == c.XML {
			inContent = true
		}
		infos = append(infos, WriteInfo{Output: relativeOutput(c, root, found, f), Open: opener(c, f)})
	}
	if c.XML != "" && !inContent {
		rel := relativeOutput(c, root, found, c.XML)
		infos = append(infos, WriteInfo{Output: xmlOutput(c, rel), Open: opener(c, c.XML)})
	}
	return infos, nil
}

// metadataXMLOutput names the metadata file in metadata format: folders
// become "<dir>/<name>-meta.xml", types with content keep the -meta.xml
// suffix, and the rest drop it.
func (d defaultTransformer) metadataXMLOutput(c *components.SourceComponent, rel string) string {
	switch {
	case c.Type.IsFolderType():
		return path.Join(path.Dir(rel), path.Base(c.FullName)+components.MetaFileSuffix)
	case hasContentFile(c.Type):
		return rel
	default:
		return stripMetaSuffix(rel)
	}
}

// sourceXMLOutput names the metadata file in source format.
func (d defaultTransformer) sourceXMLOutput(c *components.SourceComponent, rel string) string {
	if c.Type.IsFolderType() {
		base := path.Base(rel)
		if name, suffix, ok := components.SplitMetaFileName(base); ok && suffix == "" {
			return path.Join(path.Dir(rel), name+"."+c.Type.Suffix+components.MetaFileSuffix)
		}
		return rel
	}
	if strings.HasSuffix(rel, components.MetaFileSuffix) {
		return rel
	}
	return rel + components.MetaFileSuffix
}

// hasContentFile reports whether the metadata format pairs the type's XML
// with a separate content file.
func hasContentFile(t *registry.MetadataType) bool {
	switch t.Strategies.Adapter {
	case registry.AdapterMatchingContent, registry.AdapterMixedContent,
		registry.AdapterBundle, registry.AdapterDigitalExperience:
		return true
	}
	return false
}

// isContentDir reports whether c.Content is a directory in its tree.
func isContentDir(c *components.SourceComponent) bool {
	return c.Content != "" && c.Tree != nil && c.Tree.IsDirectory(c.Content)
}

func slashRel(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
