package convert

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
)

const resourceSuffix = ".resource"

// archiveContentTypes are exploded into a directory in source format.
var archiveContentTypes = map[string]bool{
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/jar":              true,
	"application/java-archive":     true,
}

var mimeExtensions = map[string]string{
	"application/javascript":   "js",
	"application/x-javascript": "js",
	"text/javascript":          "js",
	"text/css":                 "css",
	"text/html":                "html",
	"text/plain":               "txt",
	"application/json":         "json",
	"application/xml":          "xml",
	"text/xml":                 "xml",
	"image/png":                "png",
	"image/jpeg":               "jpeg",
	"image/gif":                "gif",
	"image/svg+xml":            "svg",
	"application/pdf":          "pdf",
	"application/font-woff":    "woff",
	"font/woff":                "woff",
}

const defaultResourceExtension = "bin"

// staticResourceTransformer zips directory resources on the way to the
// metadata format, and on the way back either explodes archives or names
// the single file after its content type.
type staticResourceTransformer struct{}

func (staticResourceTransformer) ToMetadataFormat(c *components.SourceComponent) ([]WriteInfo, error) {
	base := path.Join(directoryType(c.Type).DirectoryName, c.FullName)
	var infos []WriteInfo

	switch {
	case isContentDir(c):
		data, err := zipDirectory(c)
		if err != nil {
			return nil, err
		}
		infos = append(infos, WriteInfo{Output: base + resourceSuffix, Open: bytesOpener(data)})
	case c.Content != "":
		infos = append(infos, WriteInfo{Output: base + resourceSuffix, Open: opener(c, c.Content)})
	}
	if c.XML != "" {
		infos = append(infos, WriteInfo{Output: base + resourceSuffix + components.MetaFileSuffix, Open: opener(c, c.XML)})
	}
	return infos, nil
}

func (staticResourceTransformer) ToSourceFormat(c, mergeWith *components.SourceComponent) ([]WriteInfo, error) {
	base := path.Join(directoryType(c.Type).DirectoryName, c.FullName)
	var infos []WriteInfo

	switch {
	case isContentDir(c) || (c.Content != "" && !strings.HasSuffix(c.Content, resourceSuffix)):
		root, found := packageRoot(c)
		files, err := c.WalkContent()
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			infos = append(infos, WriteInfo{Output: relativeOutput(c, root, found, f), Open: opener(c, f)})
		}
	case c.Content != "":
		contentType, err := resourceContentType(c)
		if err != nil {
			return nil, err
		}
		if archiveContentTypes[contentType] {
			exploded, err := explode(c, base)
			if err != nil {
				return nil, err
			}
			infos = append(infos, exploded...)
			break
		}
		ext := resourceExtension(contentType, mergeWith)
		infos = append(infos, WriteInfo{Output: base + "." + ext, Open: opener(c, c.Content)})
	}
	if c.XML != "" {
		infos = append(infos, WriteInfo{Output: base + resourceSuffix + components.MetaFileSuffix, Open: opener(c, c.XML)})
	}
	return infos, nil
}

func resourceContentType(c *components.SourceComponent) (string, error) {
	root, err := c.ParseXML()
	if err != nil || root == nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(root.ChildText("contentType"))), nil
}

// resourceExtension keeps the extension of an existing local copy so a
// retrieve does not rename the file.
func resourceExtension(contentType string, mergeWith *components.SourceComponent) string {
	if mergeWith != nil && mergeWith.Content != "" && mergeWith.Tree != nil && !mergeWith.Tree.IsDirectory(mergeWith.Content) {
		if ext := strings.TrimPrefix(filepath.Ext(mergeWith.Content), "."); ext != "" && ext != "resource" {
			return ext
		}
	}
	if ext, ok := mimeExtensions[contentType]; ok {
		return ext
	}
	return defaultResourceExtension
}

func zipDirectory(c *components.SourceComponent) ([]byte, error) {
	files, err := c.WalkContent()
	if err != nil {
		return nil, err
	}
	a := newArchive()
	for _, f := range files {
		rel, err := slashRel(c.Content, f)
		if err != nil {
			return nil, err
		}
		rc, err := opener(c, f)()
		if err != nil {
			return nil, err
		}
		err = a.add(rel, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
	}
	data, _, err := a.bytes()
	return data, err
}

func explode(c *components.SourceComponent, base string) ([]WriteInfo, error) {
	data, err := c.Tree.ReadFile(c.Content)
	if err != nil {
		return nil, err
	}
	tree, err := filesystem.NewZipTree(data)
	if err != nil {
		return nil, fmt.Errorf("static resource %s: %w", c.FullName, err)
	}
	entries, err := filesystem.Files(tree, ".")
	if err != nil {
		return nil, err
	}
	infos := make([]WriteInfo, 0, len(entries))
	for _, entry := range entries {
		name := zipEntryName(entry)
		if name == "" {
			continue
		}
		infos = append(infos, WriteInfo{
			Output: path.Join(base, name),
			Open:   func() (io.ReadCloser, error) { return tree.Stream(entry) },
		})
	}
	return infos, nil
}
