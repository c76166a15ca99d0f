package convert

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/registry"
)

// directoryType is the type whose directory holds c's files.
func directoryType(t *registry.MetadataType) *registry.MetadataType {
	if p := t.Parent(); p != nil {
		return p
	}
	return t
}

// packageRoot returns the directory above c's type directory, in slash
// form, or "" when c's files are not below one.
func packageRoot(c *components.SourceComponent) (string, bool) {
	anchor := c.Content
	if anchor == "" {
		anchor = c.XML
	}
	if anchor == "" {
		return "", false
	}
	return rootAbove(directoryType(c.Type).DirectoryName, anchor)
}

func rootAbove(dirName, anchor string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(anchor), "/")
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] == dirName {
			return strings.Join(parts[:i], "/"), true
		}
	}
	return "", false
}

// relativeOutput returns file relative to root in slash form. Files outside
// root keep only their base name below the type directory.
func relativeOutput(c *components.SourceComponent, root string, found bool, file string) string {
	slashed := filepath.ToSlash(file)
	if found {
		prefix := root + "/"
		if root == "" {
			prefix = ""
		}
		if rel, ok := strings.CutPrefix(slashed, prefix); ok {
			return rel
		}
	}
	return directoryType(c.Type).DirectoryName + "/" + path.Base(slashed)
}

// packagePath computes the output location for directory and zip writers.
func packagePath(out OutputConfig, now time.Time, zip bool) string {
	if out.OutputDirectory == "" {
		return ""
	}
	name := out.PackageName
	if name == "" && !out.SkipUniqueDir {
		name = fmt.Sprintf("metadataPackage_%d", now.UnixMilli())
	}
	p := out.OutputDirectory
	if name != "" {
		p = filepath.Join(p, name)
	}
	if zip && !strings.HasSuffix(p, ".zip") {
		p += ".zip"
	}
	return p
}

// stripMetaSuffix turns "Foo.layout-meta.xml" into "Foo.layout".
func stripMetaSuffix(p string) string {
	return strings.TrimSuffix(p, components.MetaFileSuffix)
}
