// Package files groups the file access layers used by sfmeta.
//
// The only sub-package is filesystem, which defines the read-only
// TreeContainer that resolvers walk and the WritableTree that converters
// write into. Both have OS and in-memory implementations, plus an adapter
// over fs.FS for zip archives returned by retrieves.
//
//	tree := filesystem.NewOSTree()
//	set, err := resolve.FromSource(resolve.SourceOptions{Paths: []string{"force-app"}, Tree: tree})
package files
