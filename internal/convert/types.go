package convert

import (
	"io"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/diff"
)

// TargetFormat is the layout a conversion produces.
type TargetFormat string

const (
	FormatSource   TargetFormat = "source"
	FormatMetadata TargetFormat = "metadata"
)

// OutputType selects the writer.
type OutputType string

const (
	OutputDirectory OutputType = "directory"
	OutputZip       OutputType = "zip"
	OutputMerge     OutputType = "merge"
)

// OutputConfig describes where converted files go.
type OutputConfig struct {
	Type OutputType

	// OutputDirectory is the parent of the package directory or zip file.
	// For zip output an empty value keeps the archive in memory.
	OutputDirectory string

	// PackageName names the package directory or zip file. When empty a
	// unique metadataPackage_<millis> name is generated unless SkipUniqueDir
	// is set, in which case OutputDirectory itself is the package root.
	PackageName   string
	SkipUniqueDir bool

	// MergeWith lists existing components that converted components with
	// the same key are written next to. Merge output only.
	MergeWith []*components.SourceComponent

	// DefaultDirectory receives merged components with no existing copy.
	DefaultDirectory string

	// Diff records unified patches for files a merge overwrites.
	Diff bool
}

// WriteInfo is one file a transformer wants written.
type WriteInfo struct {
	// Output is slash-separated and relative to the package root,
	// starting at the type directory (e.g. "classes/Foo.cls").
	Output string
	Open   func() (io.ReadCloser, error)
}

// ChangeStatus classifies a file written by a merge.
type ChangeStatus string

const (
	StatusCreated   ChangeStatus = "Created"
	StatusChanged   ChangeStatus = "Changed"
	StatusUnchanged ChangeStatus = "Unchanged"
	StatusDeleted   ChangeStatus = "Deleted"
)

// FileChange records what a merge did to one destination file.
type FileChange struct {
	Path     string
	Status   ChangeStatus
	Type     string
	FullName string
}

// Result is the outcome of a conversion.
type Result struct {
	// PackagePath is the directory or zip file written, if any.
	PackagePath string

	// ZipBuffer holds the archive when zip output has no OutputDirectory.
	ZipBuffer    []byte
	ZipFileCount int

	// Converted holds the components re-resolved from written files.
	Converted []*components.SourceComponent

	// Deleted lists existing files removed by partial-delete handling.
	Deleted []string

	Changes []FileChange
	Diffs   []diff.FileDiff
}
