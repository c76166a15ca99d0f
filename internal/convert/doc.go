// Package convert rewrites component sets between source format and
// metadata API format.
//
// A conversion runs as a pipeline: the set's source components are filtered,
// optionally marked for text replacements, mapped by a per-type transformer
// to write instructions, and handed to a writer. Three writers exist:
//
//   - directory: files go below a package directory, with package.xml and
//     destructive change manifests written alongside for metadata output
//   - zip: files and manifests go into an in-memory archive that is returned
//     or flushed to disk
//   - merge: source format output is written over an existing project,
//     placing each component next to its existing copy and recording which
//     files were created, changed, unchanged or deleted
//
// Transformers are chosen by the type's registry strategy: decomposed types
// are split into or rebuilt from one file per child, CustomLabels style
// types are merged label by label, and static resources are zipped or
// exploded based on their content type.
package convert
