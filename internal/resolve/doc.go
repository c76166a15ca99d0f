// Package resolve discovers metadata components in file trees and manifests.
//
// MetadataResolver walks source format or metadata API format directories
// and groups files into components using the type registry's directory and
// suffix indexes. ManifestResolver reads package.xml files. FromSource and
// FromManifest combine both into a components.ComponentSet.
//
// Paths matched by .forceignore are skipped and reported so callers can
// surface them to users.
package resolve
