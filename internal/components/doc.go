// Package components models metadata components and the ComponentSet that
// every conversion and transfer operates on.
//
// A component is identified by its type and full name. Components resolved
// from a file tree are *SourceComponent values that also know their xml and
// content paths; manifests and callers may add loosely typed Member values.
// ComponentSet deduplicates all of them, tracks destructive changes per
// phase and renders package.xml manifests.
package components
