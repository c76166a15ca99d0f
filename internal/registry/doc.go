// Package registry describes the metadata types sfmeta understands.
//
// The default registry is loaded from an embedded types.yaml. Type ids are the
// lowercase type names; lookups by name are case-insensitive. Child types
// (CustomField under CustomObject, CustomLabel under CustomLabels) are
// registered alongside top-level types and know their parent.
package registry
