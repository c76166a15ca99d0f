// Package filesystem provides the tree abstraction that resolvers and the
// conversion pipeline read metadata files through.
//
// Key interfaces:
//   - TreeContainer: existence checks, reads, streams and sorted directory listings
//   - FileInfo: File metadata similar to os.FileInfo
//
// Implementations:
//   - OSTree: Production implementation using the OS filesystem
//   - MemoryTree: In-memory implementation for tests and virtual output
//   - FSTree: Read-only tree over any fs.FS, used for retrieved zip payloads (NewZipTree)
//
// Paths handed to virtual trees may use either separator; they are
// normalized to forward slashes internally.
package filesystem
