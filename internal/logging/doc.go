// Package logging provides concrete implementations of the sfmeta.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes to stderr with colored [VERBOSE], [WARN] and
//     [ERROR] prefixes (fatih/color; honours NO_COLOR and non-TTY output)
//   - NullLogger: discards all messages (useful for testing)
//
// OnceWarner wraps a logger and emits each keyed warning at most once, which
// is how the API version cap warning stays quiet after the first transfer.
//
// All implementations are safe for concurrent use by multiple goroutines.
package logging
