// Package checksum hashes file content for change detection.
//
// Two checksums are available:
//
//   - Raw checksum: hash of the exact bytes (detects every change)
//   - Normalized checksum: hash after XML-aware normalization, so a file
//     rewritten with different line endings, trailing whitespace or
//     comments is still recognized as unchanged
//
// # Normalization Strategy
//
//  1. Drop a leading UTF-8 byte order mark
//  2. Remove XML comments (<!-- -->) outside CDATA sections
//  3. Convert CRLF and CR line endings to LF
//  4. Trim trailing whitespace on every line and drop blank lines
//
// Merge conversions compare the normalized checksums of the existing file
// and the converted output to classify a file as Unchanged or Changed.
//
// # Example Usage
//
//	calculator := checksum.New()
//	if calculator.CalculateNormalized(existing) == calculator.CalculateNormalized(converted) {
//		// leave the file alone
//	}
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
