package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Calculator computes file checksums.
type Calculator interface {
	// CalculateRaw computes a checksum of the raw, unmodified content.
	CalculateRaw(content []byte) string

	// CalculateNormalized computes a checksum of normalized content.
	CalculateNormalized(content []byte) string
}

// SHA256 implements Calculator with SHA-256.
//
// SHA256 is a zero-size type and is safe for concurrent use by multiple goroutines.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of normalized content.
func (c SHA256) CalculateNormalized(content []byte) string {
	hash := sha256.Sum256([]byte(c.normalize(content)))
	return hex.EncodeToString(hash[:])
}

// Equal reports whether a and b are the same after normalization.
func (c SHA256) Equal(a, b []byte) bool {
	if bytes.Equal(a, b) {
		return true
	}
	return c.CalculateNormalized(a) == c.CalculateNormalized(b)
}

var bom = []byte{0xEF, 0xBB, 0xBF}

func (c SHA256) normalize(content []byte) string {
	content = bytes.TrimPrefix(content, bom)
	cleaned := c.removeComments(string(content))
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")

	var b strings.Builder
	b.Grow(len(cleaned))
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

type scanState int

const (
	ssNormal scanState = iota
	ssComment
	ssCDATA
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
	cdataOpen    = "<![CDATA["
	cdataClose   = "]]>"
)

// removeComments strips XML comments. Comment markers inside CDATA
// sections are content and are kept.
func (c SHA256) removeComments(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	state := ssNormal
	i := 0
	for i < len(content) {
		rest := content[i:]
		switch state {
		case ssNormal:
			switch {
			case strings.HasPrefix(rest, commentOpen):
				state = ssComment
				i += len(commentOpen)
			case strings.HasPrefix(rest, cdataOpen):
				state = ssCDATA
				b.WriteString(cdataOpen)
				i += len(cdataOpen)
			default:
				b.WriteByte(content[i])
				i++
			}

		case ssComment:
			if strings.HasPrefix(rest, commentClose) {
				state = ssNormal
				i += len(commentClose)
			} else {
				i++
			}

		case ssCDATA:
			if strings.HasPrefix(rest, cdataClose) {
				state = ssNormal
				b.WriteString(cdataClose)
				i += len(cdataClose)
			} else {
				b.WriteByte(content[i])
				i++
			}
		}
	}
	return b.String()
}
