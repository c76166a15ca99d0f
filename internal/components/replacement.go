package components

import (
	"bytes"
	"regexp"
)

// Replacement rewrites text in a file as it is written to its destination.
// Exactly one of Literal or Regex is set.
type Replacement struct {
	Literal     string
	Regex       *regexp.Regexp
	ReplaceWith string
}

// Matches reports whether the replacement would change content.
func (r Replacement) Matches(content []byte) bool {
	if r.Regex != nil {
		return r.Regex.Match(content)
	}
	return r.Literal != "" && bytes.Contains(content, []byte(r.Literal))
}

// Apply returns content with the replacement applied.
func (r Replacement) Apply(content []byte) []byte {
	if r.Regex != nil {
		return r.Regex.ReplaceAllLiteral(content, []byte(r.ReplaceWith))
	}
	if r.Literal == "" {
		return content
	}
	return bytes.ReplaceAll(content, []byte(r.Literal), []byte(r.ReplaceWith))
}

// ApplyAll applies replacements in order.
func ApplyAll(content []byte, replacements []Replacement) []byte {
	for _, r := range replacements {
		content = r.Apply(content)
	}
	return content
}
