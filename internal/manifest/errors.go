package manifest

import (
	"encoding/xml"
	"errors"
	"fmt"
)

const formatHint = "Expected format:\n" +
	"  <Package xmlns=\"http://soap.sforce.com/2006/04/metadata\">\n" +
	"    <types><members>...</members><name>TypeName</name></types>\n" +
	"    <version>60.0</version>\n" +
	"  </Package>"

// ManifestError represents a structured error with context and helpful hints.
// It includes file path, optional line number, and an actionable suggestion.
type ManifestError struct {
	FilePath string // Path to the manifest
	Line     int    // Line number (0 if unknown)
	Message  string // Primary error message
	Hint     string // Actionable suggestion for fixing
}

// Error implements the error interface with rich formatting.
func (e *ManifestError) Error() string {
	location := e.FilePath
	if e.Line > 0 {
		location = fmt.Sprintf("%s (line %d)", e.FilePath, e.Line)
	}

	msg := fmt.Sprintf("manifest error in %s: %s", location, e.Message)
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	return msg
}

// Name identifies the error kind.
func (e *ManifestError) Name() string { return "ManifestError" }

// Actions lists remediation steps.
func (e *ManifestError) Actions() []string {
	if e.Hint == "" {
		return nil
	}
	return []string{e.Hint}
}

// wrapXMLError converts xml package errors to ManifestError with line numbers.
func wrapXMLError(err error, filePath string) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ManifestError{
			FilePath: filePath,
			Line:     syntaxErr.Line,
			Message:  syntaxErr.Msg,
			Hint:     "Check that all XML tags are properly closed.\n\n" + formatHint,
		}
	}

	return &ManifestError{
		FilePath: filePath,
		Message:  err.Error(),
		Hint:     formatHint,
	}
}
