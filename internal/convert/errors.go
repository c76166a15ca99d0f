package convert

import (
	"errors"
	"fmt"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// ConversionError wraps failures raised while converting components.
type ConversionError struct {
	Message string
	Err     error
}

func (e *ConversionError) Error() string {
	msg := "Metadata API conversion failed"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{sfmeta.ErrConversionFailed}
	}
	return []error{sfmeta.ErrConversionFailed, e.Err}
}

func (e *ConversionError) Name() string { return "ConversionError" }

func (e *ConversionError) Actions() []string { return nil }

// wrapError leaves descriptive domain errors alone and wraps the rest.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) || sfmeta.IsDescriptive(err) {
		return err
	}
	return &ConversionError{Err: err}
}

func unsupportedMerge(target TargetFormat) error {
	return fmt.Errorf("%w: merge output requires target format %q, got %q",
		sfmeta.ErrUnsupportedMerge, FormatSource, target)
}
