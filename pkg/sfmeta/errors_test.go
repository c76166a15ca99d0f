package sfmeta_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

func TestExitCodeForError_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown flag", errors.New("unknown flag --foo"), sfmeta.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x'"), sfmeta.ExitUsageError},
		{"accepts args", errors.New("accepts 1 arg(s), received 0"), sfmeta.ExitUsageError},
		{"required flag", errors.New("required flag \"manifest\" not set"), sfmeta.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--wait\""), sfmeta.ExitUsageError},
		{"general error", errors.New("something went wrong"), sfmeta.ExitGeneralError},
		{"nil error", nil, sfmeta.ExitSuccess},
		{"connection failed", sfmeta.ErrConnectionFailed, sfmeta.ExitConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sfmeta.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeForError_Sentinels(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{sfmeta.ErrInvalidConfig, sfmeta.ExitConfigError},
		{sfmeta.ErrMissingJobID, sfmeta.ExitConfigError},
		{sfmeta.ErrUnsupportedMerge, sfmeta.ExitConfigError},
		{sfmeta.ErrApprovalDenied, sfmeta.ExitApprovalDenied},
		{sfmeta.ErrPollingTimeout, sfmeta.ExitTimeout},
		{sfmeta.ErrRetryLimitExceeded, sfmeta.ExitTransferFailed},
		{sfmeta.ErrTransferFailed, sfmeta.ExitTransferFailed},
		{sfmeta.ErrConversionFailed, sfmeta.ExitConversionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if got := sfmeta.ExitCodeForError(wrapped); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", wrapped, got, tt.want)
			}
		})
	}
}

type namedError struct {
	name    string
	actions []string
}

func (e namedError) Error() string     { return "named: " + e.name }
func (e namedError) Name() string      { return e.name }
func (e namedError) Actions() []string { return e.actions }

func TestIsDescriptive(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errors.New("boom"), false},
		{"generic name", namedError{name: "Error"}, false},
		{"generic sf name", namedError{name: "SfError"}, false},
		{"specific name", namedError{name: "MissingTypeError"}, true},
		{"generic name with actions", namedError{name: "Error", actions: []string{"retry"}}, true},
		{"wrapped specific", fmt.Errorf("ctx: %w", namedError{name: "MissingTypeError"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sfmeta.IsDescriptive(tt.err); got != tt.want {
				t.Errorf("IsDescriptive(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
