package sfmeta

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := deploy.PollStatus(ctx, transfer.PollingOptions{})
//	if errors.Is(err, sfmeta.ErrPollingTimeout) {
//	    // Report the job id so the user can resume later
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingJobID indicates a status check or cancel was attempted before a job was started.
	ErrMissingJobID = errors.New("missing job id")

	// ErrMissingComponents indicates neither components nor paths were given for a transfer payload.
	ErrMissingComponents = errors.New("no components or paths provided")

	// ErrUnknownType indicates a metadata type name is not registered.
	ErrUnknownType = errors.New("unknown metadata type")

	// ErrTransferFailed indicates a deploy or retrieve failed while polling.
	ErrTransferFailed = errors.New("metadata transfer failed")

	// ErrPollingTimeout indicates polling exceeded the configured duration.
	ErrPollingTimeout = errors.New("polling timed out")

	// ErrRetryLimitExceeded indicates too many consecutive transient polling errors.
	ErrRetryLimitExceeded = errors.New("polling error retry limit exceeded")

	// ErrConversionFailed indicates the conversion pipeline failed.
	ErrConversionFailed = errors.New("conversion failed")

	// ErrUnsupportedMerge indicates a merge into metadata API format was requested.
	ErrUnsupportedMerge = errors.New("merge is only supported for source format")

	// ErrApprovalDenied indicates the user denied approval for the operation.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrMalformedResponse indicates the service answered with a body that is not
	// a SOAP envelope, typically a maintenance page or a truncated payload.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrConnectionFailed indicates the remote metadata service could not be reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotImplemented indicates a feature is not yet implemented.
	ErrNotImplemented = errors.New("not implemented")
)

// DomainError is implemented by errors that already carry a specific diagnosis.
// Name returns a non-generic error name; Actions lists remediation steps.
// Such errors are passed through unchanged instead of being wrapped again.
type DomainError interface {
	error
	Name() string
	Actions() []string
}

// IsDescriptive reports whether err (or anything it wraps) is a DomainError
// with a specific name or attached remediation actions.
func IsDescriptive(err error) bool {
	var de DomainError
	if !errors.As(err, &de) {
		return false
	}
	if len(de.Actions()) > 0 {
		return true
	}
	name := de.Name()
	return name != "" && name != "Error" && name != "SfError"
}

// usagePatterns are the error message fragments cobra produces for CLI misuse.
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
	"missing required argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrMissingComponents),
		errors.Is(err, ErrMissingJobID),
		errors.Is(err, ErrUnknownType),
		errors.Is(err, ErrUnsupportedMerge):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrPollingTimeout):
		return ExitTimeout
	case errors.Is(err, ErrRetryLimitExceeded), errors.Is(err, ErrTransferFailed):
		return ExitTransferFailed
	case errors.Is(err, ErrConversionFailed):
		return ExitConversionFailed
	}

	errStr := err.Error()
	for _, p := range usagePatterns {
		if strings.Contains(errStr, p) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
