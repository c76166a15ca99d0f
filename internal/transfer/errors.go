package transfer

import (
	"errors"
	"fmt"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// timeoutMessage is the fixed text of a polling timeout.
const timeoutMessage = "The client has timed out."

// TransferError wraps any failure raised while polling a metadata job.
type TransferError struct {
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("Metadata API request failed: %v", e.Err)
}

func (e *TransferError) Unwrap() []error {
	return []error{sfmeta.ErrTransferFailed, e.Err}
}

// Name identifies the error kind for callers that report it.
func (e *TransferError) Name() string { return "MetadataTransferError" }

// Actions is empty; the wrapped error carries any remediation.
func (e *TransferError) Actions() []string { return nil }

// RetryLimitError reports that too many consecutive transient errors occurred
// while polling. It is returned as is, never inside a TransferError.
type RetryLimitError struct {
	Limit int
	Err   error
}

func (e *RetryLimitError) Error() string {
	return fmt.Sprintf("polling stopped after %d consecutive errors (retry limit %d); last error: %v",
		e.Limit+1, e.Limit, e.Err)
}

func (e *RetryLimitError) Unwrap() []error {
	return []error{sfmeta.ErrRetryLimitExceeded, e.Err}
}

func (e *RetryLimitError) Name() string { return "MetadataTransferRetryLimitExceeded" }

func (e *RetryLimitError) Actions() []string {
	return []string{
		fmt.Sprintf("Raise %s to tolerate more consecutive polling errors.", sfmeta.EnvPollErrorRetryLimit),
		"Check the job status later with its job id; the job may still be running.",
	}
}

// TimeoutError is raised when a job does not reach a terminal state in time.
type TimeoutError struct{}

func (e *TimeoutError) Error() string { return timeoutMessage }

func (e *TimeoutError) Is(target error) bool { return target == sfmeta.ErrPollingTimeout }

func (e *TimeoutError) Name() string { return "PollingClientTimeout" }

func (e *TimeoutError) Actions() []string { return nil }

// wrap converts a polling failure into a TransferError unless it already is one.
func wrap(err error) error {
	var te *TransferError
	if errors.As(err, &te) {
		return err
	}
	return &TransferError{Err: err}
}
