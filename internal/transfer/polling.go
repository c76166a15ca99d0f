package transfer

import (
	"time"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// PollingOptions controls PollStatus. Zero fields take their defaults.
type PollingOptions struct {
	// Frequency between status checks. Derived from the component count when zero.
	Frequency time.Duration

	// Timeout for the whole polling run. Defaults to sfmeta.DefaultPollingTimeout.
	Timeout time.Duration

	// RetryLimit overrides the transfer's consecutive error budget when positive.
	RetryLimit int
}

// CalculatePollingFrequency returns the delay between status checks for a
// transfer of size components. Large transfers poll proportionally slower.
func CalculatePollingFrequency(size int) time.Duration {
	switch {
	case size == 0:
		return time.Second
	case size <= 10:
		return 100 * time.Millisecond
	case size <= 50:
		return 250 * time.Millisecond
	case size <= 100:
		return 500 * time.Millisecond
	case size <= 1000:
		return time.Second
	default:
		return time.Duration(size) * time.Millisecond
	}
}

func (o PollingOptions) resolve(size, retryLimit int) (frequency, timeout time.Duration, limit int) {
	frequency = o.Frequency
	if frequency <= 0 {
		frequency = CalculatePollingFrequency(size)
	}
	timeout = o.Timeout
	if timeout <= 0 {
		timeout = sfmeta.DefaultPollingTimeout
	}
	limit = retryLimit
	if o.RetryLimit > 0 {
		limit = o.RetryLimit
	}
	return frequency, timeout, limit
}
