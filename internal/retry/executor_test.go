package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

var (
	errUnavailable = errors.New("ERROR_HTTP_503: 503 Service Unavailable")
	errSession     = errors.New("INVALID_SESSION_ID: Session expired or invalid")
)

// script returns an operation that replays errs in order and succeeds once
// they run out, counting its calls.
func script(calls *int, errs ...error) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		if *calls <= len(errs) {
			return errs[*calls-1]
		}
		return nil
	}
}

func repeat(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}

func fastBackoff(maxAttempts int) *ExponentialBackoff {
	return NewExponentialBackoff(maxAttempts, WithInitialDelay(time.Millisecond), WithJitter(0))
}

func TestExecutor_Execute(t *testing.T) {
	tests := []struct {
		name      string
		retries   int
		errs      []error
		wantErr   error
		wantCalls int
	}{
		{"success first try", 3, nil, nil, 1},
		{"recovers from gateway errors", 5, repeat(errUnavailable, 3), nil, 4},
		{"connection refused is retried", 3, repeat(errors.New("connect: connection refused"), 2), nil, 3},
		{"session errors are not retried", 5, []error{errSession}, errSession, 1},
		{"stops at first fatal error", 5, []error{errUnavailable, errUnavailable, errSession}, errSession, 3},
		{"gives up after retries run out", 3, repeat(errUnavailable, 99), errUnavailable, 4},
		{"zero retries", 0, repeat(errUnavailable, 99), errUnavailable, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := NewExecutor(NewMetadataErrorClassifier(), fastBackoff(tt.retries)).
				Execute(context.Background(), script(&calls, tt.errs...))

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestExecutor_Execute_CanceledDuringWait(t *testing.T) {
	exec := NewExecutor(NewMetadataErrorClassifier(), NewExponentialBackoff(10, WithInitialDelay(time.Second)))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	calls := 0
	err := exec.Execute(ctx, script(&calls, repeat(errUnavailable, 99)...))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExecutor_WithOnRetry(t *testing.T) {
	type retryCall struct {
		attempt int
		delay   time.Duration
	}
	var got []retryCall
	base := NewExecutor(NewMetadataErrorClassifier(), fastBackoff(3))
	exec := base.WithOnRetry(func(attempt int, err error, d time.Duration) {
		if err == nil {
			t.Error("onRetry called with nil error")
		}
		got = append(got, retryCall{attempt, d})
	})

	calls := 0
	if err := exec.Execute(context.Background(), script(&calls, repeat(errUnavailable, 3)...)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []retryCall{{0, time.Millisecond}, {1, 2 * time.Millisecond}, {2, 4 * time.Millisecond}}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("retries = %v, want %v", got, want)
	}
	if base.onRetry != nil {
		t.Error("WithOnRetry modified the original executor")
	}
}

type throttledError struct{ wait time.Duration }

func (e throttledError) Error() string             { return "ERROR_HTTP_503: Service Unavailable" }
func (e throttledError) RetryAfter() time.Duration { return e.wait }

// fixedStrategy has no hint support, exercising the fallback path.
type fixedStrategy struct{ d time.Duration }

func (f fixedStrategy) NextDelay(int) time.Duration { return f.d }
func (f fixedStrategy) MaxAttempts() int            { return 2 }

func TestExecutor_Execute_HonorsRetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		strategy sfmeta.BackoffStrategy
		want     time.Duration
	}{
		{"backoff uses hint", fastBackoff(2), 20 * time.Millisecond},
		{"plain strategy takes the longer wait", fixedStrategy{d: time.Millisecond}, 20 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var delays []time.Duration
			exec := NewExecutor(NewMetadataErrorClassifier(), tt.strategy).
				WithOnRetry(func(_ int, _ error, d time.Duration) { delays = append(delays, d) })

			calls := 0
			throttled := fmt.Errorf("deploy: %w", throttledError{wait: 20 * time.Millisecond})
			if err := exec.Execute(context.Background(), script(&calls, throttled)); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if len(delays) != 1 || delays[0] != tt.want {
				t.Errorf("delays = %v, want [%v]", delays, tt.want)
			}
		})
	}
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil classifier")
		}
	}()
	NewExecutor(nil, fastBackoff(1))
}
