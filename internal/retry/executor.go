package retry

import (
	"context"
	"errors"
	"time"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// Executor runs an operation, retrying transient failures with backoff.
// It is safe for concurrent use; WithOnRetry copies rather than mutates.
type Executor struct {
	classifier sfmeta.ErrorClassifier
	strategy   sfmeta.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor panics if classifier or strategy is nil.
func NewExecutor(classifier sfmeta.ErrorClassifier, strategy sfmeta.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("retry: nil classifier")
	}
	if strategy == nil {
		panic("retry: nil backoff strategy")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of e that calls fn before each wait.
func (e *Executor) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = fn
	return &clone
}

// Execute calls op until it succeeds, returns a non-transient error, or the
// strategy's retries run out. The error of the last attempt is returned.
// A negative MaxAttempts retries until ctx is done.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	limit := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if limit >= 0 && attempt >= limit {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.delay(attempt, err)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}
		if waitErr := sleep(ctx, delay); waitErr != nil {
			return waitErr
		}

		err = op(ctx)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryAfterError is implemented by errors that carry a server-requested
// wait, such as an HTTP 503 with a Retry-After header.
type RetryAfterError interface {
	error
	RetryAfter() time.Duration
}

type hintedStrategy interface {
	Delay(attempt int, hint time.Duration) time.Duration
}

func (e *Executor) delay(attempt int, err error) time.Duration {
	var hint time.Duration
	var ra RetryAfterError
	if errors.As(err, &ra) {
		hint = ra.RetryAfter()
	}

	if h, ok := e.strategy.(hintedStrategy); ok {
		return h.Delay(attempt, hint)
	}
	return max(e.strategy.NextDelay(attempt), hint)
}
