package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vvka-141/sfmeta/internal/logging"
	"github.com/vvka-141/sfmeta/internal/retry"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// Status is the remote state of a deploy or retrieve job.
type Status interface {
	IsDone() bool
	IsCanceled() bool
}

// Operation supplies the job-specific steps of a transfer.
type Operation[S Status, R any] interface {
	// Pre submits the job and returns its handle.
	Pre(ctx context.Context) (sfmeta.AsyncResult, error)

	// CheckStatus fetches the current remote state of job id.
	CheckStatus(ctx context.Context, id string) (S, error)

	// Cancel requests cancellation of job id. An operation whose cancellation
	// is purely local may do nothing here.
	Cancel(ctx context.Context, id string) error

	// CanceledStatus synthesizes the final status of a locally canceled job.
	// ok is false when cancellation is only observable through CheckStatus.
	CanceledStatus(id string) (status S, ok bool)

	// Post turns the terminal status into the public result.
	Post(ctx context.Context, status S) (R, error)

	// ComponentCount sizes the default polling frequency.
	ComponentCount() int
}

// State is the lifecycle position of a transfer.
type State int

const (
	StateNotStarted State = iota
	StateStarted
	StatePolling
	StateFinished
	StateCanceled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateStarted:
		return "Started"
	case StatePolling:
		return "Polling"
	case StateFinished:
		return "Finished"
	case StateCanceled:
		return "Canceled"
	case StateFailed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type config struct {
	classifier sfmeta.ErrorClassifier
	logger     sfmeta.Logger
	retryLimit int
	id         string
}

// Option configures a Transfer.
type Option func(*config)

// WithClassifier sets how status check failures are classified.
func WithClassifier(c sfmeta.ErrorClassifier) Option {
	return func(cfg *config) { cfg.classifier = c }
}

// WithLogger sets the logger receiving tolerated polling errors.
func WithLogger(l sfmeta.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithRetryLimit sets the number of consecutive transient errors tolerated.
func WithRetryLimit(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.retryLimit = n
		}
	}
}

// WithJobID attaches an already submitted job, so that it can be polled or
// canceled without calling Start.
func WithJobID(id string) Option {
	return func(cfg *config) { cfg.id = id }
}

// Transfer drives an asynchronous metadata job from submission to its
// terminal state.
//
// Thread Safety:
// Cancel and the listener registrations may be called from any goroutine,
// including from inside Operation callbacks. PollStatus must not run
// concurrently with itself.
type Transfer[S Status, R any] struct {
	op         Operation[S, R]
	classifier sfmeta.ErrorClassifier
	logger     sfmeta.Logger
	retryLimit int

	mu       sync.Mutex
	id       string
	state    State
	canceled bool

	events listeners[S, R]
}

// New creates a transfer for op.
func New[S Status, R any](op Operation[S, R], opts ...Option) *Transfer[S, R] {
	cfg := config{
		classifier: retry.NewMetadataErrorClassifier(),
		logger:     logging.NewNullLogger(),
		retryLimit: sfmeta.DefaultPollErrorRetryLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Transfer[S, R]{
		op:         op,
		classifier: cfg.classifier,
		logger:     cfg.logger,
		retryLimit: cfg.retryLimit,
		id:         cfg.id,
	}
}

// ID returns the job id, or "" before the job is submitted.
func (t *Transfer[S, R]) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// State returns the current lifecycle state.
func (t *Transfer[S, R]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transfer[S, R]) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Start submits the job.
func (t *Transfer[S, R]) Start(ctx context.Context) (sfmeta.AsyncResult, error) {
	t.mu.Lock()
	t.canceled = false
	t.mu.Unlock()

	res, err := t.op.Pre(ctx)
	if err != nil {
		t.setState(StateFailed)
		return res, err
	}

	t.mu.Lock()
	t.id = res.ID
	t.state = StateStarted
	t.mu.Unlock()
	return res, nil
}

// CheckStatus fetches the current remote state of the job once.
func (t *Transfer[S, R]) CheckStatus(ctx context.Context) (S, error) {
	id := t.ID()
	if id == "" {
		var zero S
		return zero, fmt.Errorf("%w: cannot check status before the job is started", sfmeta.ErrMissingJobID)
	}
	return t.op.CheckStatus(ctx, id)
}

// Cancel requests cancellation. A locally canceled job is finished by the
// next poll without contacting the service.
func (t *Transfer[S, R]) Cancel(ctx context.Context) error {
	t.mu.Lock()
	id := t.id
	if id != "" {
		t.canceled = true
	}
	t.mu.Unlock()

	if id == "" {
		return fmt.Errorf("%w: cannot cancel before the job is started", sfmeta.ErrMissingJobID)
	}
	return t.op.Cancel(ctx, id)
}

func (t *Transfer[S, R]) takeCancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.canceled
	t.canceled = false
	return c
}

// PollStatus checks the job status until it reaches a terminal state, then
// returns the result of Operation.Post.
//
// Errors are wrapped in a TransferError, except a RetryLimitError which is
// returned unchanged. When an error listener is registered the wrapped error
// is delivered to it and PollStatus returns the zero result and a nil error.
func (t *Transfer[S, R]) PollStatus(ctx context.Context, opts PollingOptions) (R, error) {
	var zero R

	id := t.ID()
	if id == "" {
		return zero, fmt.Errorf("%w: cannot poll before the job is started", sfmeta.ErrMissingJobID)
	}

	frequency, timeout, limit := opts.resolve(t.op.ComponentCount(), t.retryLimit)
	t.setState(StatePolling)

	status, err := t.pollUntilDone(ctx, id, frequency, timeout, &errorBudget{limit: limit})
	if err != nil {
		var rle *RetryLimitError
		if errors.As(err, &rle) {
			t.setState(StateFailed)
			return zero, err
		}
		return zero, t.fail(err)
	}

	result, err := t.op.Post(ctx, status)
	if err != nil {
		return zero, t.fail(err)
	}

	if status.IsCanceled() {
		t.setState(StateCanceled)
		t.events.emitCancel(&status)
	} else {
		t.setState(StateFinished)
		t.events.emitFinish(result)
	}
	return result, nil
}

func (t *Transfer[S, R]) fail(err error) error {
	t.setState(StateFailed)
	wrapped := wrap(err)
	if t.events.emitError(wrapped) {
		return nil
	}
	return wrapped
}

// errorBudget counts consecutive transient failures within one PollStatus run.
type errorBudget struct {
	limit    int
	failures int
}

type step[S Status] struct {
	status    S
	completed bool
	err       error
}

// pollUntilDone runs poll steps frequency apart until one completes or
// timeout elapses. A step still in flight at the deadline is abandoned.
func (t *Transfer[S, R]) pollUntilDone(ctx context.Context, id string, frequency, timeout time.Duration, budget *errorBudget) (S, error) {
	var zero S

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		stepCtx, cancel := context.WithCancel(ctx)
		done := make(chan step[S], 1)
		go func() { done <- t.poll(stepCtx, id, budget) }()

		select {
		case <-deadline.C:
			cancel()
			return zero, &TimeoutError{}
		case <-ctx.Done():
			cancel()
			return zero, ctx.Err()
		case s := <-done:
			cancel()
			if s.err != nil {
				return zero, s.err
			}
			if s.completed {
				return s.status, nil
			}
		}

		wait := time.NewTimer(frequency)
		select {
		case <-deadline.C:
			wait.Stop()
			return zero, &TimeoutError{}
		case <-ctx.Done():
			wait.Stop()
			return zero, ctx.Err()
		case <-wait.C:
		}
	}
}

func (t *Transfer[S, R]) poll(ctx context.Context, id string, budget *errorBudget) step[S] {
	if t.takeCancel() {
		if status, ok := t.op.CanceledStatus(id); ok {
			return step[S]{status: status, completed: true}
		}
	}

	status, err := t.op.CheckStatus(ctx, id)
	if err != nil {
		if !t.classifier.IsTransient(err) {
			return step[S]{err: err}
		}
		budget.failures++
		if budget.failures > budget.limit {
			return step[S]{err: &RetryLimitError{Limit: budget.limit, Err: err}}
		}
		t.logger.Warn("Error checking status of job %s (%d/%d), retrying: %v", id, budget.failures, budget.limit, err)
		return step[S]{}
	}

	budget.failures = 0
	if status.IsDone() {
		return step[S]{status: status, completed: true}
	}
	if ctx.Err() == nil {
		t.events.emitUpdate(status)
	}
	return step[S]{status: status}
}
