package transfer

import "sync"

// listeners holds the four independent event registrations of a transfer.
type listeners[S Status, R any] struct {
	mu     sync.Mutex
	update []func(S)
	finish []func(R)
	cancel []func(*S)
	errs   []func(error)
}

// OnUpdate registers fn to receive every in-progress status.
func (t *Transfer[S, R]) OnUpdate(fn func(status S)) {
	t.events.mu.Lock()
	defer t.events.mu.Unlock()
	t.events.update = append(t.events.update, fn)
}

// OnFinish registers fn to receive the result of a job that was not canceled.
func (t *Transfer[S, R]) OnFinish(fn func(result R)) {
	t.events.mu.Lock()
	defer t.events.mu.Unlock()
	t.events.finish = append(t.events.finish, fn)
}

// OnCancel registers fn to receive the final status of a canceled job.
func (t *Transfer[S, R]) OnCancel(fn func(status *S)) {
	t.events.mu.Lock()
	defer t.events.mu.Unlock()
	t.events.cancel = append(t.events.cancel, fn)
}

// OnError registers fn to receive polling failures. While any error listener
// is registered, PollStatus reports failures here and returns a nil error.
func (t *Transfer[S, R]) OnError(fn func(err error)) {
	t.events.mu.Lock()
	defer t.events.mu.Unlock()
	t.events.errs = append(t.events.errs, fn)
}

// copyOf returns a snapshot of fns taken under the listener lock.
func copyOf[F any](mu *sync.Mutex, fns *[]F) []F {
	mu.Lock()
	defer mu.Unlock()
	return append([]F(nil), (*fns)...)
}

func (l *listeners[S, R]) emitUpdate(status S) {
	for _, fn := range copyOf(&l.mu, &l.update) {
		fn(status)
	}
}

func (l *listeners[S, R]) emitFinish(result R) {
	for _, fn := range copyOf(&l.mu, &l.finish) {
		fn(result)
	}
}

func (l *listeners[S, R]) emitCancel(status *S) {
	for _, fn := range copyOf(&l.mu, &l.cancel) {
		fn(status)
	}
}

// emitError delivers err and reports whether anyone was listening.
func (l *listeners[S, R]) emitError(err error) bool {
	fns := copyOf(&l.mu, &l.errs)
	for _, fn := range fns {
		fn(err)
	}
	return len(fns) > 0
}
