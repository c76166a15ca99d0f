package logging

import (
	"sync"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// OnceWarner forwards a warning to its logger the first time a key is seen
// and drops repeats. Share one value to get process-wide at-most-once
// warnings. Safe for concurrent use.
type OnceWarner struct {
	logger sfmeta.Logger
	seen   sync.Map
}

// NewOnceWarner creates a warner writing to logger.
func NewOnceWarner(logger sfmeta.Logger) *OnceWarner {
	if logger == nil {
		logger = NewNullLogger()
	}
	return &OnceWarner{logger: logger}
}

// WarnOnce logs the warning unless key was already warned about.
func (w *OnceWarner) WarnOnce(key, format string, args ...interface{}) {
	if _, loaded := w.seen.LoadOrStore(key, struct{}{}); loaded {
		return
	}
	w.logger.Warn(format, args...)
}

// Warned reports whether key has been warned about.
func (w *OnceWarner) Warned(key string) bool {
	_, ok := w.seen.Load(key)
	return ok
}

// Reset forgets every key.
func (w *OnceWarner) Reset() {
	w.seen.Clear()
}
