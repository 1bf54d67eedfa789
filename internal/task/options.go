package task

import (
	"time"

	"go.uber.org/zap"

	"github.com/Norgate-AV/lessbuild/internal/daemon"
)

type Option func(*Task)

// WithLogger sets the logger for the task and its daemon.
func WithLogger(log *zap.Logger) Option {
	return func(t *Task) {
		t.logger = log.With(zap.String("service", "compilation"))
	}
}

// WithListener sets the listener notified by the daemon after passes that
// compiled something.
func WithListener(l daemon.Listener) Option {
	return func(t *Task) {
		t.listener = l
	}
}

// WithParallelism limits how many units compile at once. Values below 1 mean
// sequential compilation.
func WithParallelism(n int) Option {
	return func(t *Task) {
		t.parallelism = max(n, 1)
	}
}

// WithClock overrides the time source used for failure timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Task) {
		t.now = now
	}
}
