package stamper

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultPollInterval is the Watcher poll period when Interval is not set.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultGracePeriod is the wait after a forced shutdown when Grace is zero.
	DefaultGracePeriod = 5 * time.Second
)

// Stoppable is what a Watcher supervises.
type Stoppable interface {
	IsActive() bool
	RequestForcedShutdown()
}

// Watcher turns a cancellation of its context into a forced shutdown of a pool.
//
// It is meant to run after all tasks have been submitted and a graceful
// shutdown requested. The grace period gives child processes, which receive
// the same interrupt through their process group, time to exit; the watcher
// does not wait for the workers themselves.
type Watcher struct {
	// Interval between two IsActive polls. Default: DefaultPollInterval.
	Interval time.Duration
	// Grace is how long to wait after forcing the shutdown.
	// Zero means DefaultGracePeriod; a negative value disables the wait.
	Grace time.Duration
	// Logger receives the interrupt notice. Default: discard.
	Logger *slog.Logger
}

// Watch blocks until target drains or ctx is done.
// It returns true when the shutdown had to be forced.
func (w Watcher) Watch(ctx context.Context, target Stoppable) bool {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	grace := w.Grace
	switch {
	case grace == 0:
		grace = DefaultGracePeriod
	case grace < 0:
		grace = 0
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for target.IsActive() {
		select {
		case <-t.C:
		case <-ctx.Done():
			logger.Warn("Requesting forced pool shutdown", "cause", context.Cause(ctx))
			target.RequestForcedShutdown()
			if grace > 0 {
				logger.Info("waiting for child processes", "grace", grace)
				time.Sleep(grace)
			}
			return true
		}
	}
	return false
}
