package stamper

import (
	"context"
	"fmt"
)

// Task is one unit of work executed by a pool worker or a batch executor.
// Invoking it blocks until the work (typically an external process) is done.
//
// A nil Task is the stop marker: a pool worker that dequeues it exits
// gracefully. Sentinels are only ever produced by Pool.RequestGracefulShutdown.
type Task func(context.Context) error

// TaskFunc adapts func(ctx) error to Task.
func TaskFunc(fn func(context.Context) error) Task { return Task(fn) }

// isSentinel reports whether t is the stop marker.
func (t Task) isSentinel() bool { return t == nil }

// run invokes t, converting a panic into ErrTaskPanicked.
func (t Task) run(ctx context.Context) (err error) {
	defer func() {
		if ePanic := recover(); ePanic != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, ePanic)
		}
	}()
	return t(ctx)
}
