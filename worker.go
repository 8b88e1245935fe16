package stamper

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// ExitReason tells why a pool worker stopped.
type ExitReason string

const (
	// ExitDrained means the worker consumed a stop marker after the real tasks queued ahead of it.
	ExitDrained ExitReason = "drained"
	// ExitForced means the worker observed a forced shutdown request.
	ExitForced ExitReason = "forced"
)

// ExitRecord is emitted exactly once per worker, when its goroutine exits.
type ExitRecord struct {
	Worker     int        `json:"worker"`
	FinishedAt time.Time  `json:"finished_at"`
	Processed  int        `json:"processed"`
	Reason     ExitReason `json:"reason"`
}

// worker owns one goroutine draining the shared queue.
// processed is private to the worker goroutine and surfaces only through its ExitRecord.
type worker struct {
	id        int
	processed int

	queue    *taskQueue
	dequeued *atomic.Int32
	ins      instruments
	logger   *slog.Logger
	abort    func(error)
}

func newWorker(id int, q *taskQueue, dequeued *atomic.Int32, ins instruments, logger *slog.Logger, abort func(error)) *worker {
	return &worker{id: id, queue: q, dequeued: dequeued, ins: ins, logger: logger, abort: abort}
}

// run consumes tasks until the queue reports shutdown or a stop marker is dequeued.
func (w *worker) run(ctx context.Context) ExitRecord {
	for {
		t, ok := w.queue.pop()
		if !ok {
			return w.exitRecord(ExitForced)
		}
		if t.isSentinel() {
			return w.exitRecord(ExitDrained)
		}
		w.processed++
		w.dequeued.Add(1)
		w.execute(ctx, t)
	}
}

func (w *worker) execute(ctx context.Context, t Task) {
	start := time.Now()
	err := t.run(ctx)
	w.ins.duration.Record(time.Since(start).Seconds())
	w.ins.processed.Add(1)

	if err == nil {
		return
	}
	w.ins.failed.Add(1)

	if errors.Is(err, ErrSpawnFailed) {
		w.logger.Error("cannot launch task process", append([]any{"worker", w.id}, errorAttrs(err)...)...)
		w.abort(err)
		return
	}
	// A task that ran but failed counts as done.
	w.logger.Debug("task failed", append([]any{"worker", w.id}, errorAttrs(err)...)...)
}

func (w *worker) exitRecord(reason ExitReason) ExitRecord {
	return ExitRecord{
		Worker:     w.id,
		FinishedAt: time.Now(),
		Processed:  w.processed,
		Reason:     reason,
	}
}
