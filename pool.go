package stamper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Pool runs a fixed set of persistent workers draining a shared FIFO queue.
// Pool is a concrete struct; methods are safe for concurrent use.
//
// Shutdown comes in two flavours:
//   - RequestGracefulShutdown enqueues one stop marker per live worker, so every
//     real task submitted earlier is executed first.
//   - RequestForcedShutdown sets the shutdown flag directly; workers blocked on the
//     queue wake up and exit without draining it. A task already running is not
//     interrupted.
//
// A task failing with ErrSpawnFailed aborts the pool: the error is recorded, a
// forced shutdown is requested and the context handed to running tasks is cancelled.
type Pool struct {
	// noCopy prevents accidental copying of the pool.
	//go:nocopy
	nc noCopy

	size   int
	runID  string
	logger *slog.Logger
	ins    instruments

	// tasks context; cancelled on fatal abort and once every worker has exited
	ctx    context.Context
	cancel context.CancelFunc

	queue    *taskQueue
	stopped  atomic.Bool
	graceful atomic.Bool
	live     atomic.Int32
	// real tasks taken off the queue, running ones included
	dequeued atomic.Int32

	workersWG sync.WaitGroup

	mu          sync.Mutex
	records     []ExitRecord
	forcedExits int
	fatalErr    error
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// NewPool creates a pool and starts its workers immediately.
// ctx is passed to every task; cancelling it cancels in-flight tasks but does
// not stop the workers (use the shutdown requests for that).
func NewPool(ctx context.Context, opts ...Option) (*Pool, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		size:   int(cfg.Workers),
		runID:  cfg.RunID,
		logger: cfg.Logger.With("component", "pool", "run_id", cfg.RunID),
		ins:    newInstruments(cfg.Metrics),
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.queue = newTaskQueue(&p.stopped)
	p.records = make([]ExitRecord, 0, p.size)

	p.live.Store(int32(p.size))
	p.ins.live.Add(int64(p.size))
	p.workersWG.Add(p.size)
	for i := 0; i < p.size; i++ {
		w := newWorker(i, p.queue, &p.dequeued, p.ins, p.logger, p.abort)
		go func() {
			defer p.workersWG.Done()
			p.finish(w.run(p.ctx))
		}()
	}

	p.logger.Debug("pool started", "workers", p.size)
	return p, nil
}

// finish publishes a worker exit record. The live count is decremented only
// after the record is visible, so IsActive turns false after the last record.
func (p *Pool) finish(rec ExitRecord) {
	p.mu.Lock()
	p.records = append(p.records, rec)
	if rec.Reason == ExitForced {
		p.forcedExits++
	}
	p.mu.Unlock()

	p.logger.Info("worker finished",
		"worker", rec.Worker,
		"finished_at", rec.FinishedAt,
		"processed", rec.Processed,
		"reason", rec.Reason,
	)

	p.ins.live.Add(-1)
	if p.live.Add(-1) == 0 {
		p.logger.Debug("pool inactive", "state", p.State().String())
	}
}

// abort handles a fatal task error. Only the first error is kept.
func (p *Pool) abort(err error) {
	p.mu.Lock()
	if p.fatalErr == nil {
		p.fatalErr = err
	}
	p.mu.Unlock()

	// stop first: a sibling unblocked by cancel must not pick up another task
	p.RequestForcedShutdown()
	p.cancel()
}

// Size returns the number of workers the pool was created with.
func (p *Pool) Size() int { return p.size }

// RunID returns the identifier attached to the pool's logs and report.
func (p *Pool) RunID() string { return p.runID }

// Enqueue appends t to the queue. It returns false when t is rejected: after a
// forced shutdown request, or when t is nil (stop markers are reserved for
// RequestGracefulShutdown).
func (p *Pool) Enqueue(t Task) bool {
	if t == nil {
		return false
	}
	if !p.queue.push(t) {
		return false
	}
	p.ins.enqueued.Add(1)
	return true
}

// RequestGracefulShutdown enqueues exactly one stop marker per live worker,
// behind every task submitted so far. Only the first call has an effect.
func (p *Pool) RequestGracefulShutdown() {
	if !p.graceful.CompareAndSwap(false, true) {
		return
	}
	n := int(p.live.Load())
	for i := 0; i < n; i++ {
		if !p.queue.push(nil) {
			return
		}
	}
	p.logger.Debug("graceful shutdown requested", "sentinels", n)
}

// RequestForcedShutdown makes every worker exit as soon as it next looks at the
// queue, leaving queued tasks unprocessed. Idempotent.
func (p *Pool) RequestForcedShutdown() {
	if p.stopped.Load() {
		return
	}
	p.queue.shutdown()
	p.logger.Debug("forced shutdown requested", "queued", p.queue.len())
}

// IsActive reports whether at least one worker is still running.
func (p *Pool) IsActive() bool { return p.live.Load() > 0 }

// State returns the current lifecycle state.
func (p *Pool) State() State {
	p.mu.Lock()
	forcedExits := p.forcedExits
	p.mu.Unlock()
	return resolveState(p.live.Load(), p.stopped.Load(), p.graceful.Load(), forcedExits)
}

// Records returns a snapshot of the exit records emitted so far.
func (p *Pool) Records() []ExitRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ExitRecord(nil), p.records...)
}

// Dequeued returns how many real tasks workers have taken off the queue so far,
// including the ones still running. It equals Report().Processed once every
// worker has exited.
func (p *Pool) Dequeued() int { return int(p.dequeued.Load()) }

// Report aggregates the exit records emitted so far.
func (p *Pool) Report() Report {
	return newPoolReport(p.runID, p.Records())
}

// Err returns the fatal error that aborted the pool, if any.
func (p *Pool) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fatalErr
}

// Wait blocks until every worker has exited, whichever shutdown mode was used,
// then returns the aggregated report and the fatal error, if any.
// Without a prior shutdown request Wait blocks forever.
func (p *Pool) Wait() (Report, error) {
	p.workersWG.Wait()
	p.cancel()
	return p.Report(), p.Err()
}

// Close requests a graceful shutdown (a no-op after a forced one) and waits for
// the workers to exit.
func (p *Pool) Close() (Report, error) {
	p.RequestGracefulShutdown()
	return p.Wait()
}
