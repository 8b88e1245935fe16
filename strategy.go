package stamper

import (
	"context"

	"github.com/ygrebnov/errorc"
)

// Strategy names accepted by NewStrategy.
const (
	StrategyPool  = "pool"
	StrategyBatch = "batch"
)

// Strategy dispatches a complete list of tasks and owns the whole lifecycle of
// the executors it creates.
type Strategy interface {
	Name() string
	Dispatch(ctx context.Context, tasks []Task) (Report, error)
}

// NewStrategy returns the strategy registered under name.
// watcher is used by the pool strategy only.
func NewStrategy(name string, watcher Watcher, opts ...Option) (Strategy, error) {
	switch name {
	case StrategyPool:
		return PoolStrategy{Watcher: watcher, Options: opts}, nil
	case StrategyBatch:
		return BatchStrategy{Options: opts}, nil
	default:
		return nil, errorc.With(ErrInvalidConfig, errorc.String("strategy", name))
	}
}

// PoolStrategy feeds every task to a new Pool, requests a graceful shutdown and
// supervises the drain with Watcher. Cancelling ctx forces the shutdown; the
// returned report is then marked Interrupted, holds the exit records emitted
// before the grace period ended and counts as processed every task a worker
// had started.
type PoolStrategy struct {
	Watcher Watcher
	Options []Option
}

func (PoolStrategy) Name() string { return StrategyPool }

// Dispatch runs tasks on a pool. An empty list starts no worker.
func (s PoolStrategy) Dispatch(ctx context.Context, tasks []Task) (Report, error) {
	if len(tasks) == 0 {
		return Report{Strategy: StrategyPool}, nil
	}

	// Interrupts reach child processes through their process group;
	// only a fatal abort cancels the tasks context.
	p, err := NewPool(context.WithoutCancel(ctx), s.Options...)
	if err != nil {
		return Report{}, err
	}
	for _, t := range tasks {
		p.Enqueue(t)
	}
	p.RequestGracefulShutdown()

	if s.Watcher.Watch(ctx, p) {
		r := p.Report()
		r.Files = len(tasks)
		r.Interrupted = true
		// workers still inside a task have no exit record yet
		r.Processed = p.Dequeued()
		return r, p.Err()
	}

	r, err := p.Wait()
	r.Files = len(tasks)
	return r, err
}

// BatchStrategy runs tasks on a BatchDispatcher. It ignores cancellation of ctx.
type BatchStrategy struct {
	Options []Option
}

func (BatchStrategy) Name() string { return StrategyBatch }

// Dispatch runs tasks in static batches. An empty list starts no executor.
func (s BatchStrategy) Dispatch(ctx context.Context, tasks []Task) (Report, error) {
	if len(tasks) == 0 {
		return Report{Strategy: StrategyBatch}, nil
	}
	d, err := NewBatchDispatcher(s.Options...)
	if err != nil {
		return Report{}, err
	}
	return d.Dispatch(context.WithoutCancel(ctx), tasks)
}
