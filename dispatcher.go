package stamper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ygrebnov/errorc"
	"golang.org/x/sync/errgroup"
)

// Partition splits items into n contiguous batches, in order.
// Batches 0..n-2 hold len(items)/n items each; the last batch holds the rest.
// Concatenating the batches reproduces items exactly. Batches share the backing
// array of items but are capped, so appending to one never overwrites another.
func Partition[T any](items []T, n int) ([][]T, error) {
	if n < 1 {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("batches", "Partition requires n > 0"))
	}

	per := len(items) / n
	batches := make([][]T, n)
	for i := 0; i < n-1; i++ {
		lo, hi := i*per, (i+1)*per
		batches[i] = items[lo:hi:hi]
	}
	lo := (n - 1) * per
	batches[n-1] = items[lo:len(items):len(items)]
	return batches, nil
}

// BatchDispatcher statically partitions tasks into one batch per executor and
// runs every batch sequentially on its own goroutine. A collector per executor
// waits for the executor's count and reports it.
//
// There is no shared queue and no interrupt handling: a run is all-or-nothing.
// The only early stop is the fatal one, when a task fails with ErrSpawnFailed;
// remaining items are then skipped and in-flight siblings see their context cancelled.
type BatchDispatcher struct {
	size   int
	runID  string
	logger *slog.Logger
	ins    instruments
}

// NewBatchDispatcher creates a dispatcher; WithWorkers sets the number of executors.
func NewBatchDispatcher(opts ...Option) (*BatchDispatcher, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return &BatchDispatcher{
		size:   int(cfg.Workers),
		runID:  cfg.RunID,
		logger: cfg.Logger.With("component", "batch", "run_id", cfg.RunID),
		ins:    newInstruments(cfg.Metrics),
	}, nil
}

// Size returns the number of executors.
func (d *BatchDispatcher) Size() int { return d.size }

// Dispatch runs tasks and blocks until every collector has reported.
// The returned error wraps ErrSpawnFailed when the run was aborted.
func (d *BatchDispatcher) Dispatch(ctx context.Context, tasks []Task) (Report, error) {
	batches, err := Partition(tasks, d.size)
	if err != nil {
		return Report{}, err
	}
	for i, b := range batches {
		d.logger.Info("batch prepared", "batch", i, "size", len(b))
	}
	d.ins.enqueued.Add(int64(len(tasks)))

	g, gctx := errgroup.WithContext(ctx)

	// one-slot futures: each executor delivers exactly one count
	futures := make([]chan int, len(batches))
	for i, b := range batches {
		futures[i] = make(chan int, 1)
		g.Go(func() error {
			d.ins.live.Add(1)
			defer d.ins.live.Add(-1)

			processed, err := d.execute(gctx, b)
			futures[i] <- processed
			return err
		})
	}

	reports := make([]BatchReport, len(batches))
	var collectors sync.WaitGroup
	collectors.Add(len(batches))
	for i := range batches {
		go func() {
			defer collectors.Done()
			processed := <-futures[i]
			reports[i] = BatchReport{
				Executor:   i,
				Size:       len(batches[i]),
				Processed:  processed,
				FinishedAt: time.Now(),
			}
			d.logger.Info("batch finished",
				"batch", i,
				"processed", processed,
				"finished_at", reports[i].FinishedAt,
			)
		}()
	}
	collectors.Wait()

	err = g.Wait()
	return newBatchReport(d.runID, len(tasks), reports), err
}

// execute runs batch strictly in order and returns how many tasks it ran.
func (d *BatchDispatcher) execute(ctx context.Context, batch []Task) (int, error) {
	processed := 0
	for _, t := range batch {
		if ctx.Err() != nil {
			// a sibling hit a fatal error
			return processed, nil
		}
		if t.isSentinel() {
			continue
		}

		processed++
		start := time.Now()
		err := t.run(ctx)
		d.ins.duration.Record(time.Since(start).Seconds())
		d.ins.processed.Add(1)
		if err == nil {
			continue
		}

		d.ins.failed.Add(1)
		if errors.Is(err, ErrSpawnFailed) {
			d.logger.Error("cannot launch task process", errorAttrs(err)...)
			return processed, err
		}
		d.logger.Debug("task failed", errorAttrs(err)...)
	}
	return processed, nil
}
