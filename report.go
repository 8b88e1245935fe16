package stamper

import (
	"sort"
	"time"
)

// BatchReport is produced by a BatchDispatcher collector once its executor completes.
type BatchReport struct {
	Executor   int       `json:"executor"`
	Size       int       `json:"size"`
	Processed  int       `json:"processed"`
	FinishedAt time.Time `json:"finished_at"`
}

// Report summarizes one dispatch run, whichever strategy performed it.
//
// Processed is the sum of the per-worker (pool) or per-executor (batch) counts.
// A pool run that was interrupted may list fewer exit records than workers:
// the watcher does not wait for workers stuck in a long-running task. Its
// Processed is then the number of tasks started (Pool.Dequeued), in-flight
// ones included, so Files-Processed tasks were never run.
type Report struct {
	RunID       string        `json:"run_id"`
	Strategy    string        `json:"strategy"`
	Files       int           `json:"files"`
	Processed   int           `json:"processed"`
	Interrupted bool          `json:"interrupted"`
	Workers     []ExitRecord  `json:"workers,omitempty"`
	Batches     []BatchReport `json:"batches,omitempty"`
}

func newPoolReport(runID string, records []ExitRecord) Report {
	rs := append([]ExitRecord(nil), records...)
	sort.Slice(rs, func(i, j int) bool { return rs[i].Worker < rs[j].Worker })

	r := Report{RunID: runID, Strategy: StrategyPool, Workers: rs}
	for _, rec := range rs {
		r.Processed += rec.Processed
	}
	return r
}

func newBatchReport(runID string, files int, batches []BatchReport) Report {
	bs := append([]BatchReport(nil), batches...)
	sort.Slice(bs, func(i, j int) bool { return bs[i].Executor < bs[j].Executor })

	r := Report{RunID: runID, Strategy: StrategyBatch, Files: files, Batches: bs}
	for _, b := range bs {
		r.Processed += b.Processed
	}
	return r
}
