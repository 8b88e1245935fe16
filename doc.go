// Package stamper dispatches independent tasks, typically "run an external
// annotation process on one file", across a bounded set of concurrent executors.
//
// Two dispatch strategies solve the same problem:
//   - Pool (PoolStrategy): N persistent workers drain a shared FIFO queue.
//     Shutdown is either graceful (one stop marker per worker, queued behind
//     the real tasks) or forced (a shared flag that makes every idle worker
//     exit at once, leaving queued tasks unprocessed).
//   - BatchDispatcher (BatchStrategy): the task list is split into N contiguous
//     batches, each run sequentially by its own executor; a collector per
//     executor reports its completion.
//
// Watcher bridges an interrupt, delivered as context cancellation, into
// Pool.RequestForcedShutdown.
//
// Collaborators
//   - Lister (DirLister) enumerates the files to process.
//   - Runner (ExecRunner) launches the external process; Annotator turns a file
//     into a Task using a program and an argument template.
//
// Errors
// A task failing with ErrSpawnFailed is fatal for the whole run: the pool or
// dispatcher stops, cancels the context of in-flight siblings and reports the
// error. Any other task error is logged and the task counts as done; a
// non-zero exit of the external process is not an error. Nothing is retried.
package stamper
