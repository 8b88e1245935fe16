package stamper

import (
	"sync"
	"sync/atomic"
)

// taskQueue is an unbounded FIFO of pending tasks shared by all pool workers
// and the submitter. Every operation runs under a single mutex, so pushes and
// pops are linearizable and order is exactly insertion order.
//
// The shutdown flag is owned by the pool (it is part of the pool state) but
// is only ever set through taskQueue.shutdown, under the queue lock, so a
// popper can never miss the wake-up.
type taskQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []Task
	head  int

	stopped *atomic.Bool
}

func newTaskQueue(stopped *atomic.Bool) *taskQueue {
	q := &taskQueue{stopped: stopped}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends t to the tail. It is a no-op returning false once shutdown
// has been requested.
func (q *taskQueue) push(t Task) bool {
	q.mu.Lock()
	if q.stopped.Load() {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, t)
	q.mu.Unlock()
	q.cond.Signal()
	return true
}

// pop blocks until the queue is non-empty or shutdown is requested.
// The second result is false when the caller must terminate; in that case
// queued items are left untouched. A true result may carry a nil (sentinel) task.
func (q *taskQueue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.items) && !q.stopped.Load() {
		q.cond.Wait()
	}
	if q.stopped.Load() {
		return nil, false
	}

	t := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	if q.head == len(q.items) {
		// reuse the backing array once fully drained
		q.items = q.items[:0]
		q.head = 0
	}
	return t, true
}

// shutdown sets the stop flag and wakes every blocked popper.
func (q *taskQueue) shutdown() {
	q.mu.Lock()
	q.stopped.Store(true)
	q.mu.Unlock()
	q.cond.Broadcast()
}

// len returns the number of queued items, sentinels included.
func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
