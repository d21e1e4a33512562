package scheduler

import (
	"context"
	"time"
)

// Priority indicates the importance of a scheduled task.
//
// Priority is informational only: it is carried on the task and surfaced
// in status queries, but it does not participate in dispatch ordering.
// Tasks are ordered strictly by execution time, with ties broken by
// insertion order.
type Priority int

// Task priority levels.
const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns the human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Callback is the work a task performs when dispatched.
//
// Callbacks run synchronously on the scheduler loop; a slow callback
// delays all subsequently due tasks. Errors are logged and counted as a
// failed execution but never propagate out of the loop.
type Callback func(ctx context.Context) error

// Task is a unit of work scheduled for execution at an absolute time.
//
// A Task with a non-zero Repeat is recurring: after each run (successful
// or not) it is replaced by a new instance with an advanced ExecuteAt.
type Task struct {
	// ID uniquely identifies the task for cancellation and status queries.
	ID string

	// ExecuteAt is the absolute time the task becomes due.
	ExecuteAt time.Time

	// Priority is informational only; it never affects dispatch order.
	Priority Priority

	// Callback is invoked when the task is dispatched.
	Callback Callback

	// Repeat, when non-zero, reschedules the task this long after its
	// previous due time. Missed occurrences are skipped, not replayed.
	Repeat time.Duration
}

// queuedTask wraps a Task with the bookkeeping the heap needs.
type queuedTask struct {
	task Task

	// seq breaks execution-time ties in insertion order.
	seq uint64

	// index is maintained by heap.Interface for O(log n) removal.
	index int
}

// taskQueue is a min-heap of tasks ordered by execution time, then
// insertion sequence. It implements heap.Interface.
type taskQueue []*queuedTask

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].task.ExecuteAt.Equal(q[j].task.ExecuteAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].task.ExecuteAt.Before(q[j].task.ExecuteAt)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	item := x.(*queuedTask)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}
