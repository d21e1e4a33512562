package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// tickInterval is how often the dispatch loop checks for due tasks.
// Coarse by design: the system targets sub-second responsiveness, not
// real-time guarantees.
const tickInterval = 100 * time.Millisecond

// Logger defines the logging interface used by the Scheduler.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Scheduler maintains a time-ordered queue of one-shot and recurring
// tasks and dispatches due tasks from a single loop.
//
// Ordering is strictly by execution time; tasks due at the same instant
// dispatch in insertion order regardless of priority. Task callbacks run
// synchronously on the loop, so a slow task delays everything behind it.
//
// Thread Safety:
//   - All public methods are safe for concurrent use. A single mutex
//     covers insert, peek-pop, and cancel as atomic units.
type Scheduler struct {
	mu      sync.Mutex
	queue   taskQueue
	seq     uint64
	running bool

	logger Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// New creates a new Scheduler.
func New() *Scheduler {
	return &Scheduler{
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// Schedule inserts a task into the queue.
//
// A task with an empty ID is assigned a generated one. The task's ID is
// returned so callers can cancel it later. IDs are unique among pending
// tasks; to replace a task, cancel it first.
//
// Parameters:
//   - task: Task to queue; ExecuteAt may be in the past (dispatches on
//     the next tick)
//
// Returns:
//   - string: The task ID
//   - error: ErrNilCallback if the task has no callback, ErrTaskExists
//     if a pending task already holds the ID
func (s *Scheduler) Schedule(task Task) (string, error) {
	if task.Callback == nil {
		return "", ErrNilCallback
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	s.mu.Lock()
	for _, item := range s.queue {
		if item.task.ID == task.ID {
			s.mu.Unlock()
			return "", fmt.Errorf("%w: %q", ErrTaskExists, task.ID)
		}
	}
	s.seq++
	heap.Push(&s.queue, &queuedTask{task: task, seq: s.seq})
	s.mu.Unlock()

	s.logger.Debug("task scheduled",
		"task_id", task.ID,
		"execute_at", task.ExecuteAt,
		"repeat", task.Repeat,
	)
	return task.ID, nil
}

// ScheduleAtClock schedules a task for the next occurrence of a local
// "HH:MM" clock time.
//
// If the clock time has already passed today, the task is scheduled for
// tomorrow. With a repeat of 24h this yields a daily task.
//
// Parameters:
//   - id: Task ID (empty for generated)
//   - clock: Time of day in "HH:MM" 24-hour format
//   - priority: Informational priority
//   - cb: Callback to run
//   - repeat: Recurrence interval, or 0 for one-shot
//
// Returns:
//   - string: The task ID
//   - error: ErrInvalidClockTime if clock cannot be parsed
func (s *Scheduler) ScheduleAtClock(id, clock string, priority Priority, cb Callback, repeat time.Duration) (string, error) {
	executeAt, err := NextClockTime(s.now(), clock)
	if err != nil {
		return "", err
	}
	return s.Schedule(Task{
		ID:        id,
		ExecuteAt: executeAt,
		Priority:  priority,
		Callback:  cb,
		Repeat:    repeat,
	})
}

// NextClockTime computes the next occurrence of a local "HH:MM" clock
// time strictly relative to now: today if still ahead, otherwise tomorrow.
func NextClockTime(now time.Time, clock string) (time.Time, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(clock, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, clock)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, clock)
	}

	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if target.Before(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target, nil
}

// Cancel removes a pending task by ID.
//
// Cancellation is best-effort: a task already mid-dispatch completes.
// Cancelling an unknown ID is not an error condition for callers that
// only care about idempotence; they can ignore ErrTaskNotFound.
//
// Returns:
//   - error: ErrTaskNotFound if no pending task has the given ID
func (s *Scheduler) Cancel(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Identity scan; the queue is small enough that O(n) is fine.
	for _, item := range s.queue {
		if item.task.ID == taskID {
			heap.Remove(&s.queue, item.index)
			s.logger.Debug("task cancelled", "task_id", taskID)
			return nil
		}
	}
	return ErrTaskNotFound
}

// Run operates the dispatch loop until the context is cancelled.
//
// On each tick the loop pops every task whose execution time has been
// reached and runs it synchronously. Recurring tasks are re-queued with
// an advanced execution time whether or not the callback succeeded; the
// reschedule decision depends only on the presence of a repeat interval.
//
// Returns:
//   - error: ErrAlreadyRunning if a loop is already active, else nil
//     once the context is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("scheduler started")

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

// dispatchDue pops and executes at most one due task.
//
// Dispatching one task per tick bounds how much a burst of due tasks can
// monopolise the loop and guarantees a recurring task fires at most once
// per tick even after a long stall.
func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due *queuedTask
	if len(s.queue) > 0 && !s.queue[0].task.ExecuteAt.After(now) {
		due = heap.Pop(&s.queue).(*queuedTask)
	}
	s.mu.Unlock()

	if due == nil {
		return
	}

	task := due.task
	s.logger.Debug("dispatching task", "task_id", task.ID, "priority", task.Priority.String())
	err := s.execute(ctx, task)
	if err != nil {
		s.logger.Error("task execution failed", "task_id", task.ID, "error", err)
	}

	// A failed one-shot task is dropped; a recurring task is always
	// rescheduled. Reproduced from the reference semantics.
	if task.Repeat > 0 {
		task.ExecuteAt = nextOccurrence(task.ExecuteAt, task.Repeat, s.now())
		s.mu.Lock()
		s.seq++
		heap.Push(&s.queue, &queuedTask{task: task, seq: s.seq})
		s.mu.Unlock()
		s.logger.Debug("task rescheduled", "task_id", task.ID, "execute_at", task.ExecuteAt)
	}
}

// execute runs a task callback, converting panics into errors so a
// misbehaving task cannot take down the loop.
func (s *Scheduler) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.ID, r)
		}
	}()
	return task.Callback(ctx)
}

// nextOccurrence advances prev by the smallest whole number of intervals
// that brings the result to now or later. Missed occurrences are skipped
// silently rather than replayed; a stall of an exact multiple of the
// interval lands on now itself, not one interval past it.
func nextOccurrence(prev time.Time, interval time.Duration, now time.Time) time.Time {
	next := prev.Add(interval)
	if next.Before(now) {
		missed := now.Sub(prev) / interval
		next = prev.Add(missed * interval)
		if next.Before(now) {
			next = next.Add(interval)
		}
	}
	return next
}

// Running reports whether the dispatch loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// NextTask returns the ID and execution time of the earliest queued task.
//
// Returns:
//   - string: Task ID ("" when the queue is empty)
//   - time.Time: Execution time (zero when the queue is empty)
//   - bool: Whether a task is queued
func (s *Scheduler) NextTask() (string, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", time.Time{}, false
	}
	head := s.queue[0]
	return head.task.ID, head.task.ExecuteAt, true
}
