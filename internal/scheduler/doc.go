// Package scheduler provides the recurring task scheduler for Habitat Core.
//
// The scheduler keeps a min-heap of tasks ordered solely by execution
// time and drains due tasks from a single dispatch loop. It drives the
// whole control cadence: telemetry aggregation, rule evaluation,
// telemetry archival, scheduled feedings, and the deferred
// self-deactivation of actuators.
//
// # Key Types
//
//   - Task: One-shot or recurring unit of work with an absolute due time
//   - Priority: Informational label carried on tasks (never affects order)
//   - Scheduler: Mutex-guarded queue plus the single dispatch loop
//
// # Ordering and Catch-up
//
// Tasks due at the same instant dispatch in insertion order. Recurring
// tasks advance by their interval after each run; when the loop has
// stalled past one or more occurrences, the next due time jumps forward
// by whole multiples of the interval so the task fires at most once per
// tick and missed occurrences are skipped.
//
// # Failure Semantics
//
// Callback errors and panics are caught and logged. A failed one-shot
// task is dropped; a recurring task is rescheduled regardless of the
// outcome. Rescheduling depends only on the presence of a repeat
// interval.
//
// # Usage
//
//	sched := scheduler.New()
//	sched.SetLogger(log)
//
//	go sched.Run(ctx)
//
//	id, _ := sched.Schedule(scheduler.Task{
//	    ExecuteAt: time.Now().Add(5 * time.Second),
//	    Repeat:    10 * time.Second,
//	    Callback:  processTelemetry,
//	})
//	_ = sched.Cancel(id)
package scheduler
