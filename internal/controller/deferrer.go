package controller

import (
	"context"
	"errors"
	"time"

	"github.com/habitatworks/habitat-core/internal/scheduler"
)

// SchedulerDeferrer adapts the task scheduler to the governor's
// Deferrer interface so self-deactivations run as cancellable delayed
// tasks on the main scheduling loop.
type SchedulerDeferrer struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerDeferrer wraps a scheduler for deferred actuator events.
func NewSchedulerDeferrer(s *scheduler.Scheduler) *SchedulerDeferrer {
	return &SchedulerDeferrer{scheduler: s}
}

// After schedules fn to run once after delay. An existing task with
// the same ID is replaced.
func (d *SchedulerDeferrer) After(id string, delay time.Duration, fn func(ctx context.Context) error) error {
	if err := d.Cancel(id); err != nil {
		return err
	}
	_, err := d.scheduler.Schedule(scheduler.Task{
		ID:        id,
		ExecuteAt: time.Now().Add(delay),
		Priority:  scheduler.PriorityHigh,
		Callback:  fn,
	})
	return err
}

// Cancel removes a pending deferred task. A task that already ran (or
// never existed) is not an error.
func (d *SchedulerDeferrer) Cancel(id string) error {
	err := d.scheduler.Cancel(id)
	if errors.Is(err, scheduler.ErrTaskNotFound) {
		return nil
	}
	return err
}
