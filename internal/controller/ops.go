package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/habitatworks/habitat-core/internal/actuator"
	"github.com/habitatworks/habitat-core/internal/infrastructure/mqtt"
	"github.com/habitatworks/habitat-core/internal/rules"
	"github.com/habitatworks/habitat-core/internal/scheduler"
	"github.com/habitatworks/habitat-core/internal/sensor"
)

// Pass-through operations for the API layer. The controller owns the
// collaborators, so administrative changes route through here to keep
// the engine, repository and broker consistent.

// AddRule binds a stored rule against the built-in actions, installs it
// in the engine and persists it when a repository is configured.
func (c *Controller) AddRule(ctx context.Context, sr rules.StoredRule) error {
	rule, err := sr.Bind(c.ActionRegistry())
	if err != nil {
		return err
	}
	if err := c.engine.AddRule(rule); err != nil {
		return err
	}
	if c.ruleRepo != nil {
		if err := c.ruleRepo.Create(ctx, &sr); err != nil {
			c.engine.RemoveRule(sr.ID)
			return fmt.Errorf("persisting rule: %w", err)
		}
	}
	return nil
}

// RemoveRule removes a rule from the engine and the repository.
func (c *Controller) RemoveRule(ctx context.Context, id string) error {
	if !c.engine.RemoveRule(id) {
		return rules.ErrRuleNotFound
	}
	if c.ruleRepo != nil {
		if err := c.ruleRepo.Delete(ctx, id); err != nil && !errors.Is(err, rules.ErrRuleNotFound) {
			return fmt.Errorf("deleting persisted rule: %w", err)
		}
	}
	return nil
}

// GetRule returns a rule by ID.
func (c *Controller) GetRule(id string) (rules.Rule, error) {
	return c.engine.GetRule(id)
}

// ListRules returns all rules sorted by ID.
func (c *Controller) ListRules() []rules.Rule {
	return c.engine.ListRules()
}

// ScheduleAction schedules a one-shot or recurring run of a named
// built-in action.
//
// Parameters:
//   - id: Task ID, unique within the scheduler
//   - action: One of the built-in action names
//   - at: First execution time
//   - repeat: Interval for recurring tasks; zero means one-shot
func (c *Controller) ScheduleAction(id, action string, at time.Time, repeat time.Duration) (string, error) {
	fn, ok := c.ActionRegistry()[action]
	if !ok {
		return "", fmt.Errorf("controller: unknown action %q", action)
	}
	return c.scheduler.Schedule(scheduler.Task{
		ID:        id,
		ExecuteAt: at,
		Priority:  scheduler.PriorityNormal,
		Callback:  scheduler.Callback(fn),
		Repeat:    repeat,
	})
}

// ScheduleActionAtClock schedules a named built-in action for the next
// occurrence of a local "HH:MM" clock time.
func (c *Controller) ScheduleActionAtClock(id, action, clock string, repeat time.Duration) (string, error) {
	fn, ok := c.ActionRegistry()[action]
	if !ok {
		return "", fmt.Errorf("controller: unknown action %q", action)
	}
	return c.scheduler.ScheduleAtClock(id, clock, scheduler.PriorityNormal, scheduler.Callback(fn), repeat)
}

// CancelTask cancels a pending scheduled task.
func (c *Controller) CancelTask(id string) error {
	return c.scheduler.Cancel(id)
}

// ActivateActuator runs a device through the governor directly,
// surfacing safety rejections to the caller.
func (c *Controller) ActivateActuator(ctx context.Context, id string, power float64, duration time.Duration) (*actuator.Activation, error) {
	act, err := c.governor.Activate(ctx, id, power, duration)
	if err != nil {
		return nil, err
	}
	if c.archive != nil {
		if info, infoErr := c.governor.Get(id); infoErr == nil {
			c.archive.WriteActuation(*act, info.Type)
		}
	}
	c.publishActuatorState(id)
	return act, nil
}

// DeactivateActuator stops a device.
func (c *Controller) DeactivateActuator(ctx context.Context, id string) error {
	if err := c.governor.Deactivate(ctx, id); err != nil {
		return err
	}
	c.publishActuatorState(id)
	return nil
}

// ActuatorState returns one device's safety state.
func (c *Controller) ActuatorState(id string) (actuator.SafetyState, error) {
	return c.governor.GetState(id)
}

// Actuators returns all registered devices sorted by ID.
func (c *Controller) Actuators() []actuator.Info {
	return c.governor.List()
}

// ActuatorsInError returns the IDs of devices currently in the error state.
func (c *Controller) ActuatorsInError() []string {
	return c.governor.ActuatorsInError()
}

// EmergencyStop halts all actuators and latches the stop flag. The
// event is logged and broadcast.
func (c *Controller) EmergencyStop(ctx context.Context) {
	c.logger.Error("emergency stop activated")
	c.governor.EmergencyStop(ctx)
	c.publishSystemEvent("emergency_stop")
}

// ResetEmergencyStop clears the stop flag so activations may resume.
func (c *Controller) ResetEmergencyStop() {
	c.governor.ResetEmergencyStop()
	c.logger.Info("emergency stop reset")
	c.publishSystemEvent("emergency_stop_reset")
}

// EmergencyStopActive reports whether the stop flag is latched.
func (c *Controller) EmergencyStopActive() bool {
	return c.governor.EmergencyStopActive()
}

// CalibrateSensor applies a single-point offset calibration.
func (c *Controller) CalibrateSensor(id string, reference float64) error {
	return c.sensors.Calibrate(id, reference)
}

// CalibrateSensors calibrates every sensor that has a reference for its
// category. Returns per-sensor success.
func (c *Controller) CalibrateSensors(references map[sensor.Category]float64) map[string]bool {
	return c.sensors.CalibrateAll(references)
}

// publishSystemEvent broadcasts a system event over MQTT.
func (c *Controller) publishSystemEvent(eventType string) {
	if c.broker == nil {
		return
	}
	payload := fmt.Sprintf(`{"event":"%s","timestamp":"%s"}`, eventType, time.Now().UTC().Format(time.RFC3339))
	if err := c.broker.Publish(mqtt.Topics{}.SystemEvent(eventType), []byte(payload), 1, false); err != nil {
		c.logger.Warn("publishing system event failed", "event", eventType, "error", err)
	}
}
