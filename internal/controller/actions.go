package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/habitatworks/habitat-core/internal/actuator"
	"github.com/habitatworks/habitat-core/internal/infrastructure/mqtt"
	"github.com/habitatworks/habitat-core/internal/rules"
)

// Names of the built-in rule actions. Persisted rules reference these
// and are rebound against the registry at load time.
const (
	ActionActivateHeater = "activate_heater"
	ActionActivateFan    = "activate_fan"
	ActionNotifyLowFood  = "notify_low_food"
	ActionRefillWater    = "refill_water"
)

// Built-in action parameters. Corrective runs are short; the governor's
// per-type caps still apply on top.
const (
	heaterActionPower    = 0.6
	heaterActionDuration = 5 * time.Minute

	fanActionPower    = 0.8
	fanActionDuration = 5 * time.Minute

	waterActionPower    = 1.0
	waterActionDuration = 10 * time.Second
)

// ActionRegistry returns the registry of built-in actions for binding
// stored rules.
func (c *Controller) ActionRegistry() rules.ActionRegistry {
	return rules.ActionRegistry{
		ActionActivateHeater: c.activateHeater,
		ActionActivateFan:    c.activateFan,
		ActionNotifyLowFood:  c.notifyLowFood,
		ActionRefillWater:    c.refillWater,
	}
}

func (c *Controller) activateHeater(ctx context.Context) error {
	return c.activateByType(ctx, actuator.TypeHeater, heaterActionPower, heaterActionDuration)
}

func (c *Controller) activateFan(ctx context.Context) error {
	return c.activateByType(ctx, actuator.TypeFan, fanActionPower, fanActionDuration)
}

func (c *Controller) refillWater(ctx context.Context) error {
	return c.activateByType(ctx, actuator.TypeWaterDispenser, waterActionPower, waterActionDuration)
}

// notifyLowFood raises a low-food alert. There is no hardware response;
// restocking needs a human.
func (c *Controller) notifyLowFood(_ context.Context) error {
	c.logger.Warn("food level low, restock required")
	if c.broker != nil {
		payload := fmt.Sprintf(`{"event":"low_food","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
		if err := c.broker.Publish(mqtt.Topics{}.SystemEvent("low_food"), []byte(payload), 1, false); err != nil {
			c.logger.Warn("publishing low food event failed", "error", err)
		}
	}
	return nil
}

// activateByType resolves the configured device for a type and runs it
// through the governor.
func (c *Controller) activateByType(ctx context.Context, devType actuator.Type, power float64, duration time.Duration) error {
	deviceID, ok := c.deviceByType[devType]
	if !ok {
		return fmt.Errorf("%w: no %s configured", actuator.ErrActuatorNotFound, devType)
	}
	return c.activateAndArchive(ctx, deviceID, power, duration)
}
