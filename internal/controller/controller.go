package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/habitatworks/habitat-core/internal/actuator"
	"github.com/habitatworks/habitat-core/internal/infrastructure/config"
	"github.com/habitatworks/habitat-core/internal/infrastructure/mqtt"
	"github.com/habitatworks/habitat-core/internal/rules"
	"github.com/habitatworks/habitat-core/internal/scheduler"
	"github.com/habitatworks/habitat-core/internal/sensor"
	"github.com/habitatworks/habitat-core/internal/telemetry"
)

// Well-known task IDs.
const (
	TaskProcessTelemetry = "process_telemetry"
	TaskTelemetryLog     = "telemetry_log"

	feedingTaskPrefix = "feeding_"

	// Initial offsets so the first cycles run shortly after startup.
	processStartDelay = 5 * time.Second
	logStartDelay     = 10 * time.Second

	dailyRepeat = 24 * time.Hour
)

// Logger defines the logging interface used by the Controller.
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

// Archive receives telemetry for long-term storage. Satisfied by the
// influxdb client; nil disables archival.
type Archive interface {
	WriteReading(r sensor.Reading)
	WriteMetrics(m telemetry.Metrics)
	WriteActuation(act actuator.Activation, deviceType actuator.Type)
}

// Broker publishes habitat events over MQTT. Satisfied by the mqtt
// client; nil disables publishing.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishRetained(topic string, payload []byte) error
}

// Controller wires the control loop together: the scheduler drives
// telemetry processing on a cadence, processing feeds the rule engine,
// fired rules call the governor, and the governor forwards approved
// activations to the effector sink.
type Controller struct {
	cfg       *config.Config
	scheduler *scheduler.Scheduler
	sensors   *sensor.Manager
	agg       *telemetry.Aggregator
	engine    *rules.Engine
	governor  *actuator.Governor

	ruleRepo rules.Repository
	archive  Archive
	broker   Broker
	logger   Logger

	// deviceByType maps each actuator type to the first configured
	// device of that type, for the built-in actions.
	deviceByType map[actuator.Type]string

	mu     sync.RWMutex
	latest telemetry.Metrics
}

// Options carries the controller's collaborators. Config, Scheduler,
// Sensors, Aggregator, Engine and Governor are required; the rest are
// optional.
type Options struct {
	Config     *config.Config
	Scheduler  *scheduler.Scheduler
	Sensors    *sensor.Manager
	Aggregator *telemetry.Aggregator
	Engine     *rules.Engine
	Governor   *actuator.Governor

	RuleRepo rules.Repository
	Archive  Archive
	Broker   Broker
	Logger   Logger
}

// New creates a controller from its collaborators.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		cfg:          opts.Config,
		scheduler:    opts.Scheduler,
		sensors:      opts.Sensors,
		agg:          opts.Aggregator,
		engine:       opts.Engine,
		governor:     opts.Governor,
		ruleRepo:     opts.RuleRepo,
		archive:      opts.Archive,
		broker:       opts.Broker,
		logger:       logger,
		deviceByType: make(map[actuator.Type]string),
	}
}

// Bootstrap registers configured actuators, installs rules (persisted
// ones when available, the built-in defaults otherwise) and schedules
// the recurring control tasks. Call once before running the scheduler.
func (c *Controller) Bootstrap(ctx context.Context) error {
	if err := c.registerActuators(); err != nil {
		return fmt.Errorf("registering actuators: %w", err)
	}
	if err := c.installRules(ctx); err != nil {
		return fmt.Errorf("installing rules: %w", err)
	}
	if err := c.scheduleControlTasks(); err != nil {
		return fmt.Errorf("scheduling control tasks: %w", err)
	}
	return nil
}

// registerActuators registers every configured device, applying
// per-device safety overrides on top of the type profile.
func (c *Controller) registerActuators() error {
	for _, dev := range c.cfg.Actuators.Devices {
		devType := actuator.Type(dev.Type)
		profile, ok := actuator.ProfileFor(devType)
		if !ok {
			return fmt.Errorf("%w: %q", actuator.ErrInvalidType, dev.Type)
		}
		if dev.MaxActivationSeconds > 0 {
			profile.MaxActivationTime = time.Duration(dev.MaxActivationSeconds * float64(time.Second))
		}
		if dev.MinCooldownSeconds > 0 {
			profile.MinCooldown = time.Duration(dev.MinCooldownSeconds * float64(time.Second))
		}
		if dev.MaxPerDay > 0 {
			profile.MaxPerDay = dev.MaxPerDay
		}

		if err := c.governor.RegisterProfile(dev.ID, dev.Name, profile); err != nil {
			return err
		}
		if _, exists := c.deviceByType[devType]; !exists {
			c.deviceByType[devType] = dev.ID
		}
	}
	return nil
}

// installRules loads persisted rules when a repository is configured
// and they exist; otherwise installs (and persists) the defaults.
func (c *Controller) installRules(ctx context.Context) error {
	registry := c.ActionRegistry()

	if c.ruleRepo != nil {
		stored, err := c.ruleRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("loading rules: %w", err)
		}
		if len(stored) > 0 {
			for _, sr := range stored {
				rule, err := sr.Bind(registry)
				if err != nil {
					c.logger.Error("skipping unbindable rule", "id", sr.ID, "error", err)
					continue
				}
				if err := c.engine.AddRule(rule); err != nil {
					return err
				}
			}
			c.logger.Info("rules loaded", "count", c.engine.Count())
			return nil
		}
	}

	for _, sr := range c.defaultRules() {
		rule, err := sr.Bind(registry)
		if err != nil {
			return err
		}
		if err := c.engine.AddRule(rule); err != nil {
			return err
		}
		if c.ruleRepo != nil {
			if err := c.ruleRepo.Create(ctx, &sr); err != nil {
				c.logger.Error("persisting default rule failed", "id", sr.ID, "error", err)
			}
		}
	}
	c.logger.Info("default rules installed", "count", c.engine.Count())
	return nil
}

// defaultRules builds the built-in rule set from config thresholds.
func (c *Controller) defaultRules() []rules.StoredRule {
	ctl := c.cfg.Control
	return []rules.StoredRule{
		{
			ID:      "rule_low_temp",
			Name:    "Low Temperature Rule",
			Enabled: true,
			Conditions: []rules.Condition{
				{Operand: rules.Metric(telemetry.MetricTemperatureAvg), Op: rules.OpLessThan, Threshold: ctl.TemperatureMin},
			},
			ActionNames: []string{ActionActivateHeater},
		},
		{
			ID:      "rule_high_temp",
			Name:    "High Temperature Rule",
			Enabled: true,
			Conditions: []rules.Condition{
				{Operand: rules.Metric(telemetry.MetricTemperatureAvg), Op: rules.OpGreaterThan, Threshold: ctl.TemperatureMax},
			},
			ActionNames: []string{ActionActivateFan},
		},
		{
			ID:      "rule_low_food",
			Name:    "Low Food Level Rule",
			Enabled: true,
			Conditions: []rules.Condition{
				{Operand: rules.Metric(telemetry.MetricFoodLevel), Op: rules.OpLessThan, Threshold: ctl.FoodThreshold},
			},
			ActionNames: []string{ActionNotifyLowFood},
		},
		{
			ID:      "rule_low_water",
			Name:    "Low Water Level Rule",
			Enabled: true,
			Conditions: []rules.Condition{
				{Operand: rules.Metric(telemetry.MetricWaterLevel), Op: rules.OpLessThan, Threshold: ctl.WaterThreshold},
			},
			ActionNames: []string{ActionRefillWater},
		},
	}
}

// scheduleControlTasks queues the recurring processing, archival and
// feeding tasks.
func (c *Controller) scheduleControlTasks() error {
	now := time.Now()

	if _, err := c.scheduler.Schedule(scheduler.Task{
		ID:        TaskProcessTelemetry,
		ExecuteAt: now.Add(processStartDelay),
		Priority:  scheduler.PriorityHigh,
		Callback:  c.processTelemetry,
		Repeat:    c.cfg.Control.RuleEvaluationInterval(),
	}); err != nil {
		return err
	}

	if _, err := c.scheduler.Schedule(scheduler.Task{
		ID:        TaskTelemetryLog,
		ExecuteAt: now.Add(logStartDelay),
		Priority:  scheduler.PriorityNormal,
		Callback:  c.logTelemetry,
		Repeat:    c.cfg.Control.TelemetryLogInterval(),
	}); err != nil {
		return err
	}

	for i, feeding := range c.cfg.Control.FeedingSchedule {
		amount := feeding.Amount
		taskID := fmt.Sprintf("%s%d", feedingTaskPrefix, i)
		if _, err := c.scheduler.ScheduleAtClock(
			taskID,
			feeding.Time,
			scheduler.PriorityHigh,
			func(ctx context.Context) error { return c.feed(ctx, amount) },
			dailyRepeat,
		); err != nil {
			return err
		}
	}
	return nil
}

// processTelemetry is the main control cycle: read sensors, aggregate,
// evaluate rules, publish fired-rule events.
func (c *Controller) processTelemetry(ctx context.Context) error {
	readings := c.sensors.ReadAll(ctx)
	metrics := c.agg.Aggregate(readings)

	c.mu.Lock()
	c.latest = metrics
	c.mu.Unlock()

	fired, err := c.engine.Evaluate(ctx, metrics)
	if len(fired) > 0 {
		c.logger.Info("rules triggered", "rules", fired)
		c.publishRuleEvents(fired, metrics.Timestamp)
	}
	if err != nil {
		c.logger.Error("rule evaluation reported faults", "error", err)
	}
	return err
}

// logTelemetry archives raw readings and the latest aggregated
// snapshot, and publishes the snapshot retained over MQTT.
func (c *Controller) logTelemetry(ctx context.Context) error {
	readings := c.sensors.ReadAll(ctx)

	if c.archive != nil {
		for _, r := range readings {
			c.archive.WriteReading(r)
		}
	}

	metrics := c.Metrics()
	if c.archive != nil {
		c.archive.WriteMetrics(metrics)
	}

	if c.broker != nil {
		payload, err := json.Marshal(metrics)
		if err != nil {
			return fmt.Errorf("marshalling metrics: %w", err)
		}
		if err := c.broker.PublishRetained(mqtt.Topics{}.TelemetryMetrics(), payload); err != nil {
			c.logger.Warn("publishing telemetry failed", "error", err)
		}
	}
	return nil
}

// feed dispenses a scheduled portion. One portion is five seconds of
// dispensing at 80% power.
func (c *Controller) feed(ctx context.Context, amount float64) error {
	deviceID, ok := c.deviceByType[actuator.TypeFoodDispenser]
	if !ok {
		return fmt.Errorf("%w: no food dispenser configured", actuator.ErrActuatorNotFound)
	}

	c.logger.Info("scheduled feeding", "portions", amount)
	duration := time.Duration(amount * 5 * float64(time.Second))
	return c.activateAndArchive(ctx, deviceID, 0.8, duration)
}

// activateAndArchive runs a governor activation and records it to the
// archive on success. Rejections are warnings, not failures of the
// calling task.
func (c *Controller) activateAndArchive(ctx context.Context, deviceID string, power float64, duration time.Duration) error {
	act, err := c.governor.Activate(ctx, deviceID, power, duration)
	if err != nil {
		c.logger.Warn("activation rejected", "device", deviceID, "error", err)
		return nil
	}
	if c.archive != nil {
		if info, infoErr := c.governor.Get(deviceID); infoErr == nil {
			c.archive.WriteActuation(*act, info.Type)
		}
	}
	c.publishActuatorState(deviceID)
	return nil
}

// publishRuleEvents emits one MQTT event per fired rule.
func (c *Controller) publishRuleEvents(fired []string, ts time.Time) {
	if c.broker == nil {
		return
	}
	for _, ruleID := range fired {
		payload := fmt.Sprintf(`{"rule_id":"%s","timestamp":"%s"}`, ruleID, ts.UTC().Format(time.RFC3339))
		if err := c.broker.Publish(mqtt.Topics{}.RuleTriggered(ruleID), []byte(payload), 1, false); err != nil {
			c.logger.Warn("publishing rule event failed", "rule_id", ruleID, "error", err)
		}
	}
}

// publishActuatorState publishes a device's safety state, retained.
func (c *Controller) publishActuatorState(deviceID string) {
	if c.broker == nil {
		return
	}
	state, err := c.governor.GetState(deviceID)
	if err != nil {
		return
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := c.broker.PublishRetained(mqtt.Topics{}.ActuatorState(deviceID), payload); err != nil {
		c.logger.Warn("publishing actuator state failed", "device", deviceID, "error", err)
	}
}

// Metrics returns the latest aggregated snapshot.
func (c *Controller) Metrics() telemetry.Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}
