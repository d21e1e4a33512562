package controller

import (
	"time"

	"github.com/habitatworks/habitat-core/internal/telemetry"
)

// SchedulerStatus summarises the task scheduler for status reports.
type SchedulerStatus struct {
	Running      bool       `json:"running"`
	PendingTasks int        `json:"pending_tasks"`
	NextTaskID   string     `json:"next_task_id,omitempty"`
	NextTaskTime *time.Time `json:"next_task_time,omitempty"`
}

// SystemHealth holds the per-concern health flags. A flag defaults to
// healthy when its category produced no data this cycle; absence of
// data is reported separately through the metrics block.
type SystemHealth struct {
	TemperatureOK bool `json:"temperature_ok"`
	HumidityOK    bool `json:"humidity_ok"`
	FoodOK        bool `json:"food_ok"`
	WaterOK       bool `json:"water_ok"`
}

// Status is the full system status snapshot served by the API and
// published over MQTT.
type Status struct {
	Timestamp        time.Time         `json:"timestamp"`
	Metrics          telemetry.Metrics `json:"metrics"`
	Scheduler        SchedulerStatus   `json:"scheduler"`
	Health           SystemHealth      `json:"system_health"`
	EmergencyStop    bool              `json:"emergency_stop"`
	ActuatorsInError []string          `json:"actuators_in_error"`
}

// Status assembles the current system status.
func (c *Controller) Status() Status {
	metrics := c.Metrics()

	sched := SchedulerStatus{
		Running:      c.scheduler.Running(),
		PendingTasks: c.scheduler.Pending(),
	}
	if id, at, ok := c.scheduler.NextTask(); ok {
		sched.NextTaskID = id
		sched.NextTaskTime = &at
	}

	return Status{
		Timestamp:        time.Now().UTC(),
		Metrics:          metrics,
		Scheduler:        sched,
		Health:           healthFrom(metrics),
		EmergencyStop:    c.governor.EmergencyStopActive(),
		ActuatorsInError: c.governor.ActuatorsInError(),
	}
}

// healthFrom derives health flags from the latest aggregated snapshot.
func healthFrom(m telemetry.Metrics) SystemHealth {
	h := SystemHealth{
		TemperatureOK: true,
		HumidityOK:    true,
		FoodOK:        true,
		WaterOK:       true,
	}
	if ok, present := m.Flag(telemetry.FlagTemperatureInRange); present {
		h.TemperatureOK = ok
	}
	if ok, present := m.Flag(telemetry.FlagHumidityInRange); present {
		h.HumidityOK = ok
	}
	if low, present := m.Flag(telemetry.FlagFoodLow); present {
		h.FoodOK = !low
	}
	if low, present := m.Flag(telemetry.FlagWaterLow); present {
		h.WaterOK = !low
	}
	return h
}
