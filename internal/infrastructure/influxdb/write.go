package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/habitatworks/habitat-core/internal/actuator"
	"github.com/habitatworks/habitat-core/internal/sensor"
	"github.com/habitatworks/habitat-core/internal/telemetry"
)

// WriteReading records a single sensor reading. Invalid readings are
// written too, flagged so gaps can be diagnosed later.
func (c *Client) WriteReading(r sensor.Reading) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"sensor_id": r.SensorID,
			"category":  string(r.Category),
		},
		map[string]interface{}{
			"value": r.Value,
			"valid": r.Valid,
		},
		r.Timestamp,
	)
	c.writeAPI.WritePoint(point)
}

// WriteMetrics records one aggregated telemetry snapshot: every
// numeric metric and flag as fields of a single point.
func (c *Client) WriteMetrics(m telemetry.Metrics) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(m.Values)+len(m.Flags))
	for key, value := range m.Values {
		fields[key] = value
	}
	for key, flag := range m.Flags {
		fields[key] = flag
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint("telemetry", nil, fields, m.Timestamp)
	c.writeAPI.WritePoint(point)
}

// WriteActuation records an accepted activation: power, effective
// duration, and the per-type side metric (units dispensed or
// watt-hours consumed).
func (c *Client) WriteActuation(act actuator.Activation, deviceType actuator.Type) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"actuations",
		map[string]string{
			"device_id":   act.DeviceID,
			"device_type": string(deviceType),
			"unit":        act.Unit,
		},
		map[string]interface{}{
			"power":       act.Power,
			"duration_ms": act.Duration.Milliseconds(),
			"amount":      act.Amount,
		},
		act.StartedAt,
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point for measurements the helpers do not
// cover.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
