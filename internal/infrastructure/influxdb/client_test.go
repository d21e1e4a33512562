package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/habitatworks/habitat-core/internal/actuator"
	"github.com/habitatworks/habitat-core/internal/infrastructure/config"
	"github.com/habitatworks/habitat-core/internal/sensor"
	"github.com/habitatworks/habitat-core/internal/telemetry"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

// Write helpers must be safe no-ops on a disconnected client so the
// control loop never depends on archival availability.
func TestWritesNoOpWhenDisconnected(t *testing.T) {
	c := &Client{}

	c.WriteReading(sensor.Reading{
		SensorID: "temp-1",
		Category: sensor.CategoryTemperature,
		Value:    21.5,
		Valid:    true,
	})
	c.WriteMetrics(telemetry.Metrics{
		Values:    map[string]float64{telemetry.MetricTemperatureAvg: 21.5},
		Timestamp: time.Now(),
	})
	c.WriteActuation(actuator.Activation{DeviceID: "fan-1"}, actuator.TypeFan)
	c.WritePoint("custom", nil, map[string]interface{}{"v": 1.0})
	c.Flush()

	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	c := &Client{}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}
