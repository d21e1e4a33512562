package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Sink forwards governor-approved activations to effector hardware as
// MQTT commands. It satisfies the actuator package's Sink interface.
type Sink struct {
	client *Client
	qos    byte
}

// NewSink creates a sink publishing on the client's actuator command
// topics at the given QoS.
func NewSink(client *Client, qos byte) *Sink {
	return &Sink{client: client, qos: qos}
}

// actuatorCommand is the wire format on actuator command topics.
type actuatorCommand struct {
	Action     string  `json:"action"`
	Power      float64 `json:"power,omitempty"`
	DurationMS int64   `json:"duration_ms,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// Actuate publishes an activate command for the device.
func (s *Sink) Actuate(_ context.Context, deviceID string, power float64, duration time.Duration) error {
	return s.publish(deviceID, actuatorCommand{
		Action:     "activate",
		Power:      power,
		DurationMS: duration.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// Halt publishes a deactivate command for the device.
func (s *Sink) Halt(_ context.Context, deviceID string) error {
	return s.publish(deviceID, actuatorCommand{
		Action:    "deactivate",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Sink) publish(deviceID string, cmd actuatorCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshalling actuator command: %w", err)
	}
	return s.client.Publish(Topics{}.ActuatorCommand(deviceID), payload, s.qos, false)
}
