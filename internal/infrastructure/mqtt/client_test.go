package mqtt

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

// disconnectedClient builds a client that was never connected, for
// exercising validation paths without a broker.
func disconnectedClient() *Client {
	return &Client{subscriptions: make(map[string]subscription)}
}

func TestPublishValidation(t *testing.T) {
	c := disconnectedClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "habitat/test", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "habitat/test", bytes.Repeat([]byte("a"), maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "habitat/test", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := disconnectedClient()
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("habitat/test", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe() bad qos error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("habitat/test", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() nil handler error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Subscribe("habitat/test", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() disconnected error = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes, want 0", c.SubscriptionCount())
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	c := disconnectedClient()

	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe() empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Unsubscribe("habitat/test"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() disconnected error = %v, want ErrNotConnected", err)
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"sensor reading", topics.SensorReading("temp-1"), "habitat/sensor/temp-1/reading"},
		{"telemetry metrics", topics.TelemetryMetrics(), "habitat/telemetry/metrics"},
		{"actuator command", topics.ActuatorCommand("feeder-1"), "habitat/actuator/feeder-1/command"},
		{"actuator state", topics.ActuatorState("feeder-1"), "habitat/actuator/feeder-1/state"},
		{"rule triggered", topics.RuleTriggered("low-temperature"), "habitat/rule/low-temperature/triggered"},
		{"system status", topics.SystemStatus(), "habitat/system/status"},
		{"system event", topics.SystemEvent("emergency_stop"), "habitat/system/event/emergency_stop"},
		{"all actuator commands", topics.AllActuatorCommands(), "habitat/actuator/+/command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("habitat-core")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, `"client_id":"habitat-core"`) {
		t.Errorf("online payload = %s", online)
	}

	offline := buildOfflinePayload("habitat-core")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", offline)
	}
}

func TestSetCallbacksConcurrent(t *testing.T) {
	c := disconnectedClient()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			c.SetOnConnect(func() {})
		}()
		go func() {
			defer wg.Done()
			c.SetOnDisconnect(func(error) {})
		}()
		go func() {
			defer wg.Done()
			c.SetLogger(nil)
		}()
	}
	wg.Wait()
}
