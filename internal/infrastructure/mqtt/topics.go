package mqtt

import "fmt"

// Topic prefixes for the habitat MQTT hierarchy.
//
// Scheme: habitat/{category}/{id}/{suffix}. Actuator command topics
// carry governor-approved activations to the effector hardware (or its
// simulator); state topics are retained so late subscribers see the
// current picture.
const (
	// TopicPrefix is the base for all habitat topics.
	TopicPrefix = "habitat"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "habitat/system"
)

// Topics provides builders for habitat MQTT topics. Using these
// helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// SensorReading returns the topic for one sensor's readings.
//
// Example: habitat/sensor/temp-1/reading
func (Topics) SensorReading(sensorID string) string {
	return fmt.Sprintf("%s/sensor/%s/reading", TopicPrefix, sensorID)
}

// TelemetryMetrics returns the topic for aggregated metric snapshots.
//
// Example: habitat/telemetry/metrics
func (Topics) TelemetryMetrics() string {
	return TopicPrefix + "/telemetry/metrics"
}

// ActuatorCommand returns the topic for effector commands to a device.
//
// Example: habitat/actuator/feeder-1/command
func (Topics) ActuatorCommand(deviceID string) string {
	return fmt.Sprintf("%s/actuator/%s/command", TopicPrefix, deviceID)
}

// ActuatorState returns the topic for a device's safety state updates.
//
// Example: habitat/actuator/feeder-1/state
func (Topics) ActuatorState(deviceID string) string {
	return fmt.Sprintf("%s/actuator/%s/state", TopicPrefix, deviceID)
}

// RuleTriggered returns the topic for rule firing events.
//
// Example: habitat/rule/low-temperature/triggered
func (Topics) RuleTriggered(ruleID string) string {
	return fmt.Sprintf("%s/rule/%s/triggered", TopicPrefix, ruleID)
}

// SystemStatus returns the system status topic used for the online
// message and the Last Will.
//
// Example: habitat/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// SystemEvent returns the topic for system events such as emergency
// stops.
//
// Example: habitat/system/event/emergency_stop
func (Topics) SystemEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixSystem, eventType)
}

// AllActuatorCommands returns the wildcard pattern matching every
// actuator command topic.
func (Topics) AllActuatorCommands() string {
	return TopicPrefix + "/actuator/+/command"
}
