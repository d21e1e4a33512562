// Package mqtt provides the habitat MQTT transport layer.
//
// It wraps paho.mqtt.golang with connection lifecycle management,
// automatic reconnection and subscription restoration, a Last Will on
// habitat/system/status for offline detection, and topic builders for
// the habitat hierarchy:
//
//	habitat/sensor/{id}/reading      sensor readings
//	habitat/telemetry/metrics        aggregated snapshots
//	habitat/actuator/{id}/command    effector commands (Sink)
//	habitat/actuator/{id}/state      safety state updates (retained)
//	habitat/rule/{id}/triggered      rule firing events
//	habitat/system/status            online/offline status (retained)
//
// The Sink type carries governor-approved activations to the effector
// hardware over the command topics.
package mqtt
