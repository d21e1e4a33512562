// Package actuator implements the safety governor gating all physical
// actuation.
//
// Every device (dispenser, fan, heater, humidifier, dehumidifier) is
// registered under a built-in safety Profile for its type and tracked
// by a per-device state machine:
//
//	IDLE -> ACTIVE        activate (all checks pass)
//	ACTIVE -> IDLE        deactivate, or duration elapsed
//	any  -> ERROR         set_error / sink fault
//	ERROR -> IDLE         clear_error
//	any  -> MAINTENANCE   maintenance on (deactivates first)
//	IDLE -> DISABLED      disable
//
// Activation is rejected, without state change, while the global
// emergency stop is set, while the device is disabled, errored or in
// maintenance, during the per-device cooldown, and once the rolling
// 24h activation cap is reached. Accepted requests have their power
// capped per type (heaters never exceed 0.7), clamped to [0.1, 1.0],
// and their duration clamped to the type's maximum.
//
// Activate returns immediately: the matching deactivation runs as a
// cancellable deferred task through the Deferrer, never as a blocking
// wait inside the governor. Accepted activations are forwarded to the
// Sink and persisted to the actuation audit log.
package actuator
