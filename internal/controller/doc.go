// Package controller wires the habitat control loop together.
//
// The Controller owns the collaborators and the cadence: the scheduler
// fires the processing task, processing reads all sensors, aggregates
// them into a telemetry snapshot and evaluates the rule engine against
// it; fired rules invoke built-in actions which route through the
// actuator governor, and the governor forwards approved activations to
// the effector sink. A slower logging task archives raw readings and
// snapshots to InfluxDB and publishes them retained over MQTT.
//
// Bootstrap sets everything up from config: actuator registration with
// per-device safety overrides, rule installation (persisted rules when
// present, built-in defaults otherwise) and the recurring control
// tasks, including one daily feeding task per schedule entry.
//
// Administrative operations (rule CRUD, manual activation, emergency
// stop, calibration) route through the Controller so the engine, the
// rule repository and the MQTT broker stay consistent.
package controller
