// Package influxdb archives habitat telemetry to InfluxDB v2.
//
// Three measurements are written: sensor_readings (raw per-sensor
// samples, including invalid ones), telemetry (aggregated snapshots
// from the aggregator), and actuations (accepted governor
// activations). Writes are batched and non-blocking; failures surface
// through the SetOnError callback, never on the control loop's path.
//
// The integration is optional: when disabled in config the controller
// simply skips archival, and SQLite remains the only required store.
package influxdb
