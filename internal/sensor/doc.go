// Package sensor provides the sensor fleet for Habitat Core.
//
// Each sensor pairs a Driver (raw hardware access, simulated here) with
// identity, an explicit measurement Category, a calibration transform,
// and a valid range. The Manager exposes the read-all sweep consumed by
// the telemetry aggregator each control cycle.
//
// Categories are declared per sensor rather than inferred from the
// sensor ID; aggregation groups readings by this tag.
//
// A failed or out-of-range read produces a Reading with Valid=false and
// a diagnostic message instead of an error, so one faulty probe never
// aborts a sweep.
package sensor
