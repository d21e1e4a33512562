// Package telemetry aggregates raw sensor readings into derived metrics.
//
// Each aggregation cycle groups the current sweep's valid readings by
// their declared category, computes per-category statistics (average,
// plus min/max for temperature), and evaluates range-membership flags
// against externally supplied thresholds.
//
// The resulting Metrics snapshot is immutable and rebuilt fresh every
// cycle; the only state carried across cycles is a bounded rolling
// history of raw readings per sensor (1000 entries, oldest dropped).
//
// Absence semantics: a category with zero valid readings contributes no
// keys at all. Rule conditions referencing an absent metric fall back to
// their literal default rather than observing a zero.
package telemetry
