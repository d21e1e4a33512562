// Package database provides the SQLite connection and schema
// migration layer for habitat-core.
//
// The store holds automation rules and the actuation audit log.
// Telemetry history goes to InfluxDB, not here; SQLite carries only
// the relational, low-write-rate state.
//
// Migrations are embedded .sql files (see the migrations package)
// named YYYYMMDD_HHMMSS_description.up.sql with optional .down.sql
// counterparts, applied in version order, one transaction each.
package database
