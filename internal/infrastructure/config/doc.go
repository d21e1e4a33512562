// Package config handles loading and validating Habitat Core configuration.
//
// This package manages:
//   - YAML configuration file parsing (config.yaml)
//   - Environment variable overrides (HABITAT_* prefix)
//   - Default values for optional settings
//   - Validation of required fields and value ranges
//
// Configuration precedence (highest wins):
//  1. Environment variables
//  2. YAML file values
//  3. Hardcoded defaults
//
// The control section carries the environment thresholds (temperature and
// humidity ranges, food and water level floors) and the control-loop cadences
// that drive telemetry aggregation, rule evaluation, and telemetry archival.
// The actuators section declares the physical devices and any per-device
// safety limit overrides applied on top of the type profiles.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Control.TemperatureMin)
package config
