package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Habitat Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
	Control   ControlConfig   `yaml:"control"`
	Actuators ActuatorsConfig `yaml:"actuators"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for telemetry archival.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ControlConfig contains the control-loop thresholds and cadences.
//
// Ranges are inclusive. Supply thresholds are lower bounds: a level below
// the threshold raises the corresponding "low" flag.
type ControlConfig struct {
	TemperatureMin float64 `yaml:"temperature_min"` // °C
	TemperatureMax float64 `yaml:"temperature_max"` // °C
	HumidityMin    float64 `yaml:"humidity_min"`    // %
	HumidityMax    float64 `yaml:"humidity_max"`    // %
	FoodThreshold  float64 `yaml:"food_threshold"`  // %
	WaterThreshold float64 `yaml:"water_threshold"` // %

	// RuleInterval is how often telemetry is aggregated and rules are
	// evaluated (seconds).
	RuleInterval int `yaml:"rule_interval"`

	// LogInterval is how often telemetry is archived to InfluxDB and
	// published over MQTT (seconds).
	LogInterval int `yaml:"log_interval"`

	// FeedingSchedule lists daily feeding times.
	FeedingSchedule []FeedingConfig `yaml:"feeding_schedule"`
}

// FeedingConfig describes one scheduled daily feeding.
type FeedingConfig struct {
	Time   string  `yaml:"time"`   // "HH:MM", 24-hour local time
	Amount float64 `yaml:"amount"` // portions
}

// ActuatorsConfig contains per-device safety overrides keyed by actuator ID.
// Devices not listed here use their type profile defaults.
type ActuatorsConfig struct {
	Devices []ActuatorConfig `yaml:"devices"`
}

// ActuatorConfig declares one actuator and optional safety limit overrides.
type ActuatorConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Type string `yaml:"type"` // food_dispenser, water_dispenser, fan, heater, humidifier, dehumidifier

	// Optional overrides; zero values mean "use the type profile default".
	MaxActivationSeconds float64 `yaml:"max_activation_seconds"`
	MinCooldownSeconds   float64 `yaml:"min_cooldown_seconds"`
	MaxPerDay            int     `yaml:"max_per_day"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HABITAT_SECTION_KEY
// For example: HABITAT_DATABASE_PATH, HABITAT_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "habitat-001",
			Name:     "Habitat Core",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/habitat.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "habitat-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Control: ControlConfig{
			TemperatureMin: 15.0,
			TemperatureMax: 30.0,
			HumidityMin:    40.0,
			HumidityMax:    70.0,
			FoodThreshold:  20.0,
			WaterThreshold: 15.0,
			RuleInterval:   10,
			LogInterval:    300,
			FeedingSchedule: []FeedingConfig{
				{Time: "08:00", Amount: 1.0},
				{Time: "18:00", Amount: 1.0},
			},
		},
		Actuators: ActuatorsConfig{
			Devices: []ActuatorConfig{
				{ID: "feeder-1", Name: "Food Dispenser", Type: "food_dispenser"},
				{ID: "water-1", Name: "Water Dispenser", Type: "water_dispenser"},
				{ID: "fan-1", Name: "Circulation Fan", Type: "fan"},
				{ID: "heater-1", Name: "Enclosure Heater", Type: "heater"},
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HABITAT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("HABITAT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("HABITAT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HABITAT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HABITAT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("HABITAT_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("HABITAT_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("HABITAT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Control validation. An inverted range would make every reading
	// out-of-range and drive the heater and fan against each other.
	if c.Control.TemperatureMin >= c.Control.TemperatureMax {
		errs = append(errs, "control.temperature_min must be below control.temperature_max")
	}
	if c.Control.HumidityMin >= c.Control.HumidityMax {
		errs = append(errs, "control.humidity_min must be below control.humidity_max")
	}
	if c.Control.RuleInterval < 1 {
		errs = append(errs, "control.rule_interval must be at least 1 second")
	}
	if c.Control.LogInterval < 1 {
		errs = append(errs, "control.log_interval must be at least 1 second")
	}
	for i, feeding := range c.Control.FeedingSchedule {
		if _, _, err := ParseClockTime(feeding.Time); err != nil {
			errs = append(errs, fmt.Sprintf("control.feeding_schedule[%d].time: %v", i, err))
		}
		if feeding.Amount <= 0 {
			errs = append(errs, fmt.Sprintf("control.feeding_schedule[%d].amount must be positive", i))
		}
	}

	// Actuator validation
	for i, dev := range c.Actuators.Devices {
		if dev.ID == "" {
			errs = append(errs, fmt.Sprintf("actuators.devices[%d].id is required", i))
		}
		if dev.Type == "" {
			errs = append(errs, fmt.Sprintf("actuators.devices[%d].type is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ParseClockTime parses an "HH:MM" 24-hour clock string.
//
// Returns:
//   - int: Hour (0-23)
//   - int: Minute (0-59)
//   - error: If the string is not a valid clock time
func ParseClockTime(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid clock time %q: hour out of range", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid clock time %q: minute out of range", s)
	}
	return hour, minute, nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// RuleEvaluationInterval returns the rule evaluation cadence as a Duration.
func (c *ControlConfig) RuleEvaluationInterval() time.Duration {
	return time.Duration(c.RuleInterval) * time.Second
}

// TelemetryLogInterval returns the telemetry archival cadence as a Duration.
func (c *ControlConfig) TelemetryLogInterval() time.Duration {
	return time.Duration(c.LogInterval) * time.Second
}
