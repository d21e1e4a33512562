// Habitat Core - Automated Habitat Control
//
// This is the main entry point for the Habitat Core daemon. It runs the
// full control loop for an automated animal enclosure:
//   - Scheduled sensor sweeps and telemetry aggregation
//   - Threshold rules driving corrective actuations
//   - A safety governor enforcing per-device limits
//   - REST API and MQTT surfaces for operators and hardware
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/habitatworks/habitat-core/migrations"

	"github.com/habitatworks/habitat-core/internal/actuator"
	"github.com/habitatworks/habitat-core/internal/api"
	"github.com/habitatworks/habitat-core/internal/controller"
	"github.com/habitatworks/habitat-core/internal/infrastructure/config"
	"github.com/habitatworks/habitat-core/internal/infrastructure/database"
	"github.com/habitatworks/habitat-core/internal/infrastructure/influxdb"
	"github.com/habitatworks/habitat-core/internal/infrastructure/logging"
	"github.com/habitatworks/habitat-core/internal/infrastructure/mqtt"
	"github.com/habitatworks/habitat-core/internal/rules"
	"github.com/habitatworks/habitat-core/internal/scheduler"
	"github.com/habitatworks/habitat-core/internal/sensor"
	"github.com/habitatworks/habitat-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Habitat Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	var archive controller.Archive
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		archive = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Task scheduler
	sched := scheduler.New()
	sched.SetLogger(log.Component("scheduler"))

	// Safety governor: commands go out over MQTT, self-deactivations run
	// as scheduler tasks, accepted activations land in SQLite.
	sink := mqtt.NewSink(mqttClient, byte(cfg.MQTT.QoS))
	governor := actuator.NewGovernor(sink, controller.NewSchedulerDeferrer(sched))
	governor.SetLogger(log.Component("governor"))
	governor.SetRecorder(actuator.NewSQLiteRecorder(db.DB))

	// Sensors and aggregation
	sensors, err := buildSensors(cfg)
	if err != nil {
		return fmt.Errorf("building sensors: %w", err)
	}
	sensors.SetLogger(log.Component("sensors"))
	log.Info("sensors initialised", "count", sensors.Count())

	aggregator := telemetry.NewAggregator(telemetry.Thresholds{
		TemperatureMin: cfg.Control.TemperatureMin,
		TemperatureMax: cfg.Control.TemperatureMax,
		HumidityMin:    cfg.Control.HumidityMin,
		HumidityMax:    cfg.Control.HumidityMax,
		FoodThreshold:  cfg.Control.FoodThreshold,
		WaterThreshold: cfg.Control.WaterThreshold,
	})

	// Rule engine with SQLite persistence
	engine := rules.NewEngine()
	engine.SetLogger(log.Component("rules"))
	ruleRepo := rules.NewSQLiteRepository(db.DB)

	// Controller ties the loop together
	ctrl := controller.New(controller.Options{
		Config:     cfg,
		Scheduler:  sched,
		Sensors:    sensors,
		Aggregator: aggregator,
		Engine:     engine,
		Governor:   governor,
		RuleRepo:   ruleRepo,
		Archive:    archive,
		Broker:     mqttClient,
		Logger:     log.Component("controller"),
	})
	if err := ctrl.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrapping controller: %w", err)
	}
	log.Info("controller bootstrapped",
		"actuators", governor.Count(),
		"rules", engine.Count(),
		"pending_tasks", sched.Pending(),
	)

	// HTTP API
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log.Component("api"),
		Controller: ctrl,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Run the scheduler loop until shutdown
	log.Info("initialisation complete, control loop running")
	if err := sched.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("Habitat Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HABITAT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HABITAT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Simulated sensor parameters. Hardware drivers slot in behind the same
// Driver interface once real probes are attached.
const (
	supplyCapacity = 100.0 // hoppers and reservoirs report percent full
	foodDecay      = 0.5   // max % drop per read
	waterDecay     = 1.0
)

// buildSensors constructs the sensor set over simulated drivers, with
// baselines centred on the configured comfort ranges.
func buildSensors(cfg *config.Config) (*sensor.Manager, error) {
	mgr := sensor.NewManager()

	tempBaseline := (cfg.Control.TemperatureMin + cfg.Control.TemperatureMax) / 2
	humidityBaseline := (cfg.Control.HumidityMin + cfg.Control.HumidityMax) / 2

	specs := []struct {
		id, name string
		category sensor.Category
		driver   sensor.Driver
		min, max float64
	}{
		{"temp-1", "Enclosure Temperature", sensor.CategoryTemperature,
			&sensor.TemperatureDriver{Baseline: tempBaseline}, -10, 50},
		{"hum-1", "Enclosure Humidity", sensor.CategoryHumidity,
			&sensor.HumidityDriver{Baseline: humidityBaseline}, 0, 100},
		{"food-1", "Food Hopper Level", sensor.CategoryFoodLevel,
			sensor.NewLevelDriver(supplyCapacity, foodDecay), 0, 100},
		{"water-1", "Water Reservoir Level", sensor.CategoryWaterLevel,
			sensor.NewLevelDriver(supplyCapacity, waterDecay), 0, 100},
	}

	for _, spec := range specs {
		s, err := sensor.NewSensor(spec.id, spec.name, spec.category, spec.driver)
		if err != nil {
			return nil, err
		}
		s.SetValidRange(spec.min, spec.max)
		if err := mgr.Add(s); err != nil {
			return nil, err
		}
	}

	return mgr, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
