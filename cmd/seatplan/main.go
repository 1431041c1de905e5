// Seat Planner Core - choir seating arrangement service
//
// This is the main entry point for the seat planner. It serves the
// arrangement editor over HTTP and WebSocket, stores arrangements and the
// member roster in SQLite, publishes final arrangements and emergency
// notices over MQTT and records arrangement telemetry in InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // service.timezone resolves without system zoneinfo

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/seatplan-core/internal/api"
	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/config"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/database"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/logging"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/seatplan-core/internal/publish"
	"github.com/nerrad567/seatplan-core/internal/roster"
	"github.com/nerrad567/seatplan-core/internal/seating"
	"github.com/nerrad567/seatplan-core/migrations"
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
	// Cancel on Ctrl+C or SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting seat planner",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	location, err := cfg.Service.Location()
	if err != nil {
		return fmt.Errorf("resolving service timezone: %w", err)
	}

	// Open database
	db, err := database.Open(cfg.Database)
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

	if migrateErr := db.Migrate(ctx, migrations.FS, "."); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Metrics registry served on /metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	members := roster.NewSQLiteRepository(db.DB)

	engineFactory, err := newEngineFactory(ctx, seating.NewSQLiteZoneRepository(db.DB), cfg.Seating, log)
	if err != nil {
		return fmt.Errorf("loading seating zones: %w", err)
	}

	// Arrangement sessions
	arrangements := arrangement.NewSQLiteRepository(db.DB)
	registry := arrangement.NewRegistry(arrangements,
		arrangement.WithHistoryLimit(cfg.Seating.HistoryLimit),
		arrangement.WithEngineFactory(engineFactory),
	)
	registry.SetLogger(log)
	registry.SetAttendance(members)
	registry.SetMetrics(arrangement.NewMetrics(reg))
	log.Info("arrangement registry initialised",
		"history_limit", cfg.Seating.HistoryLimit,
		"zone_profile", cfg.Seating.ZoneProfile,
	)

	// Connect to MQTT broker (optional). Interfaces stay nil when disabled.
	var (
		broker       publish.Broker
		brokerStatus api.BrokerStatus
	)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		broker, brokerStatus = mqttClient, mqttClient
	} else {
		log.Info("MQTT disabled, publishing unavailable")
	}

	// Connect to InfluxDB (optional)
	var telemetry publish.Telemetry
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		telemetry = influxClient
	}

	publisher := publish.New(broker, telemetry)
	publisher.SetLogger(log)
	publisher.SetMetrics(publish.NewMetrics(reg))
	publisher.SetLocation(location)
	if broker != nil {
		if listenErr := publisher.ListenAttendanceReports(ctx, members); listenErr != nil {
			return fmt.Errorf("subscribing to attendance reports: %w", listenErr)
		}
		log.Info("listening for attendance reports")
	}

	server, err := api.New(api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Seating:      cfg.Seating,
		Logger:       log,
		Registry:     registry,
		Arrangements: arrangements,
		Roster:       members,
		Publisher:    publisher,
		DB:           db,
		MQTT:         brokerStatus,
		Metrics:      api.NewMetrics(reg),
		Gatherer:     reg,
		Version:      version,
		Location:     location,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("seat planner stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SEATPLAN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SEATPLAN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the storage connections are healthy. MQTT is not
// checked: a broker outage only disables publishing.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// profileZones serves one zone profile loaded at startup.
type profileZones []seating.PartZone

func (z profileZones) LoadZones(context.Context, string) ([]seating.PartZone, error) {
	if z == nil {
		return nil, seating.ErrProfileNotFound
	}
	return z, nil
}

// newEngineFactory loads the configured zone profile once and returns a
// factory building a reassignment engine for a given row count. A profile
// that does not fit the row count falls back to the default zones.
func newEngineFactory(ctx context.Context, src seating.ZoneSource, cfg config.SeatingConfig, log *logging.Logger) (func(rows int) *seating.Engine, error) {
	var stored profileZones
	if cfg.ZoneProfile != "" {
		zones, err := src.LoadZones(ctx, cfg.ZoneProfile)
		switch {
		case errors.Is(err, seating.ErrProfileNotFound):
			log.Info("zone profile not stored, using default zones", "profile", cfg.ZoneProfile)
		case err != nil:
			return nil, err
		default:
			stored = zones
			log.Info("zone profile loaded", "profile", cfg.ZoneProfile, "zones", len(zones))
		}
	}

	opts := []seating.Option{
		seating.WithMaxPullChain(cfg.MaxPullChain),
		seating.WithConsistencyThreshold(cfg.ConsistencyThreshold),
	}
	return func(rows int) *seating.Engine {
		zones, err := seating.LoadRegistry(context.Background(), stored, cfg.ZoneProfile, rows)
		if err != nil {
			log.Warn("zone profile does not fit layout, using default zones",
				"profile", cfg.ZoneProfile,
				"rows", rows,
				"error", err,
			)
			zones = seating.DefaultZones(rows)
		}
		return seating.NewEngine(zones, opts...)
	}, nil
}
