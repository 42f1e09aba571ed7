// Lumina Core - Autonomous Outdoor Lighting
//
// This is the main entry point for the Lumina Core daemon. Lumina turns a
// set of WLED permanent-outdoor-lighting controllers into a hands-off
// system: it plans a week of lighting around holidays, games, and seasons,
// keeps the plan inside HOA rules, and learns from every accept and reject.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lumina-io/lumina-core/migrations"

	"github.com/lumina-io/lumina-core/internal/api"
	"github.com/lumina-io/lumina-core/internal/autopilot"
	"github.com/lumina-io/lumina-core/internal/device"
	"github.com/lumina-io/lumina-core/internal/events"
	"github.com/lumina-io/lumina-core/internal/infrastructure/config"
	"github.com/lumina-io/lumina-core/internal/infrastructure/database"
	"github.com/lumina-io/lumina-core/internal/infrastructure/influxdb"
	"github.com/lumina-io/lumina-core/internal/infrastructure/logging"
	"github.com/lumina-io/lumina-core/internal/infrastructure/mqtt"
	"github.com/lumina-io/lumina-core/internal/learning"
	"github.com/lumina-io/lumina-core/internal/pattern"
	"github.com/lumina-io/lumina-core/internal/profile"
	"github.com/lumina-io/lumina-core/internal/schedule"
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

// holidayFetchTimeout bounds the periodic ICS feed download.
const holidayFetchTimeout = 30 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Lumina Core",
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

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Repositories
	profileRepo := profile.NewSQLiteRepository(db.DB)
	controllerRepo := device.NewSQLiteRepository(db.DB)
	learningRepo := learning.NewSQLiteRepository(db.DB)
	runRepo := autopilot.NewSQLiteRunRepository(db.DB)
	sportsProvider := events.NewSQLiteSportsProvider(db.DB)

	// Device sink and status tracking
	sink := device.NewSink(mqttClient, controllerRepo, log)
	tracker := device.NewStatusTracker(controllerRepo, log)
	if err := mqttClient.Subscribe(mqtt.Topics{}.AllDeviceStatus(), 1, tracker.HandleStatus); err != nil {
		return fmt.Errorf("subscribing to controller status: %w", err)
	}

	// Event sources
	var feed events.HolidayFeed
	if cfg.Autopilot.HolidayCalendar != "" {
		feed = events.NewICSHolidaySource(cfg.Autopilot.HolidayCalendar, holidayFetchTimeout)
		log.Info("holiday calendar feed enabled", "url", cfg.Autopilot.HolidayCalendar)
	}
	aggregator := events.NewAggregator(sportsProvider, feed, log)

	// Pattern generation
	var designer pattern.Designer
	if cfg.Autopilot.Designer.Enabled {
		designer = pattern.NewHTTPDesigner(cfg.Autopilot.Designer.URL, cfg.Autopilot.Designer.Timeout.Std())
		log.Info("remote pattern designer enabled", "url", cfg.Autopilot.Designer.URL)
	} else {
		log.Info("remote pattern designer disabled, using rule-based patterns")
	}
	generator := pattern.NewGenerator(designer, log)

	// Learning
	learner := learning.NewEngine(learningRepo, log)

	// Shared WebSocket hub: the API serves it, the orchestrator publishes
	// suggestions through it.
	hub := api.NewHub(cfg.WebSocket, log)
	surface := &suggestionSurface{hub: hub, mqtt: mqttClient, log: log}

	// Orchestrator
	orchDeps := autopilot.Deps{
		Profiles:   profileRepo,
		Aggregator: aggregator,
		Generator:  generator,
		Learner:    learner,
		Sink:       sink,
		Surface:    surface,
		Runs:       runRepo,
		Logger:     log,
	}
	if influxClient != nil {
		orchDeps.Analytics = influxClient
	}
	orch := autopilot.NewOrchestrator(autopilot.Config{
		TickSchedule:         cfg.Autopilot.TickSchedule,
		RegenerationInterval: cfg.Autopilot.RegenerationInterval.Std(),
		LateGrace:            cfg.Autopilot.LateGrace.Std(),
	}, orchDeps)
	if err := orch.Start(ctx); err != nil {
		return fmt.Errorf("starting autopilot: %w", err)
	}
	defer func() {
		log.Info("stopping autopilot")
		orch.Stop()
	}()
	log.Info("autopilot started")

	// HTTP API
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Profiles:    profileRepo,
		Controllers: controllerRepo,
		Autopilot:   orch,
		Learner:     learner,
		Runs:        runRepo,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Autopilot
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("Lumina Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUMINA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMINA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
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

// suggestionSurface fans pending-suggestion updates out to both transports:
// the WebSocket hub for connected apps, and a retained MQTT topic so a
// client that connects later still sees the current pending set.
type suggestionSurface struct {
	hub  *api.Hub
	mqtt *mqtt.Client
	log  *logging.Logger
}

// PublishPending implements autopilot.SuggestionSurface.
func (s *suggestionSurface) PublishPending(userID string, items []schedule.Item) {
	s.hub.PublishPending(userID, items)

	payload, err := json.Marshal(items)
	if err != nil {
		s.log.Error("marshaling suggestions for MQTT", "user_id", userID, "error", err)
		return
	}
	topic := mqtt.Topics{}.AutopilotSuggestions(userID)
	if err := s.mqtt.PublishRetained(topic, payload); err != nil {
		s.log.Warn("publishing suggestions to MQTT failed", "topic", topic, "error", err)
	}
}

// ClearPending implements autopilot.SuggestionSurface.
func (s *suggestionSurface) ClearPending(userID string) {
	s.hub.ClearPending(userID)

	// An empty retained payload clears the topic on the broker.
	topic := mqtt.Topics{}.AutopilotSuggestions(userID)
	if err := s.mqtt.PublishRetained(topic, nil); err != nil {
		s.log.Warn("clearing suggestions on MQTT failed", "topic", topic, "error", err)
	}
}
