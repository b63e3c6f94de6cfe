// Project Tracker
//
// Entry point for the multi-tenant project and task tracking service.
// Accounts register and log in over the REST API, receive a bearer token,
// and manage projects and tasks that only they can see.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/cenitiumdev/project-tracker/migrations"

	"github.com/cenitiumdev/project-tracker/internal/api"
	"github.com/cenitiumdev/project-tracker/internal/audit"
	"github.com/cenitiumdev/project-tracker/internal/auth"
	"github.com/cenitiumdev/project-tracker/internal/events"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/config"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/database"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/influxdb"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/logging"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/mqtt"
	"github.com/cenitiumdev/project-tracker/internal/project"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// healthCheckTimeout bounds the startup health checks.
const healthCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the service together and blocks until ctx is cancelled.
// Deferred closes run in reverse order: API server, InfluxDB, MQTT, database.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup sequence: each optional integration adds a branch
	log := logging.Default()
	log.Info("starting project tracker",
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

	db, err := database.Open(ctx, database.Config{
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

	// Change events (optional)
	var (
		mqttClient *mqtt.Client
		notifier   project.ChangeNotifier
	)
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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
			"events", mqttClient.Topics().AllEvents(),
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		notifier = events.NewPublisher(mqttClient)
	} else {
		log.Info("MQTT disabled, change events will not be published")
	}

	// Auth telemetry (optional)
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

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	codec, err := auth.NewTokenCodec(cfg.Security.JWT.Secret, cfg.Security.JWT.TokenTTLDuration())
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}
	accounts := auth.NewAccountRepository(db.DB)

	server, err := api.New(api.Deps{
		Config:        cfg.API,
		Logger:        log,
		DB:            db,
		Accounts:      accounts,
		Authenticator: auth.NewAuthenticator(accounts),
		Registrar:     auth.NewRegistrar(accounts, auth.PolicyFromConfig(cfg.Security.Password)),
		Codec:         codec,
		Filter:        auth.NewIdentityFilter(codec, accounts, log),
		Projects:      project.NewService(project.NewSQLiteRepository(db), notifier, log),
		Audit:         audit.NewSQLiteRepository(db.DB),
		MQTT:          mqttClient,
		Influx:        influxClient,
		Version:       version,
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

	log.Info("project tracker started",
		"service_id", cfg.Service.ID,
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"token_ttl", codec.TTL().String(),
	)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns TRACKER_CONFIG if set, else the default path.
func getConfigPath() string {
	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies every configured backend answers before the API
// starts taking traffic. nil clients are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
