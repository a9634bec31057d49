package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-sensors/internal/api"
	"github.com/nerrad567/gray-logic-sensors/internal/audit"
	"github.com/nerrad567/gray-logic-sensors/internal/auth"
	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-sensors/internal/sensor"
	"github.com/nerrad567/gray-logic-sensors/internal/sensortype"
	"github.com/nerrad567/gray-logic-sensors/internal/telemetry"
	"github.com/nerrad567/gray-logic-sensors/migrations"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, MQTT publication and SVID ingest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), getConfigPath(configPath))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (default $"+configEnvVar+" or "+defaultConfigPath+")")
	return cmd
}

// run is the service lifecycle, separated from the command for testability.
// It blocks until ctx is cancelled and returns nil on clean shutdown.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting sensoradmin",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	db, err := database.OpenMigrated(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	}, migrations.FS)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	schema, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	log.Info("database ready", "path", cfg.Database.Path, "schema_version", schema)

	registry := sensortype.NewRegistry(sensortype.NewSQLiteRepository(db.DB))
	registry.SetLogger(log)
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading sensor type catalogue: %w", refreshErr)
	}
	sensors := sensor.NewSQLiteRepository(db.DB)

	// Observers must be registered before the registry is shared, so the
	// optional sinks are connected first.
	var influxClient *influxdb.Client
	var history telemetry.HistoryWriter
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
		registry.Observe(sensortype.RecordChanges(influxClient))
		history = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	var mqttClient *mqtt.Client
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
		)
		mqttClient.SetLogger(log)
		registry.Observe(sensortype.PublishConfigs(mqttClient, mqttClient.Topics().SensorTypeConfig, log))
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.Catalogue.SeedDefaults {
		if _, seedErr := registry.SeedDefaults(ctx); seedErr != nil {
			return fmt.Errorf("seeding sensor types: %w", seedErr)
		}
	}
	log.Info("sensor type catalogue initialised", "sensor_types", len(registry.List(ctx)))

	store := telemetry.NewStore(cfg.GetStaleAfter())
	ingester := telemetry.NewIngester(store, history)
	ingester.SetLogger(log)

	// The recorder drains before the database closes.
	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, log)
	auditCtx, stopAudit := context.WithCancel(ctx)
	recorder.Start(auditCtx)
	defer func() {
		stopAudit()
		recorder.Wait()
	}()

	authenticator, err := auth.NewAuthenticator(cfg.Security)
	if err != nil {
		return fmt.Errorf("building authenticator: %w", err)
	}

	srv, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Catalogue:   cfg.Catalogue,
		Logger:      log,
		Auth:        authenticator,
		SensorTypes: registry,
		Sensors:     sensors,
		Telemetry:   store,
		Audit:       recorder,
		AuditRepo:   auditRepo,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	ingester.OnReading(srv.BroadcastReading)

	if mqttClient != nil {
		if subErr := startMQTT(ctx, mqttClient, registry, ingester, byte(cfg.MQTT.QoS), log); subErr != nil {
			return subErr
		}
	}

	if startErr := srv.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API server, audit recorder,
	// MQTT, InfluxDB, database.

	log.Info("sensoradmin stopped")
	return nil
}

// startMQTT subscribes the ingester to SVID readings and publishes the
// catalogue as retained messages, now and after every reconnect.
func startMQTT(ctx context.Context, client *mqtt.Client, registry *sensortype.Registry, ingester *telemetry.Ingester, qos byte, log *logging.Logger) error {
	topics := client.Topics()

	if err := client.Subscribe(topics.AllSVIDReadings(), qos, ingester.Handle); err != nil {
		return fmt.Errorf("subscribing to SVID readings: %w", err)
	}
	log.Info("SVID ingest subscribed", "topic", topics.AllSVIDReadings())

	published := registry.PublishAll(ctx, client, topics.SensorTypeConfig)
	log.Info("sensor type configs published", "count", published)

	client.SetOnConnect(func() {
		n := registry.PublishAll(ctx, client, topics.SensorTypeConfig)
		log.Info("MQTT reconnected, sensor type configs republished", "count", n)
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	return nil
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient are nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
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
