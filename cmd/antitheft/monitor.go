package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/antitheft-monitor/internal/alarm"
	"github.com/nerrad567/antitheft-monitor/internal/api"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/config"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/database"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/influxdb"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
	"github.com/nerrad567/antitheft-monitor/internal/monitor"
	"github.com/nerrad567/antitheft-monitor/migrations"
)

func newMonitorCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Print every message published for the configured device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd.Context(), opts)
		},
	}
}

// runMonitor wires the monitor to the broker, alarm journal and telemetry,
// then blocks until shutdown or a fatal fault.
func runMonitor(ctx context.Context, opts *cliOptions) error {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}
	log.Info("starting anti-theft monitor",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	topics, err := mqtt.NewTopics(cfg.Account.UserID, cfg.Account.DeviceID)
	if err != nil {
		return fmt.Errorf("building topics: %w", err)
	}

	monOpts := monitor.Options{
		Out:       opts.out,
		Logger:    log,
		Reconnect: cfg.MQTT.Reconnect.Enabled,
	}

	// Components reported by the API health endpoint
	checks := make(map[string]api.HealthChecker)

	// Alarm journal (optional)
	var recorder *alarm.Recorder
	var repo alarm.Repository
	if cfg.Alarm.Enabled {
		db, dbErr := openJournal(ctx, cfg)
		if dbErr != nil {
			return dbErr
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("alarm journal ready", "path", db.Path())
		checks["database"] = db

		repo = alarm.NewSQLiteRepository(db.DB)
		recorder = alarm.NewRecorder(repo, log)
		monOpts.Observers = append(monOpts.Observers, recorder)
	} else {
		log.Info("alarm journal disabled")
	}

	// Telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

		monOpts.Metrics = influxClient
		checks["influxdb"] = influxClient
		if recorder != nil {
			recorder.SetMetrics(influxClient)
		}
	}

	client := mqtt.New(cfg.MQTT)
	client.SetLogger(log.With("component", "mqtt"))
	monOpts.QoS = client.QoS()

	// HTTP API (optional)
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Topics:  topics,
			MQTT:    client,
			Alarms:  repo,
			Checks:  checks,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return startErr
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		monOpts.Observers = append(monOpts.Observers, server)
	}

	// Handlers are registered before Connect so the first connection runs
	// the connect sequence.
	mon := monitor.New(client, topics, monOpts)
	client.SetOnConnect(mon.HandleConnect)
	client.SetOnDisconnect(mon.HandleConnectionLost)

	if err := client.Connect(); err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", cfg.MQTT.BrokerAddress(),
		"client_id", client.ClientID(),
		"subscription", topics.Subscription(),
	)

	if err := mon.Run(ctx); err != nil {
		return err
	}

	log.Info("shutdown signal received, monitor stopped")
	return nil
}

// openJournal opens and migrates the alarm database.
func openJournal(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
