package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/antitheft-monitor/internal/device"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
)

func newDeviceCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "device",
		Short: "Simulate the configured device",
		Long: `device answers ARM, DISARM and LOCATE on the command topic the way the
firmware does, publishing ARMED or DISARMED to the status topic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDevice(cmd.Context(), opts)
		},
	}
}

func runDevice(ctx context.Context, opts *cliOptions) error {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}

	topics, err := mqtt.NewTopics(cfg.Account.UserID, cfg.Account.DeviceID)
	if err != nil {
		return fmt.Errorf("building topics: %w", err)
	}

	client := mqtt.New(cfg.MQTT)
	client.SetLogger(log.With("component", "mqtt"))

	sim := device.NewSimulator(client, topics, log)
	client.SetOnConnect(sim.HandleConnect)
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	if err := client.Connect(); err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer client.Close() //nolint:errcheck // Shutdown path
	log.Info("device simulator running", "broker", cfg.MQTT.BrokerAddress(), "command_topic", topics.Command())

	return sim.Run(ctx)
}
