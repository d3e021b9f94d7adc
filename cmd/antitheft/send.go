package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/antitheft-monitor/internal/device"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
)

func newSendCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "send <ARM|DISARM|LOCATE>",
		Short:     "Publish a command to the device",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"ARM", "DISARM", "LOCATE"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), opts, args[0])
		},
	}
}

// runSend publishes one command to the command topic and disconnects.
func runSend(_ context.Context, opts *cliOptions, arg string) error {
	command, err := device.ParseCommand(arg)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}

	topics, err := mqtt.NewTopics(cfg.Account.UserID, cfg.Account.DeviceID)
	if err != nil {
		return fmt.Errorf("building topics: %w", err)
	}

	client, err := connectLogged(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck // Close after publish; nothing to recover

	if err := client.Publish(topics.Command(), []byte(command), client.QoS(), false); err != nil {
		return fmt.Errorf("sending %s: %w", command, err)
	}

	fmt.Fprintf(opts.out, "sent %s to %s\n", command, topics.Command())
	return nil
}
