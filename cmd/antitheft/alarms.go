package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/antitheft-monitor/internal/alarm"
)

func newAlarmsCmd(opts *cliOptions) *cobra.Command {
	var limit int
	var allDevices bool

	cmd := &cobra.Command{
		Use:   "alarms",
		Short: "List recorded alarms, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAlarms(cmd.Context(), opts, limit, allDevices)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of alarms to list")
	cmd.Flags().BoolVar(&allDevices, "all", false, "include alarms from every device in the journal")

	return cmd
}

func runAlarms(ctx context.Context, opts *cliOptions, limit int, allDevices bool) error {
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return err
	}

	db, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-only command

	filter := alarm.Filter{Limit: limit}
	if !allDevices {
		filter.UserID = cfg.Account.UserID
		filter.DeviceID = cfg.Account.DeviceID
	}

	alarms, err := alarm.NewSQLiteRepository(db.DB).List(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing alarms: %w", err)
	}

	if len(alarms) == 0 {
		fmt.Fprintln(opts.out, "no alarms recorded")
		return nil
	}
	for _, a := range alarms {
		fmt.Fprintf(opts.out, "%s  [%s] %s\n", a.CreatedAt.Local().Format(time.DateTime), a.Topic, a.Payload)
	}
	return nil
}
