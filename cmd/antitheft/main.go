// Anti-theft monitor - watches an anti-theft device over MQTT.
//
// The default command connects to the broker, subscribes to
// anti_theft/{user}/{device}/#, pokes the device's command topic once and
// prints every message it receives as "[topic] payload".
//
// Other commands send a device command, simulate a device, and list the
// alarm journal. Configuration is read from configs/config.yaml unless
// --config or ANTITHEFT_CONFIG says otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/config"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
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
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions is shared by every subcommand.
type cliOptions struct {
	configPath string
	out        io.Writer
}

// newRootCmd builds the command tree. Message lines and command output go to out.
func newRootCmd(out io.Writer) *cobra.Command {
	opts := &cliOptions{out: out}

	root := &cobra.Command{
		Use:   "antitheft",
		Short: "Monitor an anti-theft device over MQTT",
		Long: `antitheft connects to the MQTT broker and prints every message published
under anti_theft/{user}/{device}/.

Running it without a subcommand is the same as "antitheft monitor".`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd.Context(), opts)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to config file (default $ANTITHEFT_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(
		newMonitorCmd(opts),
		newSendCmd(opts),
		newDeviceCmd(opts),
		newAlarmsCmd(opts),
	)

	return root
}

// getConfigPath returns the configuration file path.
// The --config flag wins, then ANTITHEFT_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("ANTITHEFT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfig loads configuration and builds the configured logger.
func loadConfig(opts *cliOptions) (*config.Config, *logging.Logger, error) {
	configPath := getConfigPath(opts.configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Debug("configuration loaded", "path", configPath)

	return cfg, log, nil
}

// connectLogged opens a client with no callbacks, for one-shot commands.
func connectLogged(cfg *config.Config, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.With("component", "mqtt"))
	log.Info("MQTT connected", "broker", cfg.MQTT.BrokerAddress(), "client_id", client.ClientID())
	return client, nil
}
