// Package logging provides structured logging for the anti-theft monitor.
//
// This package wraps Go's standard log/slog package with the service's
// default fields (service, version) and level filtering.
//
// Received MQTT messages are not logged here: the monitor prints those
// to stdout as plain "[topic] payload" lines, so structured logs default
// to stderr to keep the two streams apart.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("connected", "broker", "localhost:1883")
//
// Never log broker passwords or InfluxDB tokens.
package logging
