package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/antitheft-monitor/internal/alarm"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/config"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every infrastructure client the health
// endpoint reports on (*database.DB, *influxdb.Client, *mqtt.Client).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BrokerStatus is the broker client as seen by the health endpoint.
// Implemented by *mqtt.Client.
type BrokerStatus interface {
	HealthChecker
	HasSubscription(topic string) bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config config.APIConfig
	Logger *logging.Logger
	Topics mqtt.Topics
	MQTT   BrokerStatus     // optional; health is degraded without it
	Alarms alarm.Repository // optional; nil when the journal is disabled

	// Checks names further components to include in the health report,
	// such as "database" and "influxdb". Nil entries are skipped.
	Checks map[string]HealthChecker

	Version string
}

// Server is the HTTP API server.
//
// It is created with New and started with Start. Received messages are fed
// in through Observe, which makes the server a monitor observer.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	topics  mqtt.Topics
	mqtt    BrokerStatus
	alarms  alarm.Repository
	checks  map[string]HealthChecker
	version string

	hub      *Hub
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	logger := deps.Logger.With("component", "api")

	return &Server{
		cfg:     deps.Config,
		logger:  logger,
		topics:  deps.Topics,
		mqtt:    deps.MQTT,
		alarms:  deps.Alarms,
		checks:  deps.Checks,
		version: deps.Version,
		hub:     NewHub(deps.Config.WebSocket, logger),
	}, nil
}

// Start binds the listener and serves in a background goroutine.
// A bind failure (port in use) is returned directly.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)))
	if err != nil {
		s.cancel()
		return fmt.Errorf("starting API server: %w", err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// Observe forwards a received message to WebSocket subscribers.
func (s *Server) Observe(topic string, payload []byte) {
	s.hub.Broadcast(ChannelMessage, MessageEvent{
		Topic:   topic,
		Payload: string(payload),
	})
}
