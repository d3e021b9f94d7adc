package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
)

const (
	// statusQoS matches the firmware's status publishes.
	statusQoS byte = 1

	// commandQoS is used for the command subscription.
	commandQoS byte = 1

	// statusQueueSize bounds replies waiting to be published.
	statusQueueSize = 16
)

// Conn is the part of the broker client the simulator uses.
// Implemented by *mqtt.Client.
type Conn interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Simulator stands in for a device: it listens on the command topic and
// publishes the resulting status.
//
// Replies are queued by the message handler and published from Run, so the
// handler never waits on a publish acknowledgement.
//
// Thread Safety: All methods are safe for concurrent use.
type Simulator struct {
	conn   Conn
	topics mqtt.Topics
	logger *logging.Logger

	mu    sync.RWMutex
	armed bool

	replies chan string
	fatal   chan error
}

// NewSimulator creates a simulator for topics on conn.
func NewSimulator(conn Conn, topics mqtt.Topics, logger *logging.Logger) *Simulator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Simulator{
		conn:    conn,
		topics:  topics,
		logger:  logger.With("component", "simulator", "device_id", topics.DeviceID()),
		replies: make(chan string, statusQueueSize),
		fatal:   make(chan error, 1),
	}
}

// HandleConnect subscribes to the command topic. Registered as the client's
// on-connect callback.
func (s *Simulator) HandleConnect() {
	topic := s.topics.Command()
	if err := s.conn.Subscribe(topic, commandQoS, s.HandleMessage); err != nil {
		s.logger.Error("command subscription failed", "topic", topic, "error", err)
		select {
		case s.fatal <- fmt.Errorf("subscribing to %s: %w", topic, err):
		default:
		}
		return
	}
	s.logger.Info("waiting for commands", "topic", topic)
}

// HandleMessage executes one command message. Payloads are resolved with
// MatchPayload, so the monitor's empty poke arms the device.
func (s *Simulator) HandleMessage(topic string, payload []byte) error {
	if topic != s.topics.Command() {
		return nil
	}

	cmd, ok := MatchPayload(string(payload))
	if !ok {
		s.logger.Debug("ignoring payload", "payload", string(payload))
		return nil
	}

	s.logger.Info("received command", "command", cmd)

	switch cmd {
	case CommandArm:
		s.setArmed(true)
	case CommandDisarm:
		s.setArmed(false)
	case CommandLocate:
		s.logger.Info("locate requested", "armed", s.Armed())
	}

	status, ok := StatusFor(cmd)
	if !ok {
		return nil
	}

	select {
	case s.replies <- status:
	default:
		s.logger.Warn("status queue full, dropping reply", "status", status)
	}
	return nil
}

// Run publishes queued status replies until ctx is cancelled or the
// command subscription fails.
func (s *Simulator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-s.fatal:
			return err
		case status := <-s.replies:
			if err := s.conn.Publish(s.topics.Status(), []byte(status), statusQoS, false); err != nil {
				s.logger.Error("status publish failed", "status", status, "error", err)
				continue
			}
			s.logger.Info("status published", "status", status)
		}
	}
}

// Armed reports the simulated arm state.
func (s *Simulator) Armed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.armed
}

func (s *Simulator) setArmed(armed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = armed
}
