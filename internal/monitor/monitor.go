package monitor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
)

// Conn is the part of the broker client the monitor uses.
// Implemented by *mqtt.Client.
type Conn interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Observer is told about every message after it has been written.
type Observer interface {
	Observe(topic string, payload []byte)
}

// MetricsWriter receives a point per written message.
// Implemented by *influxdb.Client.
type MetricsWriter interface {
	WriteMessage(userID, deviceID, category string, size int, at time.Time)
}

// Options configures a Monitor. The zero value writes to stdout, logs
// nowhere and uses QoS 0.
type Options struct {
	Out       io.Writer
	Logger    *logging.Logger
	QoS       byte
	Reconnect bool
	Observers []Observer
	Metrics   MetricsWriter
}

type message struct {
	topic   string
	payload []byte
}

// Monitor subscribes to a device's topics and prints what arrives.
//
// Thread Safety:
//   - HandleConnect, HandleMessage and HandleConnectionLost may be called
//     from different goroutines.
type Monitor struct {
	conn      Conn
	topics    mqtt.Topics
	out       io.Writer
	logger    *logging.Logger
	qos       byte
	reconnect bool
	observers []Observer
	metrics   MetricsWriter

	// mu guards primed, pending, generation and writes to out.
	mu      sync.Mutex
	primed  bool
	pending []message

	// generation counts connect sequences. Only the latest one may prime.
	generation uint64

	fatal chan error
}

// New creates a Monitor for topics on conn.
func New(conn Conn, topics mqtt.Topics, opts Options) *Monitor {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Monitor{
		conn:      conn,
		topics:    topics,
		out:       out,
		logger:    logger.With("component", "monitor"),
		qos:       opts.QoS,
		reconnect: opts.Reconnect,
		observers: opts.Observers,
		metrics:   opts.Metrics,
		fatal:     make(chan error, 1),
	}
}

// HandleConnect runs the connect sequence: subscribe to the device
// wildcard, then publish an empty payload to the command topic.
//
// It is registered as the client's on-connect callback and runs once per
// successful connection. Messages that arrive before the publish completes
// are written afterwards, in arrival order.
func (m *Monitor) HandleConnect() {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.primed = false
	m.mu.Unlock()

	sub := m.topics.Subscription()
	if err := m.conn.Subscribe(sub, m.qos, m.HandleMessage); err != nil {
		m.report(fmt.Errorf("%w: subscribing to %s: %w", ErrConnectSequence, sub, err))
		return
	}
	m.logger.Info("subscribed", "topic", sub, "qos", m.qos)

	cmd := m.topics.Command()
	if err := m.conn.Publish(cmd, []byte{}, m.qos, false); err != nil {
		m.report(fmt.Errorf("%w: publishing to %s: %w", ErrConnectSequence, cmd, err))
		return
	}
	m.logger.Info("command topic poked", "topic", cmd)

	m.mu.Lock()
	defer m.mu.Unlock()

	// A newer connection started its own sequence while this one was on
	// the network; its publish has not completed yet.
	if gen != m.generation {
		return
	}

	m.primed = true
	pending := m.pending
	m.pending = nil
	for _, msg := range pending {
		if err := m.write(msg.topic, msg.payload); err != nil {
			m.report(err)
			return
		}
	}
}

// HandleMessage writes "[topic] payload" for one received message.
//
// A payload that is not valid UTF-8 is not written; the error wraps
// ErrInvalidPayload and is also reported to Run as fatal.
func (m *Monitor) HandleMessage(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.primed {
		m.pending = append(m.pending, message{topic: topic, payload: append([]byte(nil), payload...)})
		return nil
	}

	if err := m.write(topic, payload); err != nil {
		m.report(err)
		return err
	}
	return nil
}

// HandleConnectionLost is registered as the client's disconnect callback.
//
// paho runs this and HandleConnect on separate goroutines, so it may arrive
// after the reconnect it precedes has already been primed. Messages are
// only held again while the connection is actually down.
func (m *Monitor) HandleConnectionLost(err error) {
	m.mu.Lock()
	if !m.conn.IsConnected() {
		m.primed = false
	}
	m.mu.Unlock()

	if m.reconnect {
		m.logger.Warn("connection lost, reconnecting", "error", err)
		return
	}
	m.report(fmt.Errorf("%w: %w", ErrConnectionLost, err))
}

// Run blocks until ctx is cancelled or a fatal fault is reported.
// It returns nil on cancellation and the fault otherwise.
func (m *Monitor) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-m.fatal:
		return err
	}
}

// write must be called with mu held.
func (m *Monitor) write(topic string, payload []byte) error {
	if !utf8.Valid(payload) {
		return fmt.Errorf("%w: topic %s, %d bytes", ErrInvalidPayload, topic, len(payload))
	}

	if _, err := fmt.Fprintf(m.out, "[%s] %s\n", topic, payload); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}

	if m.metrics != nil {
		if parts, ok := mqtt.ParseTopic(topic); ok {
			m.metrics.WriteMessage(parts.UserID, parts.DeviceID, parts.Category, len(payload), time.Now())
		}
	}
	for _, o := range m.observers {
		o.Observe(topic, payload)
	}

	return nil
}

// report delivers err to Run. Only the first fault is kept.
func (m *Monitor) report(err error) {
	m.logger.Error("fatal monitor error", "error", err)
	select {
	case m.fatal <- err:
	default:
	}
}
