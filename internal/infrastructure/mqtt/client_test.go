package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
// Unit tests in this file never dial it.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:      "127.0.0.1",
			Port:      1883,
			ClientID:  "antitheft-test",
			KeepAlive: 15,
		},
		QoS: 0,
	}
}

// mockLogger implements Logger for testing.
type mockLogger struct {
	errors []string
	warns  []string
	mu     sync.Mutex
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

// =============================================================================
// Options
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "user", Password: "pass"}

	opts := buildClientOptions(cfg, "antitheft-test")

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want [tcp://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "antitheft-test" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "antitheft-test")
	}
	if opts.KeepAlive != 15 {
		t.Errorf("KeepAlive = %d, want 15", opts.KeepAlive)
	}
	if opts.Username != "user" || opts.Password != "pass" {
		t.Errorf("credentials = %q/%q, want user/pass", opts.Username, opts.Password)
	}
	if opts.AutoReconnect {
		t.Error("AutoReconnect = true, want false when reconnect is disabled")
	}
	if opts.ConnectRetry {
		t.Error("ConnectRetry = true, want false")
	}
	if opts.TLSConfig != nil {
		t.Error("TLSConfig set without broker.tls")
	}
}

func TestBuildClientOptions_TLSAndReconnect(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	cfg.Reconnect = config.MQTTReconnectConfig{Enabled: true, InitialDelay: 2, MaxDelay: 30}

	opts := buildClientOptions(cfg, "antitheft-test")

	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers[0] = %s, want ssl://127.0.0.1:8883", opts.Servers[0])
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLSConfig missing or below TLS 1.2")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if opts.MaxReconnectInterval.Seconds() != 30 {
		t.Errorf("MaxReconnectInterval = %v, want 30s", opts.MaxReconnectInterval)
	}
}

func TestResolveClientID(t *testing.T) {
	if got := resolveClientID("fixed"); got != "fixed" {
		t.Errorf("resolveClientID(fixed) = %q", got)
	}

	generated := resolveClientID("")
	if !strings.HasPrefix(generated, clientIDPrefix) || len(generated) != len(clientIDPrefix)+8 {
		t.Errorf("resolveClientID(\"\") = %q, want %s + 8 chars", generated, clientIDPrefix)
	}
	if generated == resolveClientID("") {
		t.Error("resolveClientID should generate distinct identifiers")
	}
}

// =============================================================================
// Unconnected client
// =============================================================================

func TestNew_NotConnected(t *testing.T) {
	client := New(testConfig())

	if client.IsConnected() {
		t.Error("IsConnected() = true before Connect()")
	}
	if client.ClientID() != "antitheft-test" {
		t.Errorf("ClientID() = %q, want %q", client.ClientID(), "antitheft-test")
	}
	if client.QoS() != 0 {
		t.Errorf("QoS() = %d, want 0", client.QoS())
	}
}

func TestPublish_Validation(t *testing.T) {
	client := New(testConfig())

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", nil, 0, ErrInvalidTopic},
		{"invalid qos", "anti_theft/u/d/command", nil, 3, ErrInvalidQoS},
		{"oversized payload", "anti_theft/u/d/command", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
		{"not connected", "anti_theft/u/d/command", nil, 0, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	client := New(testConfig())
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		want    error
	}{
		{"empty topic", "", 0, handler, ErrInvalidTopic},
		{"invalid qos", "anti_theft/u/d/#", 3, handler, ErrInvalidQoS},
		{"nil handler", "anti_theft/u/d/#", 0, nil, ErrSubscribeFailed},
		{"not connected", "anti_theft/u/d/#", 0, handler, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.want) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.want)
			}
		})
	}

	if client.HasSubscription("anti_theft/u/d/#") {
		t.Error("HasSubscription() = true after failed subscribes, want false")
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	client := New(testConfig())

	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 1 // Nothing listens here

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// =============================================================================
// Callbacks and dispatch
// =============================================================================

func TestCallbacks(t *testing.T) {
	client := New(testConfig())

	var connects int
	var lost error
	client.SetOnConnect(func() { connects++ })
	client.SetOnDisconnect(func(err error) { lost = err })

	client.handleConnect()
	if connects != 1 {
		t.Errorf("onConnect calls = %d, want 1", connects)
	}

	cause := errors.New("broker went away")
	client.handleDisconnect(cause)
	if !errors.Is(lost, cause) {
		t.Errorf("onDisconnect error = %v, want %v", lost, cause)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after handleDisconnect")
	}
}

func TestDispatch_LogsHandlerError(t *testing.T) {
	client := New(testConfig())
	logger := &mockLogger{}
	client.SetLogger(logger)

	client.dispatch(func(string, []byte) error {
		return errors.New("boom")
	}, "anti_theft/u/d/status", []byte("ARMED"))

	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one entry", logger.warns)
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	client := New(testConfig())
	logger := &mockLogger{}
	client.SetLogger(logger)

	client.dispatch(func(string, []byte) error {
		panic("handler bug")
	}, "anti_theft/u/d/status", nil)

	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want one entry", logger.errors)
	}
}

func TestDispatch_NoLogger(t *testing.T) {
	client := New(testConfig())

	// Must not panic without a logger
	client.dispatch(func(string, []byte) error {
		panic("handler bug")
	}, "anti_theft/u/d/status", nil)
}
