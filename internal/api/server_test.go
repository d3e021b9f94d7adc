package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/antitheft-monitor/internal/alarm"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/config"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
)

type fakeBroker struct {
	err        error
	subscribed bool
}

func (f fakeBroker) HealthCheck(context.Context) error { return f.err }

func (f fakeBroker) HasSubscription(string) bool { return f.subscribed }

type fakeCheck struct{ err error }

func (f fakeCheck) HealthCheck(context.Context) error { return f.err }

type fakeAlarms struct {
	alarms     []alarm.Alarm
	err        error
	lastFilter alarm.Filter
}

func (f *fakeAlarms) Create(_ context.Context, _ *alarm.Alarm) error { return nil }

func (f *fakeAlarms) List(_ context.Context, filter alarm.Filter) ([]alarm.Alarm, error) {
	f.lastFilter = filter
	return f.alarms, f.err
}

func testConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    0,
		Timeouts: config.APITimeoutConfig{
			Read:  5,
			Write: 5,
			Idle:  5,
		},
		WebSocket: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
	}
}

// testServer builds an unstarted Server for handler tests.
func testServer(t *testing.T, deps Deps) *Server {
	t.Helper()

	topics, err := mqtt.NewTopics("daniel", "device01")
	if err != nil {
		t.Fatalf("NewTopics() error = %v", err)
	}
	deps.Config = testConfig()
	deps.Topics = topics
	deps.Version = "test"
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func doGet(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresLogger(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
}

func TestHandleHealth(t *testing.T) {
	dbDown := errors.New("database is closed")

	tests := []struct {
		name           string
		broker         BrokerStatus
		checks         map[string]HealthChecker
		wantCode       int
		wantStatus     string
		wantSubscribed bool
		wantComponents map[string]string
	}{
		{
			name:           "connected and subscribed",
			broker:         fakeBroker{subscribed: true},
			checks:         map[string]HealthChecker{"database": fakeCheck{}},
			wantCode:       http.StatusOK,
			wantStatus:     "ok",
			wantSubscribed: true,
			wantComponents: map[string]string{"mqtt": "ok", "database": "ok"},
		},
		{
			name:           "broker down",
			broker:         fakeBroker{err: mqtt.ErrNotConnected},
			wantCode:       http.StatusServiceUnavailable,
			wantStatus:     "degraded",
			wantComponents: map[string]string{"mqtt": mqtt.ErrNotConnected.Error()},
		},
		{
			name:           "database failing",
			broker:         fakeBroker{subscribed: true},
			checks:         map[string]HealthChecker{"database": fakeCheck{err: dbDown}},
			wantCode:       http.StatusServiceUnavailable,
			wantStatus:     "degraded",
			wantSubscribed: true,
			wantComponents: map[string]string{"mqtt": "ok", "database": dbDown.Error()},
		},
		{
			name:           "nil check skipped",
			broker:         fakeBroker{subscribed: true},
			checks:         map[string]HealthChecker{"influxdb": nil},
			wantCode:       http.StatusOK,
			wantStatus:     "ok",
			wantSubscribed: true,
			wantComponents: map[string]string{"mqtt": "ok"},
		},
		{
			name:           "no client",
			wantCode:       http.StatusServiceUnavailable,
			wantStatus:     "degraded",
			wantComponents: map[string]string{"mqtt": mqtt.ErrNotConnected.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, Deps{MQTT: tt.broker, Checks: tt.checks})
			rec := doGet(t, srv, "/api/v1/health")

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}

			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %s", body["status"], tt.wantStatus)
			}
			if body["subscription"] != "anti_theft/daniel/device01/#" {
				t.Errorf("subscription = %v", body["subscription"])
			}
			if body["subscribed"] != tt.wantSubscribed {
				t.Errorf("subscribed = %v, want %v", body["subscribed"], tt.wantSubscribed)
			}

			components, _ := body["components"].(map[string]any)
			if len(components) != len(tt.wantComponents) {
				t.Errorf("components = %v, want %v", components, tt.wantComponents)
			}
			for name, want := range tt.wantComponents {
				if components[name] != want {
					t.Errorf("components[%s] = %v, want %q", name, components[name], want)
				}
			}
		})
	}
}

func TestHandleListAlarms(t *testing.T) {
	repo := &fakeAlarms{alarms: []alarm.Alarm{
		{ID: "alm-1", UserID: "daniel", DeviceID: "device01", Topic: "anti_theft/daniel/device01/event", Payload: "trigger"},
	}}
	srv := testServer(t, Deps{Alarms: repo})

	rec := doGet(t, srv, "/api/v1/alarms?limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Alarms []alarm.Alarm `json:"alarms"`
		Count  int           `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Count != 1 || body.Alarms[0].ID != "alm-1" {
		t.Errorf("body = %+v, want the seeded alarm", body)
	}

	if repo.lastFilter.Limit != 5 {
		t.Errorf("filter.Limit = %d, want 5", repo.lastFilter.Limit)
	}
	if repo.lastFilter.UserID != "daniel" || repo.lastFilter.DeviceID != "device01" {
		t.Errorf("filter = %+v, want scoped to the monitored device", repo.lastFilter)
	}

	doGet(t, srv, "/api/v1/alarms?all=true")
	if repo.lastFilter.UserID != "" || repo.lastFilter.DeviceID != "" {
		t.Errorf("filter = %+v, want unscoped with all=true", repo.lastFilter)
	}
}

func TestHandleListAlarms_Errors(t *testing.T) {
	t.Run("journal disabled", func(t *testing.T) {
		srv := testServer(t, Deps{})
		if rec := doGet(t, srv, "/api/v1/alarms"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status code = %d, want 503", rec.Code)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		srv := testServer(t, Deps{Alarms: &fakeAlarms{}})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/alarms?limit=abc", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		srv.buildRouter().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status code = %d, want 400", rec.Code)
		}
		var body Error
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Code != ErrCodeBadRequest || body.RequestID != "req-42" {
			t.Errorf("body = %+v, want bad_request carrying the request ID", body)
		}
	})

	t.Run("repository failure", func(t *testing.T) {
		srv := testServer(t, Deps{Alarms: &fakeAlarms{err: errors.New("locked")}})
		if rec := doGet(t, srv, "/api/v1/alarms"); rec.Code != http.StatusInternalServerError {
			t.Errorf("status code = %d, want 500", rec.Code)
		}
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	srv := testServer(t, Deps{})

	rec := doGet(t, srv, "/api/v1/health")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec = httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc123" {
		t.Errorf("X-Request-ID = %q, want client value", got)
	}
}

func TestServer_StartClose(t *testing.T) {
	srv := testServer(t, Deps{MQTT: fakeBroker{subscribed: true}})

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Close() //nolint:errcheck // Test cleanup

	resp, err := http.Get("http://" + srv.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
}

func TestServer_CloseNotStarted(t *testing.T) {
	srv := testServer(t, Deps{})
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if srv.Addr() != "" {
		t.Errorf("Addr() = %q before Start, want empty", srv.Addr())
	}
}

func TestWebSocket_MessageStream(t *testing.T) {
	srv := testServer(t, Deps{})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Close() //nolint:errcheck // Test cleanup

	ws, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/api/v1/ws", nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	defer ws.Close()

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{ChannelMessage}},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // Test deadline
	var response WSMessage
	if err := ws.ReadJSON(&response); err != nil {
		t.Fatalf("read response: %v", err)
	}
	if response.Type != WSTypeResponse || response.ID != "sub-1" {
		t.Fatalf("response = %+v, want subscribe ack", response)
	}

	srv.Observe("anti_theft/daniel/device01/status", []byte("ARMED"))

	var event struct {
		Type      string       `json:"type"`
		EventType string       `json:"event_type"`
		Payload   MessageEvent `json:"payload"`
	}
	if err := ws.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != WSTypeEvent || event.EventType != ChannelMessage {
		t.Errorf("event = %+v, want a message event", event)
	}
	if event.Payload.Topic != "anti_theft/daniel/device01/status" || event.Payload.Payload != "ARMED" {
		t.Errorf("event payload = %+v", event.Payload)
	}
}

func TestWebSocket_UnknownType(t *testing.T) {
	srv := testServer(t, Deps{})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Close() //nolint:errcheck // Test cleanup

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/api/v1/ws", nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteJSON(WSMessage{Type: "bogus", ID: "x"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // Test deadline
	var response WSMessage
	if err := ws.ReadJSON(&response); err != nil {
		t.Fatalf("read response: %v", err)
	}
	if response.Type != WSTypeError {
		t.Errorf("response type = %s, want %s", response.Type, WSTypeError)
	}
}

func TestHub_BroadcastUnsubscribed(t *testing.T) {
	hub := NewHub(testConfig().WebSocket, logging.Discard())
	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, 1),
		subscriptions: make(map[string]struct{}),
	}
	hub.Register(client)

	hub.Broadcast(ChannelMessage, MessageEvent{Topic: "t", Payload: "p"})
	select {
	case <-client.send:
		t.Error("unsubscribed client received an event")
	default:
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
	// Sending after unregister must not panic.
	client.trySend([]byte("late"))
}
