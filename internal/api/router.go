package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/antitheft-monitor/internal/alarm"
	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/alarms", s.handleListAlarms)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// healthCheckTimeout bounds the whole health report.
const healthCheckTimeout = 2 * time.Second

// handleHealth reports the broker connection and every configured component.
//
// Each component maps to "ok" or its error text. The response is 503
// ("degraded") when any component fails or there is no broker client.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := make(map[string]string, len(s.checks)+1)
	healthy := true

	record := func(name string, err error) {
		if err != nil {
			components[name] = err.Error()
			healthy = false
			return
		}
		components[name] = "ok"
	}

	subscribed := false
	if s.mqtt == nil {
		record("mqtt", mqtt.ErrNotConnected)
	} else {
		record("mqtt", s.mqtt.HealthCheck(ctx))
		subscribed = s.mqtt.HasSubscription(s.topics.Subscription())
	}
	for name, check := range s.checks {
		if check != nil {
			record(name, check.HealthCheck(ctx))
		}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":       status,
		"version":      s.version,
		"components":   components,
		"subscription": s.topics.Subscription(),
		"subscribed":   subscribed,
		"ws_clients":   s.hub.ClientCount(),
	})
}

// handleListAlarms returns recent alarms for the monitored device.
//
// Query parameters:
//   - limit: max results (default 50, max 500)
//   - all: "true" to include every device in the journal
func (s *Server) handleListAlarms(w http.ResponseWriter, r *http.Request) {
	if s.alarms == nil {
		writeUnavailable(w, r, "alarm journal disabled")
		return
	}

	q := r.URL.Query()
	filter := alarm.Filter{}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, r, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if q.Get("all") != "true" {
		filter.UserID = s.topics.UserID()
		filter.DeviceID = s.topics.DeviceID()
	}

	alarms, err := s.alarms.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list alarms", "error", err)
		writeInternalError(w, r, "failed to list alarms")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alarms": alarms,
		"count":  len(alarms),
	})
}
