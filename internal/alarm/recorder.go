package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/logging"
)

// recordTimeout bounds a single journal insert.
const recordTimeout = 2 * time.Second

// MetricsWriter receives a point for every recorded alarm.
// Implemented by *influxdb.Client.
type MetricsWriter interface {
	WriteAlarm(userID, deviceID, category string, at time.Time)
}

// Recorder classifies received messages and journals the alarms.
//
// Thread Safety:
//   - Observe is safe for concurrent use.
type Recorder struct {
	repo   Repository
	logger *logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	metrics MetricsWriter
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo Repository, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{
		repo:   repo,
		logger: logger.With("component", "alarm"),
		now:    time.Now,
	}
}

// SetMetrics attaches an optional telemetry sink.
func (r *Recorder) SetMetrics(m MetricsWriter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
}

// Observe records the message if it is an alarm.
// Failures are logged; they never stop the caller.
func (r *Recorder) Observe(topic string, payload []byte) {
	parts, ok := Classify(topic, payload)
	if !ok {
		return
	}

	a := &Alarm{
		UserID:    parts.UserID,
		DeviceID:  parts.DeviceID,
		Topic:     topic,
		Payload:   string(payload),
		CreatedAt: r.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, a); err != nil {
		r.logger.Error("failed to record alarm", "topic", topic, "error", err)
		return
	}

	r.logger.Info("alarm recorded",
		"id", a.ID,
		"device_id", a.DeviceID,
		"topic", topic,
	)

	r.mu.RLock()
	metrics := r.metrics
	r.mu.RUnlock()

	if metrics != nil {
		metrics.WriteAlarm(a.UserID, a.DeviceID, parts.Category, a.CreatedAt)
	}
}
