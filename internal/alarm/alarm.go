package alarm

import (
	"bytes"
	"fmt"
	"time"

	"github.com/nerrad567/antitheft-monitor/internal/infrastructure/mqtt"
)

// Payload markers the device uses for alarm conditions.
var (
	triggerMarker = []byte("trigger")
	openPayload   = []byte("open")
)

// Alarm is one journal entry.
type Alarm struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Topic     string    `json:"topic"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields Create needs.
func (a *Alarm) Validate() error {
	switch {
	case a.Topic == "":
		return fmt.Errorf("%w: topic is empty", ErrInvalidAlarm)
	case a.UserID == "" || a.DeviceID == "":
		return fmt.Errorf("%w: user and device are required", ErrInvalidAlarm)
	}
	return nil
}

// Classify reports whether a message is an alarm, and returns its parsed topic.
func Classify(topic string, payload []byte) (mqtt.TopicParts, bool) {
	parts, ok := mqtt.ParseTopic(topic)
	if !ok {
		return mqtt.TopicParts{}, false
	}

	switch parts.Category {
	case mqtt.CategoryEvent, mqtt.CategorySensor:
	default:
		return parts, false
	}

	if bytes.Contains(payload, triggerMarker) || bytes.Equal(payload, openPayload) {
		return parts, true
	}
	return parts, false
}
