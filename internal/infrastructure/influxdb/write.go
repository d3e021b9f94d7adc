package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementMessages = "antitheft_messages"
	measurementAlarms   = "antitheft_alarms"
)

// WriteMessage records one received message.
//
// Tags are low-cardinality topic levels; the payload itself is never stored,
// only its size.
func (c *Client) WriteMessage(userID, deviceID, category string, size int, at time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(newMessagePoint(userID, deviceID, category, size, at))
}

// WriteAlarm records one detected alarm and flushes it immediately.
func (c *Client) WriteAlarm(userID, deviceID, category string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(newAlarmPoint(userID, deviceID, category, at))
	c.Flush()
}

func newMessagePoint(userID, deviceID, category string, size int, at time.Time) *write.Point {
	return write.NewPoint(
		measurementMessages,
		map[string]string{
			"user_id":   userID,
			"device_id": deviceID,
			"category":  category,
		},
		map[string]interface{}{
			"count": 1,
			"bytes": size,
		},
		at,
	)
}

func newAlarmPoint(userID, deviceID, category string, at time.Time) *write.Point {
	return write.NewPoint(
		measurementAlarms,
		map[string]string{
			"user_id":   userID,
			"device_id": deviceID,
			"category":  category,
		},
		map[string]interface{}{
			"count": 1,
		},
		at,
	)
}
