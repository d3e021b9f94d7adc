package monitor

import "errors"

var (
	// ErrInvalidPayload is returned when a payload is not valid UTF-8.
	ErrInvalidPayload = errors.New("monitor: payload is not valid UTF-8")

	// ErrConnectionLost is reported when the broker connection drops and
	// reconnect is disabled.
	ErrConnectionLost = errors.New("monitor: connection lost")

	// ErrConnectSequence is reported when the subscribe or publish performed
	// on connect fails.
	ErrConnectSequence = errors.New("monitor: connect sequence failed")
)
