package alarm

import "errors"

// ErrInvalidAlarm is returned when an alarm is missing its topic or identifiers.
var ErrInvalidAlarm = errors.New("alarm: invalid alarm")
