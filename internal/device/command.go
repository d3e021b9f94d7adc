package device

import (
	"fmt"
	"strings"
)

// Command is a device command payload.
type Command string

// Device commands.
const (
	CommandArm    Command = "ARM"
	CommandDisarm Command = "DISARM"
	CommandLocate Command = "LOCATE"
)

// Status payloads published in reply to commands.
const (
	StatusArmed    = "ARMED"
	StatusDisarmed = "DISARMED"
)

// Commands returns every known command, in display order.
func Commands() []Command {
	return []Command{CommandArm, CommandDisarm, CommandLocate}
}

// ParseCommand matches s exactly against the known commands.
func ParseCommand(s string) (Command, error) {
	for _, c := range Commands() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// MatchPayload resolves a received command payload the way the device
// firmware does: the payload matches a command when it is a prefix of it,
// checked in the order ARM, DISARM, LOCATE. An empty payload therefore
// matches ARM, as do "A" and "AR"; "DIS" matches DISARM.
//
// ParseCommand is the strict form used when sending.
func MatchPayload(payload string) (Command, bool) {
	for _, c := range Commands() {
		if strings.HasPrefix(string(c), payload) {
			return c, true
		}
	}
	return "", false
}

// StatusFor returns the status a device reports after executing c.
// The second value is false for commands with no status report.
func StatusFor(c Command) (string, bool) {
	switch c {
	case CommandArm:
		return StatusArmed, true
	case CommandDisarm:
		return StatusDisarmed, true
	default:
		return "", false
	}
}

func (c Command) String() string { return string(c) }
