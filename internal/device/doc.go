// Package device holds the anti-theft device's command set and a simulator
// that answers commands the way the firmware does.
//
// Commands are plain text payloads on anti_theft/{user}/{device}/command:
//
//	ARM     arm the alarm, reported as ARMED on the status topic
//	DISARM  disarm the alarm, reported as DISARMED
//	LOCATE  request a position fix (no status report)
//
// Matching is exact and case-sensitive. Anything else, including the empty
// payload a monitor sends when it connects, is ignored.
package device
