// Package monitor watches one device's topics on the broker.
//
// On every connection the Monitor subscribes to the device wildcard
// (anti_theft/{user}/{device}/#) and then publishes one empty message to
// the device's command topic. Each message received afterwards is written
// to the output as a single line:
//
//	[anti_theft/daniel/device01/status] ARMED
//
// Faults the monitor cannot recover from (a failed subscribe or publish
// during connect, a payload that is not valid UTF-8, a dropped connection
// with reconnect disabled) end Run with an error.
//
// Ordering:
//
//	Messages delivered while the connect sequence is still in flight are
//	held back and written once the command publish has completed, so no
//	message line ever precedes the publish. Output lines never interleave.
package monitor
