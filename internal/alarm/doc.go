// Package alarm detects alarm messages on a device's topics and keeps a
// journal of them in SQLite.
//
// A message is an alarm when it arrives on the event category (any
// subcategory) or the sensor category and its payload either contains
// "trigger" or is exactly "open". Everything else passes through untouched;
// ordinary messages are never stored.
//
// The Recorder is attached to the monitor and runs for every received
// message. A failed insert is logged and the monitor carries on.
//
// Usage:
//
//	repo := alarm.NewSQLiteRepository(db.DB)
//	recorder := alarm.NewRecorder(repo, logger)
//	recorder.Observe("anti_theft/daniel/device01/event/motion", []byte("trigger"))
//
//	result, err := repo.List(ctx, alarm.Filter{DeviceID: "device01", Limit: 20})
package alarm
