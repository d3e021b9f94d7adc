// Package influxdb records monitor telemetry in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library and writes two
// measurements:
//
//	antitheft_messages  one point per received message (user_id, device_id, category; count, bytes)
//	antitheft_alarms    one point per detected alarm (user_id, device_id, category; count)
//
// Telemetry is optional. With influxdb.enabled false, Connect returns
// ErrDisabled and the monitor runs without it.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteMessage("daniel", "device01", "status", 5, time.Now())
package influxdb
