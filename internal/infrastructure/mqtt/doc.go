// Package mqtt provides MQTT client connectivity for the anti-theft monitor.
//
// This package manages:
//   - Connection to the broker with configurable keep-alive
//   - Optional auto-reconnect with exponential backoff (off by default)
//   - Message publishing and wildcard subscriptions
//   - The anti_theft/{user}/{device}/... topic scheme
//
// # Topic scheme
//
//	anti_theft/{user}/{device}/#        everything about one device
//	anti_theft/{user}/{device}/command  commands to the device (ARM, DISARM, LOCATE)
//	anti_theft/{user}/{device}/status   arm state reported by the device
//	anti_theft/{user}/{device}/event    device events
//	anti_theft/{user}/{device}/debug    device debug output
//
// # Message delivery
//
// paho delivers messages to handlers one at a time, in arrival order.
// Handlers must not block waiting on the network.
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT)
//	client.SetOnConnect(func() { ... })
//	if err := client.Connect(); err != nil {
//	    return err
//	}
//	defer client.Close()
package mqtt
