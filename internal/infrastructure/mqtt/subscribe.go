package mqtt

import (
	"fmt"
)

// Subscribe registers a handler for messages matching topic.
//
// Topics can include MQTT wildcards:
//   - + (single-level): "anti_theft/+/device01/status"
//   - # (multi-level): "anti_theft/daniel/device01/#"
//
// The subscription is tracked and restored after an automatic reconnect.
// Subscribing again to the same filter replaces the previous handler.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	previous, existed := c.subscriptions[topic]
	c.subscriptions[topic] = subscription{
		topic:   topic,
		qos:     qos,
		handler: handler,
	}
	c.subMu.Unlock()

	err := waitToken(c.client.Subscribe(topic, qos, c.wrapHandler(handler)), ErrSubscribeFailed)
	if err != nil {
		// Roll tracking back to what it was before this call
		c.subMu.Lock()
		if existed {
			c.subscriptions[topic] = previous
		} else {
			delete(c.subscriptions, topic)
		}
		c.subMu.Unlock()
		return err
	}

	return nil
}

// HasSubscription reports whether topic is tracked. It compares the exact
// filter string and does no wildcard matching.
func (c *Client) HasSubscription(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, exists := c.subscriptions[topic]
	return exists
}
