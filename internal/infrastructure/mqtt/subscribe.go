package mqtt

import "fmt"

// Subscribe routes messages matching topic to handler.
//
// Parameters:
//   - topic: a topic or pattern; + matches one level, # the remainder
//   - qos: maximum QoS the broker should deliver at (0, 1 or 2)
//   - handler: called on paho's goroutine; a panic is recovered and logged
//
// The subscription is remembered and renewed on every reconnect. A
// subscribe the broker rejects is forgotten again.
//
// Example:
//
//	err := client.Subscribe(client.Topics().AllSVIDReadings(), 1, ingester.Handle)
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if err := checkTopicQoS(topic, qos); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.mu.Lock()
	c.subscriptions[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()

	err := wait(c.paho.Subscribe(topic, qos, c.wrapHandler(handler)), defaultPublishTimeout, ErrSubscribeFailed)
	if err != nil {
		c.forget(topic)
	}
	return err
}

// Unsubscribe drops a pattern previously passed to Subscribe.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.forget(topic)
	return wait(c.paho.Unsubscribe(topic), defaultPublishTimeout, ErrUnsubscribeFailed)
}

func (c *Client) forget(topic string) {
	c.mu.Lock()
	delete(c.subscriptions, topic)
	c.mu.Unlock()
}

// SubscriptionCount returns how many patterns will be renewed on reconnect.
func (c *Client) SubscriptionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscriptions)
}

// HasSubscription matches the pattern exactly, not by wildcard.
func (c *Client) HasSubscription(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[topic]
	return ok
}
