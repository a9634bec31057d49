package mqtt

import "fmt"

// Largest payload Publish accepts (1 MiB). Sensor type configs are a few
// hundred bytes; the cap keeps a runaway blob from reaching the broker,
// whose own default limit is usually in the same range.
const maxPayloadSize = 1 << 20

// checkTopicQoS rejects an empty topic or a QoS above 2.
func checkTopicQoS(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	return nil
}

// Publish sends payload to topic and waits for the broker to acknowledge
// it (up to defaultPublishTimeout for QoS 1 and 2).
//
// Parameters:
//   - topic: full topic, e.g. Topics{}.SensorTypeConfig("Temperature")
//   - payload: message body, at most 1 MiB
//   - qos: 0 (at most once), 1 (at least once) or 2 (exactly once)
//   - retained: the broker keeps the last retained message per topic and
//     replays it to new subscribers; an empty retained payload deletes it
//
// Returns:
//   - ErrInvalidTopic or ErrInvalidQoS for bad arguments
//   - ErrNotConnected while the client is offline
//   - an error wrapping ErrPublishFailed on timeout or broker rejection
//
// Example:
//
//	blob, _ := st.Config.MarshalJSON()
//	err := client.Publish(client.Topics().SensorTypeConfig(st.Name), blob, 1, true)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := checkTopicQoS(topic, qos); err != nil {
		return err
	}
	if n := len(payload); n > maxPayloadSize {
		return fmt.Errorf("%w: %d byte payload exceeds %d", ErrPublishFailed, n, maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return wait(c.paho.Publish(topic, qos, retained, payload), defaultPublishTimeout, ErrPublishFailed)
}

// PublishRetained publishes a retained message at the configured QoS.
//
// Use it for state that late subscribers need straight away, such as the
// current config of each sensor type or the system status.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, c.qos(), true)
}

// ClearRetained deletes the retained message on topic by publishing an
// empty retained payload. Used when a sensor type is removed.
func (c *Client) ClearRetained(topic string) error {
	return c.PublishRetained(topic, nil)
}
