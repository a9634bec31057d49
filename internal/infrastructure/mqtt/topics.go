package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configuration leaves topic_prefix empty.
const DefaultTopicPrefix = "sensoradmin"

// Topics builds the sensor admin MQTT topic hierarchy:
//
//	{prefix}/config/{sensorType}   retained JSON configuration of a sensor type
//	{prefix}/svid/{svid}           live readings published by acquisition hosts
//	{prefix}/system/status         online/offline status (LWT)
type Topics struct {
	Prefix string
}

// NewTopics returns topic builders rooted at prefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// SensorTypeConfig returns the retained configuration topic of a sensor type.
//
// Example: sensoradmin/config/Temperature
func (t Topics) SensorTypeConfig(sensorType string) string {
	return fmt.Sprintf("%s/config/%s", t.prefix(), sensorType)
}

// SVIDReading returns the topic on which readings for one SVID arrive.
//
// Example: sensoradmin/svid/SVID001_S1
func (t Topics) SVIDReading(svid string) string {
	return fmt.Sprintf("%s/svid/%s", t.prefix(), svid)
}

// AllSVIDReadings matches every SVID reading topic.
func (t Topics) AllSVIDReadings() string {
	return t.prefix() + "/svid/+"
}

// AllSensorTypeConfigs matches every retained configuration topic.
func (t Topics) AllSensorTypeConfigs() string {
	return t.prefix() + "/config/+"
}

// SystemStatus returns the online/offline status topic.
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// LastSegment returns the final level of a topic, which for config and
// SVID topics is the sensor type or SVID.
func LastSegment(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}

// ValidateSegment reports whether s can be used as a single topic level.
func ValidateSegment(s string) error {
	if s == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(s, "/+#") {
		return fmt.Errorf("%w: %q contains '/', '+' or '#'", ErrInvalidTopic, s)
	}
	return nil
}
