// Package mqtt connects the sensor admin service to an MQTT broker.
//
// The service publishes each sensor type's configuration as a retained JSON
// message, so acquisition hosts receive the current settings as soon as they
// subscribe, and ingests live SVID readings from the same broker.
//
// # Topics
//
//	sensoradmin/config/{sensorType}   retained, JSON object (empty payload on delete)
//	sensoradmin/svid/{svid}           {"value": 23.5, "timestamp": "..."}
//	sensoradmin/system/status         retained online/offline status, also the LWT
//
// The prefix is configurable (mqtt.topic_prefix).
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.PublishRetained(topics.SensorTypeConfig("Temperature"), blob)
package mqtt
