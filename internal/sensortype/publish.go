package sensortype

import "context"

// RetainedPublisher publishes retained messages. *mqtt.Client satisfies it.
type RetainedPublisher interface {
	PublishRetained(topic string, payload []byte) error
	ClearRetained(topic string) error
}

// ChangeWriter records change events as time series. *influxdb.Client
// satisfies it.
type ChangeWriter interface {
	WriteConfigChange(sensorType, action string, keys int)
}

// PublishConfigs returns an Observer that keeps one retained message per
// sensor type holding its JSON configuration. Deleting a type clears the
// retained message.
func PublishConfigs(pub RetainedPublisher, topicFor func(name string) string, logger Logger) Observer {
	if logger == nil {
		logger = noopLogger{}
	}
	return func(ev Event) {
		topic := topicFor(ev.Name)
		if ev.SensorType == nil {
			if err := pub.ClearRetained(topic); err != nil {
				logger.Warn("clearing retained sensor type config failed", "sensor_type", ev.Name, "error", err)
			}
			return
		}

		payload, err := ev.SensorType.Config.MarshalJSON()
		if err != nil {
			logger.Error("encoding sensor type config failed", "sensor_type", ev.Name, "error", err)
			return
		}
		if err := pub.PublishRetained(topic, payload); err != nil {
			logger.Warn("publishing sensor type config failed", "sensor_type", ev.Name, "error", err)
		}
	}
}

// RecordChanges returns an Observer that writes each change to w.
func RecordChanges(w ChangeWriter) Observer {
	return func(ev Event) {
		keys := 0
		if ev.SensorType != nil {
			keys = ev.SensorType.Config.Len()
		}
		w.WriteConfigChange(ev.Name, ev.Action, keys)
	}
}

// PublishAll publishes the current configuration of every cached sensor
// type. Used after (re)connecting to the broker.
func (r *Registry) PublishAll(ctx context.Context, pub RetainedPublisher, topicFor func(name string) string) int {
	observer := PublishConfigs(pub, topicFor, r.logger)
	types := r.List(ctx)
	for _, t := range types {
		observer(Event{Action: ActionUpdate, Name: t.Name, SensorType: t})
	}
	return len(types)
}
