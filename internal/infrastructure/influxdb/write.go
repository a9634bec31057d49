package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementSVIDReadings  = "svid_readings"
	MeasurementConfigChanges = "config_changes"
)

// WriteSVIDReading records one reading of a status variable.
//
// The point goes to the svid_readings measurement tagged with svid. A zero
// ts is replaced by the current time. The write is queued, not sent; a
// failure surfaces later through the SetOnError callback.
func (c *Client) WriteSVIDReading(svid string, value float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(newSVIDPoint(svid, value, ts))
}

// WriteConfigChange records a sensor type configuration change. keys is
// the number of configuration keys after the change (0 for deletions).
func (c *Client) WriteConfigChange(sensorType, action string, keys int) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(newConfigChangePoint(sensorType, action, keys, time.Now()))
}

func newSVIDPoint(svid string, value float64, ts time.Time) *write.Point {
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementSVIDReadings,
		map[string]string{"svid": svid},
		map[string]any{"value": value},
		ts,
	)
}

func newConfigChangePoint(sensorType, action string, keys int, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementConfigChanges,
		map[string]string{"sensor_type": sensorType, "action": action},
		map[string]any{"keys": keys},
		ts,
	)
}
