// Package influxdb keeps time-series history for the sensor admin service.
//
// Two measurements are written:
//
//	svid_readings   tag svid;                    field value (float)
//	config_changes  tags sensor_type, action;    field keys (int)
//
// The latest reading of each SVID is served from memory by the telemetry
// package; InfluxDB holds the history. Writes are batched and asynchronous.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without history
//	}
//	defer client.Close()
//	client.WriteSVIDReading("SVID001_S1", 23.5, time.Now())
package influxdb
