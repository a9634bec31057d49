// Package telemetry holds live SVID readings.
//
// Acquisition hosts publish readings to {prefix}/svid/{svid}. The Ingester
// decodes them into the in-memory Store, which answers the latest-value and
// batch lookups of the API, and forwards each reading to the optional
// InfluxDB history writer.
package telemetry
