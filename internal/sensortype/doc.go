// Package sensortype manages the sensor type catalogue.
//
// A sensor type names a kind of sensor (Temperature, Flow, ...) and carries
// the default configuration shared by every sensor of that kind. The
// configuration is edited as key=value text, kept in memory as a
// *sensorconfig.Config and persisted as its ordered JSON form.
//
// The Registry caches the whole catalogue and notifies observers after each
// change so that other components (MQTT publication, audit) stay in step.
package sensortype
