// Package sensor holds the sensor inventory: which sensor of which type is
// wired to which equipment, how it is reached (TCP or serial) and which
// SVIDs its channels publish.
package sensor
