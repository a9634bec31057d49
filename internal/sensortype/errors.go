package sensortype

import "errors"

// Domain errors for the sensortype package.
var (
	// ErrNotFound is returned when a sensor type does not exist.
	ErrNotFound = errors.New("sensortype: not found")

	// ErrExists is returned when creating a sensor type whose name is taken.
	ErrExists = errors.New("sensortype: already exists")

	// ErrInUse is returned when deleting a sensor type still referenced by sensors.
	ErrInUse = errors.New("sensortype: in use by sensors")

	// ErrInvalidName is returned when a sensor type name is empty, too long
	// or contains unsupported characters.
	ErrInvalidName = errors.New("sensortype: invalid name")

	// ErrInvalidDescription is returned when the description is empty or too long.
	ErrInvalidDescription = errors.New("sensortype: invalid description")

	// ErrInvalidConfig is returned when the configuration is missing or empty.
	ErrInvalidConfig = errors.New("sensortype: invalid configuration")
)
