package sensor

import "errors"

// Domain errors for the sensor package.
var (
	ErrNotFound      = errors.New("sensor: not found")
	ErrNameExists    = errors.New("sensor: name already in use")
	ErrUnknownType   = errors.New("sensor: unknown sensor type")
	ErrInvalidSensor = errors.New("sensor: invalid sensor")
)
