package sensortype

import (
	"time"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

// SensorType is one entry in the catalogue: a named kind of sensor and the
// default configuration (communication parameters, ranges, units) shared by
// every sensor of that kind.
type SensorType struct {
	Name        string               `json:"sensor_type"`
	Description string               `json:"description"`
	Config      *sensorconfig.Config `json:"config"`
	UpdatedBy   string               `json:"updated_by,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// DeepCopy returns an independent copy, including the configuration.
func (t *SensorType) DeepCopy() *SensorType {
	if t == nil {
		return nil
	}
	cpy := *t
	cpy.Config = t.Config.Clone()
	return &cpy
}

// ConfigText renders the configuration in its editable text form.
func (t *SensorType) ConfigText() string {
	return sensorconfig.Stringify(t.Config)
}
