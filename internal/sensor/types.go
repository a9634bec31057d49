package sensor

import (
	"time"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

// PortType is how the acquisition host reaches a sensor.
type PortType string

// Supported port types.
const (
	PortTCP    PortType = "TCP"
	PortSerial PortType = "Serial"
)

// AllPortTypes returns every supported port type.
func AllPortTypes() []PortType {
	return []PortType{PortTCP, PortSerial}
}

// SVID binds an acquisition channel to a status variable ID.
type SVID struct {
	Channel string `json:"channel"`
	SVID    string `json:"svid"`
	Station int    `json:"station,omitempty"`
}

// Sensor is one installed sensor on an equipment station.
type Sensor struct {
	ID         string   `json:"id"`
	SensorType string   `json:"sensor_type"`
	PortType   PortType `json:"port_type"`
	Name       string   `json:"name"`
	Enable     bool     `json:"enable"`

	// WSID and Location identify the operator interface the sensor reports to.
	WSID     string `json:"wsid"`
	Location string `json:"location"`

	EQPID     string `json:"eqp_id"`
	IP        string `json:"ip"`
	StationNo int    `json:"station_no"`
	Port      int    `json:"port"`
	Com       string `json:"com,omitempty"`

	SVIDs []SVID `json:"svids"`

	// Config overrides the sensor type defaults. Nil means no override.
	Config *sensorconfig.Config `json:"config,omitempty"`

	LastUpdateUser string    `json:"last_update_user,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DeepCopy returns an independent copy of the sensor.
func (s *Sensor) DeepCopy() *Sensor {
	if s == nil {
		return nil
	}
	cpy := *s
	if s.SVIDs != nil {
		cpy.SVIDs = make([]SVID, len(s.SVIDs))
		copy(cpy.SVIDs, s.SVIDs)
	}
	cpy.Config = s.Config.Clone()
	return &cpy
}

// EffectiveConfig merges the sensor's overrides onto the type defaults.
// Override values replace defaults key by key; sections unknown to the
// type are appended.
func (s *Sensor) EffectiveConfig(defaults *sensorconfig.Config) *sensorconfig.Config {
	out := defaults.Clone()
	if out == nil {
		out = sensorconfig.New()
	}
	if s.Config == nil {
		return out
	}
	for _, e := range s.Config.Root().Entries() {
		out.Set("", e.Key, e.Value)
	}
	for _, sec := range s.Config.Sections() {
		dst := out.AddSection(sec.Name())
		for _, e := range sec.Entries() {
			dst.Set(e.Key, e.Value)
		}
	}
	return out
}

// Filter selects sensors for List. Zero values match everything.
type Filter struct {
	SensorType string   `json:"sensor_type,omitempty"`
	PortType   PortType `json:"port_type,omitempty"`
	Enable     *bool    `json:"enable,omitempty"`
	// Keyword matches name, EQPID, WSID, location or IP as a substring.
	Keyword  string `json:"keyword,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// Page is one page of a filtered listing.
type Page struct {
	List     []*Sensor `json:"list"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}
