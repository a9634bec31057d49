package sensor

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxNameLength = 100
	maxFieldLen   = 64
	maxSVIDs      = 256
	maxPort       = 65535
)

var ipv4Regex = regexp.MustCompile(`^((25[0-5]|2[0-4]\d|[01]?\d\d?)\.){3}(25[0-5]|2[0-4]\d|[01]?\d\d?)$`)

var validPortTypes map[PortType]struct{}

func init() {
	validPortTypes = make(map[PortType]struct{}, len(AllPortTypes()))
	for _, p := range AllPortTypes() {
		validPortTypes[p] = struct{}{}
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSensor, fmt.Sprintf(format, args...))
}

// Validate checks required fields and formats. It does not check that the
// sensor type exists; the caller resolves that against the catalogue.
func Validate(s *Sensor) error {
	if s == nil {
		return invalid("nil sensor")
	}

	required := []struct {
		field, value string
	}{
		{"name", s.Name},
		{"sensor_type", s.SensorType},
		{"wsid", s.WSID},
		{"location", s.Location},
		{"eqp_id", s.EQPID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid("%s is required", r.field)
		}
	}

	if len(s.Name) > maxNameLength {
		return invalid("name exceeds %d characters", maxNameLength)
	}
	for _, f := range []string{s.WSID, s.EQPID, s.Com} {
		if len(f) > maxFieldLen {
			return invalid("field %q exceeds %d characters", f, maxFieldLen)
		}
	}

	if _, ok := validPortTypes[s.PortType]; !ok {
		return invalid("port_type %q is not one of %v", s.PortType, AllPortTypes())
	}
	if s.IP != "" && !ipv4Regex.MatchString(s.IP) {
		return invalid("ip %q is not a dotted IPv4 address", s.IP)
	}
	if s.Port < 0 || s.Port > maxPort {
		return invalid("port %d out of range 0-%d", s.Port, maxPort)
	}
	if s.StationNo < 0 {
		return invalid("station_no must not be negative")
	}
	switch s.PortType {
	case PortTCP:
		if s.IP == "" || s.Port == 0 {
			return invalid("ip and port are required for TCP sensors")
		}
	case PortSerial:
		if s.Com == "" {
			return invalid("com is required for serial sensors")
		}
	}

	if len(s.SVIDs) > maxSVIDs {
		return invalid("more than %d svids", maxSVIDs)
	}
	seen := make(map[string]struct{}, len(s.SVIDs))
	for i, v := range s.SVIDs {
		if v.Channel == "" || v.SVID == "" {
			return invalid("svids[%d] needs channel and svid", i)
		}
		if _, dup := seen[v.SVID]; dup {
			return invalid("svid %q listed twice", v.SVID)
		}
		seen[v.SVID] = struct{}{}
	}
	if err := s.Config.Validate(); err != nil {
		return invalid("config: %v", err)
	}
	return nil
}
