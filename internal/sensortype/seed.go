package sensortype

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-sensors/internal/sensorconfig"
)

type seedEntry struct {
	name        string
	description string
	config      string
}

// defaultCatalogue is loaded into an empty database on first start.
var defaultCatalogue = []seedEntry{
	{"Temperature", "PT100/thermocouple temperature probe", `
[Communication]
protocol=Modbus-RTU
baudRate=9600
dataBits=8
stopBits=1
parity=none
address=1

[Measurement]
unit=°C
min=-50
max=200
accuracy=0.1
interval=1000
`},
	{"Humidity", "Capacitive relative humidity sensor", `
[Communication]
protocol=I2C
address=0x40
timeout=500

[Measurement]
unit=%RH
min=0
max=100
accuracy=2
interval=2000
`},
	{"Pressure", "Piezoresistive pressure transmitter", `
[Communication]
protocol=Modbus-TCP
host=192.168.1.100
port=502
timeout=1000

[Measurement]
unit=kPa
min=0
max=1000
accuracy=0.25
`},
	{"Flow", "Electromagnetic flow meter", `
[Communication]
protocol=Modbus-RTU
baudRate=19200
address=3

[Measurement]
unit=m³/h
range=0-500
accuracy=0.5
interval=1000
`},
	{"Level", "Ultrasonic level sensor", `
[Communication]
protocol=4-20mA

[Measurement]
unit=m
min=0
max=10
accuracy=0.01
`},
	{"Vibration", "Piezoelectric vibration sensor", `
[Communication]
protocol=Modbus-TCP
host=192.168.1.120
port=502

[Measurement]
unit=mm/s
min=0
max=50
interval=100
enable=true
`},
}

// SeedDefaults creates the default catalogue entries that are missing.
// It is a no-op when the catalogue already holds any sensor type.
func (r *Registry) SeedDefaults(ctx context.Context) (int, error) {
	if len(r.List(ctx)) > 0 {
		return 0, nil
	}

	created := 0
	for _, e := range defaultCatalogue {
		cfg, err := sensorconfig.Parse(e.config)
		if err != nil {
			return created, fmt.Errorf("parsing default config for %s: %w", e.name, err)
		}
		t := &SensorType{Name: e.name, Description: e.description, Config: cfg, UpdatedBy: "system"}
		if err := r.Create(ctx, t); err != nil {
			if errors.Is(err, ErrExists) {
				continue
			}
			return created, fmt.Errorf("seeding %s: %w", e.name, err)
		}
		created++
	}

	r.logger.Info("default sensor types seeded", "count", created)
	return created, nil
}
