package diag

import "strings"

// Test is an OBD-II readiness monitor, stored as a bit in the frame's support
// and status words.
type Test uint16

const (
	Misfire Test = 1 << iota
	FuelSystem
	Components
	Catalyst
	HeatedCatalyst
	EvapSystem
	SecondaryAir
	ACRefrigerant
	O2Sensor
	O2SensorHeater
	EGR
)

// Tests lists every known monitor in bit order.
var Tests = []Test{
	Misfire, FuelSystem, Components, Catalyst, HeatedCatalyst, EvapSystem,
	SecondaryAir, ACRefrigerant, O2Sensor, O2SensorHeater, EGR,
}

var testNames = map[Test]string{
	Misfire:        "misfire",
	FuelSystem:     "fuel_system",
	Components:     "components",
	Catalyst:       "catalyst",
	HeatedCatalyst: "heated_catalyst",
	EvapSystem:     "evap_system",
	SecondaryAir:   "secondary_air",
	ACRefrigerant:  "ac_refrigerant",
	O2Sensor:       "o2_sensor",
	O2SensorHeater: "o2_sensor_heater",
	EGR:            "egr",
}

func (t Test) String() string {
	if name, ok := testNames[t]; ok {
		return name
	}
	var parts []string
	for _, known := range Tests {
		if t&known != 0 {
			parts = append(parts, testNames[known])
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// MarshalText encodes the test by name.
func (t Test) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// State is the tri-state completion of a monitor.
type State int8

const (
	StateUnknown State = iota // monitor not supported
	StateReady
	StateNotReady
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateNotReady:
		return "not_ready"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Readiness is the decoded state of one monitor.
type Readiness struct {
	Test      Test  `json:"test"`
	Supported bool  `json:"supported"`
	State     State `json:"state"`
}

// Ready reports whether the monitor is supported and complete.
func (r Readiness) Ready() bool {
	return r.State == StateReady
}

// DecodeReadiness decodes every known monitor from the packed support and
// status words. Unknown bits are ignored.
func DecodeReadiness(support, status uint16) []Readiness {
	out := make([]Readiness, len(Tests))
	for i, t := range Tests {
		out[i] = DecodeTest(t, support, status)
	}
	return out
}

// DecodeTest decodes a single monitor.
func DecodeTest(t Test, support, status uint16) Readiness {
	r := Readiness{Test: t, Supported: support&uint16(t) != 0}
	if !r.Supported {
		return r
	}
	if status&uint16(t) == uint16(t) {
		r.State = StateReady
	} else {
		r.State = StateNotReady
	}
	return r
}
