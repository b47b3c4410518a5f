package device

import (
	"errors"
	"fmt"

	"github.com/daemonp/homehub/internal/security"
	"github.com/daemonp/homehub/internal/util"
)

// ErrUnknownDeviceType is returned when a device tag is not one of Types.
var ErrUnknownDeviceType = errors.New("unknown device type")

type Type int

const (
	TypeLight Type = iota
	TypeThermostat
	TypeLock
	TypeMotionSensor
	TypeAlarm
)

// Types lists every constructible device type in menu order.
var Types = []Type{TypeLight, TypeThermostat, TypeLock, TypeMotionSensor, TypeAlarm}

func (t Type) String() string {
	switch t {
	case TypeLight:
		return "Light"
	case TypeThermostat:
		return "Thermostat"
	case TypeLock:
		return "Lock"
	case TypeMotionSensor:
		return "Motion Sensor"
	case TypeAlarm:
		return "Alarm"
	default:
		return fmt.Sprintf("Unknown Type(%d)", int(t))
	}
}

// Security reports whether devices of this type run the security state machine.
func (t Type) Security() bool {
	return t == TypeLock || t == TypeMotionSensor || t == TypeAlarm
}

var aliases = map[string]Type{
	"motionsensor": TypeMotionSensor,
	"pir":          TypeMotionSensor,
	"siren":        TypeAlarm,
}

// ParseType resolves a user supplied tag such as "Motion Sensor",
// "motion_sensor" or "MotionSensor".
func ParseType(tag string) (Type, error) {
	slug := util.Slugify(tag)
	for _, t := range Types {
		if slug == util.Slugify(t.String()) {
			return t, nil
		}
	}
	if t, ok := aliases[slug]; ok {
		return t, nil
	}
	return 0, unknownType(tag)
}

func unknownType(tag string) error {
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = t.String()
	}
	return fmt.Errorf("%w %q: expected %s", ErrUnknownDeviceType, tag, util.JoinWithOr(names))
}

// Device is what every room member supports.
type Device interface {
	ID() string
	Name() string
	Type() Type
	IsOn() bool
	Status() string
	PowerOn() string
	PowerOff() string
}

// Secured is implemented by devices driven by the security state machine.
type Secured interface {
	Device
	State() security.State
}

// Triggerable devices react to a breach in the named room.
type Triggerable interface {
	Trigger(room string) string
}

// Blockable devices can be forced into lockdown and released from it.
type Blockable interface {
	Block() string
	Unblock() string
}

// Detector devices raise breaches.
type Detector interface {
	Detect() string
}

type TemperatureSetter interface {
	Temperature() float64
	ChangeTemperature(value float64) string
}
