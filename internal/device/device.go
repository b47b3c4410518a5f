package device

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/daemonp/homehub/internal/event"
)

// DefaultTemperature is what a new thermostat holds.
const DefaultTemperature = 20.0

// Env carries what a device needs from the room that owns it.
type Env struct {
	Room   string
	Events event.Emitter
	// OnBreach is handed to motion sensors and called when one enters
	// Detected.
	OnBreach func()
}

// New constructs a device of type t.
func New(t Type, name string, env Env) (Device, error) {
	switch t {
	case TypeLight:
		return NewLight(name, env), nil
	case TypeThermostat:
		return NewThermostat(name, env), nil
	case TypeLock:
		return NewLock(name, env), nil
	case TypeMotionSensor:
		return NewMotionSensor(name, env), nil
	case TypeAlarm:
		return NewAlarm(name, env), nil
	default:
		return nil, unknownType(t.String())
	}
}

type base struct {
	id     string
	name   string
	typ    Type
	on     bool
	room   string
	events event.Emitter
}

func newBase(t Type, name string, env Env) base {
	events := env.Events
	if events == nil {
		events = event.Nop{}
	}
	return base{
		id:     uuid.NewString(),
		name:   name,
		typ:    t,
		room:   env.Room,
		events: events,
	}
}

func (b *base) ID() string   { return b.id }
func (b *base) Name() string { return b.name }
func (b *base) Type() Type   { return b.typ }
func (b *base) IsOn() bool   { return b.on }

func (b *base) Status() string {
	if b.on {
		return "ON"
	}
	return "OFF"
}

func (b *base) changed(status, msg string) {
	b.events.Emit(event.Event{
		Type:     event.TypeDeviceChanged,
		Room:     b.room,
		DeviceID: b.id,
		Device:   b.name,
		Kind:     b.typ.String(),
		Status:   status,
		Message:  msg,
	})
}

func (b *base) setPower(on bool) string {
	b.on = on
	msg := fmt.Sprintf("%s OFF", b.name)
	if on {
		msg = fmt.Sprintf("%s ON", b.name)
	}
	return msg
}

type Light struct {
	base
}

func NewLight(name string, env Env) *Light {
	return &Light{base: newBase(TypeLight, name, env)}
}

func (l *Light) PowerOn() string {
	msg := l.setPower(true)
	l.changed(l.Status(), msg)
	return msg
}

func (l *Light) PowerOff() string {
	msg := l.setPower(false)
	l.changed(l.Status(), msg)
	return msg
}

// Thermostat reports its temperature as status while powered.
type Thermostat struct {
	base
	temperature float64
}

func NewThermostat(name string, env Env) *Thermostat {
	return &Thermostat{
		base:        newBase(TypeThermostat, name, env),
		temperature: DefaultTemperature,
	}
}

func (t *Thermostat) PowerOn() string {
	msg := t.setPower(true)
	t.changed(t.Status(), msg)
	return msg
}

func (t *Thermostat) PowerOff() string {
	msg := t.setPower(false)
	t.changed(t.Status(), msg)
	return msg
}

func (t *Thermostat) Temperature() float64 {
	return t.temperature
}

// ChangeTemperature stores value as is; bounds belong to whoever asks.
func (t *Thermostat) ChangeTemperature(value float64) string {
	t.temperature = value
	msg := fmt.Sprintf("%s set to %s", t.name, FormatTemperature(value))
	t.changed(t.Status(), msg)
	return msg
}

func (t *Thermostat) Status() string {
	if t.on {
		return FormatTemperature(t.temperature)
	}
	return "OFF"
}

// FormatTemperature renders a temperature the way statuses show it, e.g. "21.5°C".
func FormatTemperature(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + "°C"
}
