package device

import (
	"fmt"

	"github.com/daemonp/homehub/internal/event"
	"github.com/daemonp/homehub/internal/security"
)

// securityDevice maps power control onto arm and disarm. Its power flag is
// derived: on whenever the state is not Off.
type securityDevice struct {
	base
	machine security.Machine
}

func newSecurityDevice(t Type, name string, env Env) securityDevice {
	return securityDevice{base: newBase(t, name, env)}
}

func (d *securityDevice) State() security.State {
	return d.machine.State()
}

func (d *securityDevice) IsOn() bool {
	return d.machine.State() != security.StateOff
}

func (d *securityDevice) Status() string {
	return d.machine.State().String()
}

func (d *securityDevice) PowerOn() string {
	return d.apply(security.ActionArm).Message
}

func (d *securityDevice) PowerOff() string {
	return d.apply(security.ActionDisarm).Message
}

func (d *securityDevice) apply(a security.Action) security.Result {
	res := d.machine.Apply(d.name, a)
	if res.Changed() {
		d.changed(res.To.String(), res.Message)
	}
	return res
}

type Lock struct {
	securityDevice
}

func NewLock(name string, env Env) *Lock {
	return &Lock{securityDevice: newSecurityDevice(TypeLock, name, env)}
}

// Block forces the lock into Blocked whatever its current state.
func (l *Lock) Block() string {
	msg := fmt.Sprintf("%s is now BLOCKED.", l.name)
	if from := l.machine.Force(security.StateBlocked); from != security.StateBlocked {
		l.changed(security.StateBlocked.String(), msg)
	}
	return msg
}

func (l *Lock) Unblock() string {
	return l.apply(security.ActionUnblock).Message
}

type MotionSensor struct {
	securityDevice
	onBreach func()
}

func NewMotionSensor(name string, env Env) *MotionSensor {
	return &MotionSensor{
		securityDevice: newSecurityDevice(TypeMotionSensor, name, env),
		onBreach:       env.OnBreach,
	}
}

// Detect simulates motion. An armed sensor latches into Detected and
// notifies its breach handler once.
func (m *MotionSensor) Detect() string {
	res := m.apply(security.ActionTrigger)
	if res.Entered(security.StateDetected) && m.onBreach != nil {
		m.onBreach()
	}
	return res.Message
}

// Detach drops the breach handler. A detached sensor still changes state
// but no longer reaches any room.
func (m *MotionSensor) Detach() {
	m.onBreach = nil
}

type Alarm struct {
	securityDevice
}

func NewAlarm(name string, env Env) *Alarm {
	return &Alarm{securityDevice: newSecurityDevice(TypeAlarm, name, env)}
}

// Trigger sounds an armed alarm and announces where it is sounding.
func (a *Alarm) Trigger(room string) string {
	if room == "" {
		room = "Unknown"
	}
	res := a.apply(security.ActionTrigger)
	if !res.Entered(security.StateDetected) {
		return res.Message
	}
	msg := fmt.Sprintf("%s is sounding in %s!", a.name, room)
	a.events.Emit(event.Event{
		Type:     event.TypeAlarmSounding,
		Room:     room,
		DeviceID: a.id,
		Device:   a.name,
		Kind:     a.typ.String(),
		Status:   a.Status(),
		Message:  fmt.Sprintf("Siren sounding in %s!", room),
	})
	return msg
}
