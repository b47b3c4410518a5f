package home

import (
	"errors"
	"fmt"

	"github.com/daemonp/homehub/internal/device"
	"github.com/daemonp/homehub/internal/event"
	"github.com/daemonp/homehub/internal/log"
)

var (
	ErrNoSuchDevice   = errors.New("no such device")
	ErrNoMotionSensor = errors.New("no motion sensor in room")
)

// BreachHandler is called by a room once it has handled a breach locally.
type BreachHandler func(room string)

// Room owns its devices and mediates breaches between them.
type Room struct {
	name     string
	devices  []device.Device
	onBreach BreachHandler
	events   event.Emitter
	log      *log.Logger
}

// NewRoom builds a standalone room. onBreach may be nil, in which case
// breaches stay local.
func NewRoom(name string, onBreach BreachHandler, events event.Emitter, logger *log.Logger) *Room {
	if events == nil {
		events = event.Nop{}
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Room{
		name:     name,
		onBreach: onBreach,
		events:   events,
		log:      logger,
	}
}

func (r *Room) Name() string {
	return r.name
}

// AddDevice constructs a device of type t and appends it to the room.
// Motion sensors are wired to OnLocalBreach.
func (r *Room) AddDevice(t device.Type, name string) (device.Device, error) {
	d, err := device.New(t, name, device.Env{
		Room:     r.name,
		Events:   r.events,
		OnBreach: r.OnLocalBreach,
	})
	if err != nil {
		return nil, err
	}
	r.devices = append(r.devices, d)

	r.log.Debug("Added %s %q to room %s", t, name, r.name)
	r.events.Emit(event.Event{
		Type:     event.TypeDeviceAdded,
		Room:     r.name,
		DeviceID: d.ID(),
		Device:   d.Name(),
		Kind:     t.String(),
		Status:   d.Status(),
	})
	return d, nil
}

// AddDeviceTag is AddDevice for a textual type such as "Motion Sensor".
func (r *Room) AddDeviceTag(tag, name string) (device.Device, error) {
	t, err := device.ParseType(tag)
	if err != nil {
		return nil, err
	}
	return r.AddDevice(t, name)
}

// RemoveDevice drops the device at index, in insertion order. A removed
// motion sensor is cut off from the room's breach handling.
func (r *Room) RemoveDevice(index int) (device.Device, error) {
	if index < 0 || index >= len(r.devices) {
		return nil, fmt.Errorf("%w: index %d in room %s with %d devices", ErrNoSuchDevice, index, r.name, len(r.devices))
	}
	d := r.devices[index]
	r.devices = append(r.devices[:index], r.devices[index+1:]...)
	if det, ok := d.(interface{ Detach() }); ok {
		det.Detach()
	}

	r.log.Debug("Removed %q from room %s", d.Name(), r.name)
	r.events.Emit(event.Event{
		Type:     event.TypeDeviceRemoved,
		Room:     r.name,
		DeviceID: d.ID(),
		Device:   d.Name(),
		Kind:     d.Type().String(),
	})
	return d, nil
}

// Devices returns the room's devices in insertion order.
func (r *Room) Devices() []device.Device {
	out := make([]device.Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Device finds the first device with the given name.
func (r *Room) Device(name string) (device.Device, bool) {
	for _, d := range r.devices {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// SimulateMotion fires every motion sensor in the room.
func (r *Room) SimulateMotion() ([]string, error) {
	var results []string
	for _, d := range r.Devices() {
		if det, ok := d.(device.Detector); ok {
			results = append(results, det.Detect())
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoMotionSensor, r.name)
	}
	return results, nil
}

// OnLocalBreach sounds the room's alarms and blocks its locks, then hands
// the breach to the room's handler. Motion sensors are never targets.
func (r *Room) OnLocalBreach() {
	r.log.Warn("Breach detected in room %s", r.name)

	for _, d := range r.Devices() {
		r.react(d, func() {
			if t, ok := d.(device.Triggerable); ok && d.Type() != device.TypeMotionSensor {
				r.log.Debug("%s", t.Trigger(r.name))
			}
			if b, ok := d.(device.Blockable); ok {
				r.log.Debug("%s", b.Block())
			}
		})
	}

	if r.onBreach != nil {
		r.onBreach(r.name)
	}
}

// react runs one device's part of a sweep; a panic there must not stop the
// rest of the sweep.
func (r *Room) react(d device.Device, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Device %q in room %s failed to react: %v", d.Name(), r.name, rec)
		}
	}()
	fn()
}
