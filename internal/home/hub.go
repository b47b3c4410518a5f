package home

import (
	"errors"
	"fmt"

	"github.com/daemonp/homehub/internal/device"
	"github.com/daemonp/homehub/internal/event"
	"github.com/daemonp/homehub/internal/log"
	"github.com/daemonp/homehub/internal/util"
)

var (
	ErrNoSuchRoom = errors.New("no such room")
	ErrRoomExists = errors.New("room already exists")
)

const breachMessage = "All rooms have been BLOCKED!"

// Hub owns every room and runs the house-wide lockdown.
type Hub struct {
	rooms    []*Room
	events   event.Emitter
	log      *log.Logger
	sweeping bool
	samples  int
}

func NewHub(events event.Emitter, logger *log.Logger) *Hub {
	if events == nil {
		events = event.Nop{}
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Hub{
		events: events,
		log:    logger,
	}
}

// CreateRoom appends a room whose breaches escalate to OnGlobalBreach.
func (h *Hub) CreateRoom(name string) *Room {
	room := NewRoom(name, h.OnGlobalBreach, h.events, h.log)
	h.rooms = append(h.rooms, room)

	h.log.Info("Created room %s", name)
	h.events.Emit(event.Event{Type: event.TypeRoomCreated, Room: name})
	return room
}

// AddRoom creates a room unless another one already has the same slug.
// Rooms share topics by slug, so "Living Room" and "living-room" clash.
func (h *Hub) AddRoom(name string) (*Room, error) {
	if other, ok := h.roomBySlug(util.Slugify(name)); ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomExists, other.Name())
	}
	return h.CreateRoom(name), nil
}

func (h *Hub) roomBySlug(slug string) (*Room, bool) {
	for _, r := range h.rooms {
		if util.Slugify(r.Name()) == slug {
			return r, true
		}
	}
	return nil, false
}

// Rooms returns the rooms in creation order.
func (h *Hub) Rooms() []*Room {
	out := make([]*Room, len(h.rooms))
	copy(out, h.rooms)
	return out
}

func (h *Hub) Room(name string) (*Room, error) {
	for _, r := range h.rooms {
		if r.Name() == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoSuchRoom, name)
}

// OnGlobalBreach blocks every lock and triggers every alarm in every room.
// A breach raised while a sweep is running is absorbed by that sweep.
func (h *Hub) OnGlobalBreach(origin string) {
	if h.sweeping {
		h.log.Debug("Breach from %s during lockdown ignored", origin)
		return
	}
	h.sweeping = true
	defer func() { h.sweeping = false }()

	h.log.Warn("Security breach in %s, locking down %d rooms", origin, len(h.rooms))

	for _, room := range h.Rooms() {
		for _, d := range room.Devices() {
			room.react(d, func() {
				if b, ok := d.(device.Blockable); ok {
					h.log.Debug("%s", b.Block())
				}
				if t, ok := d.(device.Triggerable); ok {
					h.log.Debug("%s", t.Trigger(room.Name()))
				}
			})
		}
	}

	h.events.Emit(event.Event{
		Type:    event.TypeSecurityBreach,
		Room:    origin,
		Message: breachMessage,
	})
}

// ArmAll powers on every security device in the house.
func (h *Hub) ArmAll() []string {
	return h.eachSecured(func(d device.Secured) string { return d.PowerOn() })
}

// DisarmAll powers off every security device in the house.
func (h *Hub) DisarmAll() []string {
	return h.eachSecured(func(d device.Secured) string { return d.PowerOff() })
}

func (h *Hub) eachSecured(fn func(device.Secured) string) []string {
	var results []string
	for _, room := range h.rooms {
		for _, d := range room.Devices() {
			if s, ok := d.(device.Secured); ok {
				results = append(results, fn(s))
			}
		}
	}
	return results
}

// AddSampleRoom creates a room holding one device of every type, skipping
// sample numbers whose room name is already taken.
func (h *Hub) AddSampleRoom() (*Room, error) {
	var (
		room *Room
		err  error
	)
	for room == nil {
		h.samples++
		room, err = h.AddRoom(fmt.Sprintf("SampleRoom%d", h.samples))
		if err != nil && !errors.Is(err, ErrRoomExists) {
			return nil, err
		}
	}
	n := h.samples

	layout := []struct {
		typ  device.Type
		name string
	}{
		{device.TypeLight, "Main Light"},
		{device.TypeThermostat, "AC Unit"},
		{device.TypeLock, "Front Door"},
		{device.TypeMotionSensor, "Window Sensor"},
		{device.TypeAlarm, "Main Siren"},
	}
	for _, l := range layout {
		if _, err := room.AddDevice(l.typ, fmt.Sprintf("%s%d", l.name, n)); err != nil {
			return nil, fmt.Errorf("failed to populate %s: %w", room.Name(), err)
		}
	}
	return room, nil
}
