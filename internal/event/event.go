package event

import (
	"sync"

	"github.com/daemonp/homehub/internal/log"
)

type Type string

// Event types
const (
	TypeRoomCreated    Type = "room_created"
	TypeDeviceAdded    Type = "device_added"
	TypeDeviceRemoved  Type = "device_removed"
	TypeDeviceChanged  Type = "device_changed"
	TypeAlarmSounding  Type = "alarm_sounding"
	TypeSecurityBreach Type = "security_breach"
)

// Event is a notification raised by the core for whoever drives it.
type Event struct {
	Type     Type   `json:"type"`
	Room     string `json:"room,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
	Device   string `json:"device,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}

type Handler func(Event)

// Emitter is the only thing domain code needs to raise events.
type Emitter interface {
	Emit(Event)
}

type Nop struct{}

func (Nop) Emit(Event) {}

type subscription struct {
	id      uint64
	typ     Type
	handler Handler
}

// Bus delivers events synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	log    *log.Logger
}

func NewBus(logger *log.Logger) *Bus {
	return &Bus{log: logger}
}

// On registers a handler for a specific event type.
// Returns an unsubscribe function.
func (b *Bus) On(typ Type, handler Handler) func() {
	return b.subscribe(typ, handler)
}

// OnAll registers a handler that receives all events.
// Returns an unsubscribe function.
func (b *Bus) OnAll(handler Handler) func() {
	return b.subscribe("", handler)
}

func (b *Bus) subscribe(typ Type, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, typ: typ, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit sends an event to all matching handlers.
// A panicking handler is recovered and logged.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.typ == "" || s.typ == ev.Type {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event handler panic on %s: %v", ev.Type, r)
				}
			}()
			h(ev)
		}()
	}
}
