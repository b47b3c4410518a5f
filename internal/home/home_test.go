package home

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/homehub/internal/device"
	"github.com/daemonp/homehub/internal/event"
	"github.com/daemonp/homehub/internal/log"
	"github.com/daemonp/homehub/internal/security"
)

func newTestHub(t *testing.T) (*Hub, *[]event.Event) {
	t.Helper()
	bus := event.NewBus(log.Nop())
	var seen []event.Event
	bus.OnAll(func(ev event.Event) { seen = append(seen, ev) })
	return NewHub(bus, log.Nop()), &seen
}

func ofType(events []event.Event, t event.Type) []event.Event {
	var out []event.Event
	for _, ev := range events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// faulty is a security device whose every reaction panics.
type faulty struct{}

func (faulty) ID() string            { return "faulty" }
func (faulty) Name() string          { return "Faulty Siren" }
func (faulty) Type() device.Type     { return device.TypeAlarm }
func (faulty) IsOn() bool            { return true }
func (faulty) Status() string        { return "ARMED" }
func (faulty) PowerOn() string       { return "" }
func (faulty) PowerOff() string      { return "" }
func (faulty) Trigger(string) string { panic("siren wiring shorted") }
func (faulty) Block() string         { panic("lock motor jammed") }
func (faulty) Unblock() string       { return "" }

func mustAdd(t *testing.T, r *Room, typ device.Type, name string) device.Device {
	t.Helper()
	d, err := r.AddDevice(typ, name)
	require.NoError(t, err)
	return d
}

func TestAddDeviceUnknownTypeLeavesRoomUnchanged(t *testing.T) {
	hub, _ := newTestHub(t)
	room := hub.CreateRoom("Kitchen")
	mustAdd(t, room, device.TypeLight, "Ceiling")

	d, err := room.AddDeviceTag("Bogus", "x")
	assert.Nil(t, d)
	assert.ErrorIs(t, err, device.ErrUnknownDeviceType)

	_, err = room.AddDevice(device.Type(42), "y")
	assert.ErrorIs(t, err, device.ErrUnknownDeviceType)

	require.Len(t, room.Devices(), 1)
	assert.Equal(t, "Ceiling", room.Devices()[0].Name())
}

func TestAddDeviceTagAcceptsMenuNames(t *testing.T) {
	room := NewRoom("Hall", nil, nil, nil)
	d, err := room.AddDeviceTag("Motion Sensor", "PIR")
	require.NoError(t, err)
	assert.Equal(t, device.TypeMotionSensor, d.Type())
}

func TestRemoveDevice(t *testing.T) {
	hub, seen := newTestHub(t)
	room := hub.CreateRoom("Office")
	mustAdd(t, room, device.TypeLight, "A")
	mustAdd(t, room, device.TypeLight, "B")
	mustAdd(t, room, device.TypeLight, "C")

	removed, err := room.RemoveDevice(1)
	require.NoError(t, err)
	assert.Equal(t, "B", removed.Name())

	names := []string{}
	for _, d := range room.Devices() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"A", "C"}, names)

	_, err = room.RemoveDevice(5)
	assert.ErrorIs(t, err, ErrNoSuchDevice)
	_, err = room.RemoveDevice(-1)
	assert.ErrorIs(t, err, ErrNoSuchDevice)

	assert.Len(t, ofType(*seen, event.TypeDeviceRemoved), 1)
}

func TestDevicesReturnsCopy(t *testing.T) {
	room := NewRoom("Hall", nil, nil, nil)
	mustAdd(t, room, device.TypeLight, "A")
	list := room.Devices()
	list[0] = nil
	assert.NotNil(t, room.Devices()[0])
}

func TestMotionInRoomWithLockAndAlarm(t *testing.T) {
	hub, seen := newTestHub(t)
	room := hub.CreateRoom("Living Room")
	lock := mustAdd(t, room, device.TypeLock, "Front Door").(*device.Lock)
	alarm := mustAdd(t, room, device.TypeAlarm, "Main Siren").(*device.Alarm)
	sensor := mustAdd(t, room, device.TypeMotionSensor, "Window Sensor").(*device.MotionSensor)

	alarm.PowerOn()
	sensor.PowerOn()
	sensor.Detect()

	assert.Equal(t, security.StateDetected, sensor.State())
	assert.Equal(t, security.StateBlocked, lock.State())
	assert.Equal(t, security.StateDetected, alarm.State())

	sounding := ofType(*seen, event.TypeAlarmSounding)
	require.Len(t, sounding, 1)
	assert.Equal(t, "Living Room", sounding[0].Room)

	breaches := ofType(*seen, event.TypeSecurityBreach)
	require.Len(t, breaches, 1)
	assert.Equal(t, "Living Room", breaches[0].Room)
	assert.Equal(t, "All rooms have been BLOCKED!", breaches[0].Message)
}

func TestStandaloneRoomHandlesBreachLocally(t *testing.T) {
	room := NewRoom("Shed", nil, nil, nil)
	lock := mustAdd(t, room, device.TypeLock, "Shed Door").(*device.Lock)
	sensor := mustAdd(t, room, device.TypeMotionSensor, "PIR").(*device.MotionSensor)

	sensor.PowerOn()
	sensor.Detect()

	assert.Equal(t, security.StateBlocked, lock.State())
}

func TestLocalBreachEscalatesToHandler(t *testing.T) {
	var origins []string
	room := NewRoom("Attic", func(name string) { origins = append(origins, name) }, nil, nil)
	sensor := mustAdd(t, room, device.TypeMotionSensor, "PIR").(*device.MotionSensor)

	sensor.Detect()
	assert.Empty(t, origins, "an unarmed sensor raises nothing")

	sensor.PowerOn()
	sensor.Detect()
	assert.Equal(t, []string{"Attic"}, origins)
}

func TestGlobalBreachBlocksEveryLock(t *testing.T) {
	hub, _ := newTestHub(t)
	first := mustAdd(t, hub.CreateRoom("One"), device.TypeLock, "L1").(*device.Lock)
	second := mustAdd(t, hub.CreateRoom("Two"), device.TypeLock, "L2").(*device.Lock)

	first.PowerOn()
	second.Block()
	second.Unblock()

	hub.OnGlobalBreach("test")

	assert.Equal(t, security.StateBlocked, first.State())
	assert.Equal(t, security.StateBlocked, second.State())
}

func TestGlobalBreachSoundsArmedAlarmsWithTheirRoom(t *testing.T) {
	hub, seen := newTestHub(t)
	upstairs := hub.CreateRoom("Upstairs")
	downstairs := hub.CreateRoom("Downstairs")
	armed := mustAdd(t, upstairs, device.TypeAlarm, "Siren Up").(*device.Alarm)
	idle := mustAdd(t, downstairs, device.TypeAlarm, "Siren Down").(*device.Alarm)
	sensor := mustAdd(t, downstairs, device.TypeMotionSensor, "PIR").(*device.MotionSensor)

	armed.PowerOn()
	sensor.PowerOn()
	sensor.Detect()

	assert.Equal(t, security.StateDetected, armed.State())
	assert.Equal(t, security.StateOff, idle.State())

	sounding := ofType(*seen, event.TypeAlarmSounding)
	require.Len(t, sounding, 1)
	assert.Equal(t, "Upstairs", sounding[0].Room)
}

func TestGlobalBreachIgnoresReentry(t *testing.T) {
	hub, seen := newTestHub(t)
	hub.CreateRoom("One")
	hub.sweeping = true
	hub.OnGlobalBreach("One")
	assert.Empty(t, ofType(*seen, event.TypeSecurityBreach))
}

func TestBreachSurvivesFailingDevice(t *testing.T) {
	hub, seen := newTestHub(t)
	room := hub.CreateRoom("Hall")
	room.devices = append(room.devices, faulty{})
	lock := mustAdd(t, room, device.TypeLock, "Front Door").(*device.Lock)
	alarm := mustAdd(t, room, device.TypeAlarm, "Main Siren").(*device.Alarm)
	sensor := mustAdd(t, room, device.TypeMotionSensor, "PIR").(*device.MotionSensor)

	other := hub.CreateRoom("Garage")
	other.devices = append(other.devices, faulty{})
	otherLock := mustAdd(t, other, device.TypeLock, "Garage Door").(*device.Lock)

	alarm.PowerOn()
	sensor.PowerOn()
	require.NotPanics(t, func() { sensor.Detect() })

	assert.Equal(t, security.StateBlocked, lock.State())
	assert.Equal(t, security.StateDetected, alarm.State())
	assert.Equal(t, security.StateBlocked, otherLock.State())

	breaches := ofType(*seen, event.TypeSecurityBreach)
	require.Len(t, breaches, 1)
	assert.Equal(t, "Hall", breaches[0].Room)
	assert.False(t, hub.sweeping)
}

func TestRemovedSensorNoLongerRaisesBreaches(t *testing.T) {
	hub, seen := newTestHub(t)
	room := hub.CreateRoom("Hall")
	lock := mustAdd(t, room, device.TypeLock, "Front Door").(*device.Lock)
	sensor := mustAdd(t, room, device.TypeMotionSensor, "PIR").(*device.MotionSensor)

	_, err := room.RemoveDevice(1)
	require.NoError(t, err)

	sensor.PowerOn()
	sensor.Detect()

	assert.Equal(t, security.StateDetected, sensor.State())
	assert.Equal(t, security.StateOff, lock.State())
	assert.Empty(t, ofType(*seen, event.TypeSecurityBreach))
}

func TestAddRoomRejectsClashingNames(t *testing.T) {
	hub, seen := newTestHub(t)
	_, err := hub.AddRoom("Living Room")
	require.NoError(t, err)

	for _, name := range []string{"Living Room", "living-room", "LIVING  ROOM"} {
		_, err = hub.AddRoom(name)
		assert.ErrorIs(t, err, ErrRoomExists, name)
	}
	assert.Len(t, hub.Rooms(), 1)
	assert.Len(t, ofType(*seen, event.TypeRoomCreated), 1)
}

func TestSampleRoomSkipsTakenNames(t *testing.T) {
	hub, _ := newTestHub(t)
	hub.CreateRoom("SampleRoom1")

	room, err := hub.AddSampleRoom()
	require.NoError(t, err)
	assert.Equal(t, "SampleRoom2", room.Name())
	_, ok := room.Device("Main Light2")
	assert.True(t, ok)
}

func TestSimulateMotion(t *testing.T) {
	hub, _ := newTestHub(t)
	room := hub.CreateRoom("Porch")
	_, err := room.SimulateMotion()
	assert.ErrorIs(t, err, ErrNoMotionSensor)

	mustAdd(t, room, device.TypeMotionSensor, "S1")
	mustAdd(t, room, device.TypeMotionSensor, "S2")
	results, err := room.SimulateMotion()
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Contains(t, results[0], "ignoring trigger")
}

func TestArmAllAndDisarmAll(t *testing.T) {
	hub, _ := newTestHub(t)
	room, err := hub.AddSampleRoom()
	require.NoError(t, err)

	results := hub.ArmAll()
	assert.Len(t, results, 3)
	for _, d := range room.Devices() {
		if s, ok := d.(device.Secured); ok {
			assert.Equal(t, security.StateArmed, s.State(), d.Name())
		} else {
			assert.False(t, d.IsOn(), d.Name())
		}
	}

	hub.DisarmAll()
	for _, d := range room.Devices() {
		assert.False(t, d.IsOn(), d.Name())
	}
}

func TestSampleRooms(t *testing.T) {
	hub, seen := newTestHub(t)
	first, err := hub.AddSampleRoom()
	require.NoError(t, err)
	second, err := hub.AddSampleRoom()
	require.NoError(t, err)

	assert.Equal(t, "SampleRoom1", first.Name())
	assert.Equal(t, "SampleRoom2", second.Name())

	var names []string
	for _, d := range second.Devices() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"Main Light2", "AC Unit2", "Front Door2", "Window Sensor2", "Main Siren2"}, names)

	assert.Len(t, ofType(*seen, event.TypeRoomCreated), 2)
	assert.Len(t, ofType(*seen, event.TypeDeviceAdded), 10)

	found, err := hub.Room("SampleRoom2")
	require.NoError(t, err)
	assert.Same(t, second, found)

	_, err = hub.Room("Nowhere")
	assert.ErrorIs(t, err, ErrNoSuchRoom)
}

func TestSampleRoomFullBreach(t *testing.T) {
	hub, _ := newTestHub(t)
	one, _ := hub.AddSampleRoom()
	two, _ := hub.AddSampleRoom()
	hub.ArmAll()

	_, err := one.SimulateMotion()
	require.NoError(t, err)

	for _, room := range []*Room{one, two} {
		lock, _ := room.Device("Front Door" + room.Name()[len("SampleRoom"):])
		assert.Equal(t, security.StateBlocked, lock.(device.Secured).State(), room.Name())
		siren, _ := room.Device("Main Siren" + room.Name()[len("SampleRoom"):])
		assert.Equal(t, security.StateDetected, siren.(device.Secured).State(), room.Name())
	}
	sensor, _ := two.Device("Window Sensor2")
	assert.Equal(t, security.StateArmed, sensor.(device.Secured).State(), "other rooms' sensors are untouched")
}
