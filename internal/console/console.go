package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/daemonp/homehub/internal/command"
	"github.com/daemonp/homehub/internal/config"
	"github.com/daemonp/homehub/internal/device"
	"github.com/daemonp/homehub/internal/event"
	"github.com/daemonp/homehub/internal/home"
	"github.com/daemonp/homehub/internal/log"
	"github.com/daemonp/homehub/internal/util"
)

// ErrQuit is returned by Exec when the user asks to leave.
var ErrQuit = errors.New("quit")

const helpText = `Commands:
  rooms                          list rooms
  room <name>                    create a room
  sample                         create a sample room with one device of each type
  devices <room>                 list a room's devices
  status                         list every room and device
  add <room> <type> <name>       add a device (Light, Thermostat, Lock, "Motion Sensor", Alarm)
  remove <room> <device>         remove a device by name or list number
  toggle <room> <device>         toggle power
  on|off <room> <device>         power a device on or off
  temp <room> <device> <value>   set a thermostat
  arm|disarm <room> <device>     power a security device on or off
  unblock <room> <device>        release a blocked lock
  motion <room>                  simulate motion on every sensor in a room
  arm-all | disarm-all           arm or disarm every security device
  history                        show executed commands
  quit                           leave
Quote names containing spaces.`

// Shell is the text front end of the hub.
type Shell struct {
	hub     *home.Hub
	invoker *command.Invoker
	bounds  config.ThermostatConfig
	out     io.Writer
	log     *log.Logger
}

func New(hub *home.Hub, invoker *command.Invoker, bounds config.ThermostatConfig, out io.Writer, logger *log.Logger) *Shell {
	return &Shell{
		hub:     hub,
		invoker: invoker,
		bounds:  bounds,
		out:     out,
		log:     logger,
	}
}

// Watch prints alerts raised on the bus. Returns an unsubscribe function.
func (s *Shell) Watch(bus *event.Bus) func() {
	offBreach := bus.On(event.TypeSecurityBreach, func(ev event.Event) {
		s.printf("!! SECURITY BREACH (%s): %s\n", ev.Room, ev.Message)
	})
	offAlarm := bus.On(event.TypeAlarmSounding, func(ev event.Event) {
		s.printf("!! ALARM %s: %s\n", ev.Device, ev.Message)
	})
	return func() {
		offBreach()
		offAlarm()
	}
}

// ReadLines feeds r line by line into the returned channel, closing it at EOF.
func ReadLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// Run executes lines until quit, ctx is done or lines is closed. Every
// command runs on the calling goroutine.
func (s *Shell) Run(ctx context.Context, lines <-chan string) error {
	s.printf("Type 'help' for commands.\n")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := s.Exec(line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				s.printf("error: %v\n", err)
			}
		}
	}
}

// Exec runs one command line.
func (s *Shell) Exec(line string) error {
	args, err := splitArgs(strings.TrimSpace(line))
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	s.log.Debug("Executing %q", line)

	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "help", "?":
		s.printf("%s\n", helpText)
	case "quit", "exit":
		return ErrQuit
	case "rooms":
		s.listRooms()
	case "room":
		if err := need(args, 1, "room <name>"); err != nil {
			return err
		}
		name := util.Normalize(args[0])
		if name == "" {
			return errors.New("room name must not be empty")
		}
		if _, err := s.hub.AddRoom(name); err != nil {
			return err
		}
		s.printf("Room %s created.\n", name)
	case "sample":
		room, err := s.hub.AddSampleRoom()
		if err != nil {
			return err
		}
		s.printf("Room %s created with %d devices.\n", room.Name(), len(room.Devices()))
	case "devices":
		if err := need(args, 1, "devices <room>"); err != nil {
			return err
		}
		room, err := s.room(args[0])
		if err != nil {
			return err
		}
		s.listDevices(room)
	case "status":
		for _, room := range s.hub.Rooms() {
			s.printf("%s:\n", room.Name())
			s.listDevices(room)
		}
	case "add":
		return s.add(args)
	case "remove":
		return s.remove(args)
	case "toggle":
		return s.withDevice(args, "toggle <room> <device>", func(d device.Device) error {
			s.printf("%s\n", s.invoker.Run(command.NewToggle(d)))
			return nil
		})
	case "on":
		return s.withDevice(args, "on <room> <device>", func(d device.Device) error {
			s.printf("%s\n", d.PowerOn())
			return nil
		})
	case "off":
		return s.withDevice(args, "off <room> <device>", func(d device.Device) error {
			s.printf("%s\n", d.PowerOff())
			return nil
		})
	case "temp":
		return s.temp(args)
	case "arm":
		return s.withDevice(args, "arm <room> <device>", func(d device.Device) error {
			if _, ok := d.(device.Secured); !ok {
				return fmt.Errorf("%s is not a security device", d.Name())
			}
			s.printf("%s\n", d.PowerOn())
			return nil
		})
	case "disarm":
		return s.withDevice(args, "disarm <room> <device>", func(d device.Device) error {
			if _, ok := d.(device.Secured); !ok {
				return fmt.Errorf("%s is not a security device", d.Name())
			}
			s.printf("%s\n", d.PowerOff())
			return nil
		})
	case "unblock":
		return s.withDevice(args, "unblock <room> <device>", func(d device.Device) error {
			b, ok := d.(device.Blockable)
			if !ok {
				return fmt.Errorf("%s cannot be blocked", d.Name())
			}
			s.printf("%s\n", b.Unblock())
			return nil
		})
	case "motion":
		if err := need(args, 1, "motion <room>"); err != nil {
			return err
		}
		room, err := s.room(args[0])
		if err != nil {
			return err
		}
		results, err := room.SimulateMotion()
		if err != nil {
			return err
		}
		for _, res := range results {
			s.printf("%s\n", res)
		}
	case "arm-all":
		s.printLines(s.hub.ArmAll())
	case "disarm-all":
		s.printLines(s.hub.DisarmAll())
	case "history":
		for _, rec := range s.invoker.History() {
			s.printf("%s  %-30s %s\n", rec.At.Format("15:04:05"), rec.Description, rec.Result)
		}
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	return nil
}

func (s *Shell) add(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: add <room> <type> <name>")
	}
	room, err := s.room(args[0])
	if err != nil {
		return err
	}
	// Unquoted multi-word names are accepted after the type.
	name := util.Normalize(strings.Join(args[2:], " "))
	d, err := room.AddDeviceTag(args[1], name)
	if err != nil {
		return err
	}
	s.printf("Added %s %s to %s.\n", d.Type(), d.Name(), room.Name())
	return nil
}

func (s *Shell) remove(args []string) error {
	if err := need(args, 2, "remove <room> <device>"); err != nil {
		return err
	}
	room, err := s.room(args[0])
	if err != nil {
		return err
	}
	index, err := deviceIndex(room, args[1])
	if err != nil {
		return err
	}
	d, err := room.RemoveDevice(index)
	if err != nil {
		return err
	}
	s.printf("Removed %s from %s.\n", d.Name(), room.Name())
	return nil
}

func (s *Shell) temp(args []string) error {
	if err := need(args, 3, "temp <room> <device> <value>"); err != nil {
		return err
	}
	value, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid temperature %q", args[2])
	}
	value = util.Round(value, 1)
	if value < s.bounds.Min || value > s.bounds.Max {
		return fmt.Errorf("temperature must be between %v and %v", s.bounds.Min, s.bounds.Max)
	}
	return s.withDevice(args[:2], "temp <room> <device> <value>", func(d device.Device) error {
		cmd, err := command.NewChangeTemperature(d, value)
		if err != nil {
			return err
		}
		s.printf("%s\n", s.invoker.Run(cmd))
		return nil
	})
}

func (s *Shell) withDevice(args []string, usage string, fn func(device.Device) error) error {
	if err := need(args, 2, usage); err != nil {
		return err
	}
	room, err := s.room(args[0])
	if err != nil {
		return err
	}
	index, err := deviceIndex(room, args[1])
	if err != nil {
		return err
	}
	return fn(room.Devices()[index])
}

// room resolves a room by name, falling back to its slug.
func (s *Shell) room(ref string) (*home.Room, error) {
	room, err := s.hub.Room(ref)
	if err == nil {
		return room, nil
	}
	for _, r := range s.hub.Rooms() {
		if util.Slugify(r.Name()) == ref {
			return r, nil
		}
	}
	return nil, err
}

// deviceIndex resolves a device by name, then slug, then 1-based list number.
func deviceIndex(room *home.Room, ref string) (int, error) {
	for i, d := range room.Devices() {
		if d.Name() == ref {
			return i, nil
		}
	}
	for i, d := range room.Devices() {
		if util.Slugify(d.Name()) == ref {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(room.Devices()) {
		return n - 1, nil
	}
	return 0, fmt.Errorf("%w %q in room %s", home.ErrNoSuchDevice, ref, room.Name())
}

func (s *Shell) listRooms() {
	rooms := s.hub.Rooms()
	if len(rooms) == 0 {
		s.printf("No rooms yet. Add one with 'room <name>' or 'sample'.\n")
		return
	}
	for i, room := range rooms {
		s.printf("%d. %s (%d devices)\n", i+1, room.Name(), len(room.Devices()))
	}
}

func (s *Shell) listDevices(room *home.Room) {
	devices := room.Devices()
	if len(devices) == 0 {
		s.printf("  (no devices)\n")
		return
	}
	for i, d := range devices {
		s.printf("  %d. [%s] %s: %s\n", i+1, d.Type(), d.Name(), d.Status())
	}
}

func (s *Shell) printLines(lines []string) {
	if len(lines) == 0 {
		s.printf("No security devices.\n")
		return
	}
	for _, l := range lines {
		s.printf("%s\n", l)
	}
}

func (s *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

func need(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}
