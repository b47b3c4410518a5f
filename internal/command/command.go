package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/daemonp/homehub/internal/device"
	"github.com/daemonp/homehub/internal/log"
)

var ErrNotThermostat = errors.New("device does not support temperature control")

// Command is a user action bound to its target. Building one has no side
// effect; only Execute does.
type Command interface {
	Execute() string
	Describe() string
}

// Toggle flips a device's power.
type Toggle struct {
	device device.Device
}

func NewToggle(d device.Device) *Toggle {
	return &Toggle{device: d}
}

func (c *Toggle) Execute() string {
	if c.device.IsOn() {
		return c.device.PowerOff()
	}
	return c.device.PowerOn()
}

func (c *Toggle) Describe() string {
	return fmt.Sprintf("toggle %s", c.device.Name())
}

// ChangeTemperature sets a thermostat's temperature.
type ChangeTemperature struct {
	thermostat device.TemperatureSetter
	name       string
	value      float64
}

func NewChangeTemperature(d device.Device, value float64) (*ChangeTemperature, error) {
	t, ok := d.(device.TemperatureSetter)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotThermostat, d.Name(), d.Type())
	}
	return &ChangeTemperature{thermostat: t, name: d.Name(), value: value}, nil
}

func (c *ChangeTemperature) Execute() string {
	return c.thermostat.ChangeTemperature(c.value)
}

func (c *ChangeTemperature) Describe() string {
	return fmt.Sprintf("set %s to %s", c.name, device.FormatTemperature(c.value))
}

// Record is one executed command.
type Record struct {
	Description string
	Result      string
	At          time.Time
}

// Invoker executes commands and keeps a log of what ran.
type Invoker struct {
	log     *log.Logger
	history []Record
	limit   int
	now     func() time.Time
}

// NewInvoker keeps at most limit records; zero keeps everything.
func NewInvoker(logger *log.Logger, limit int) *Invoker {
	if logger == nil {
		logger = log.Nop()
	}
	return &Invoker{log: logger, limit: limit, now: time.Now}
}

func (i *Invoker) Run(cmd Command) string {
	res := cmd.Execute()
	i.log.Info("Command %q: %s", cmd.Describe(), res)

	i.history = append(i.history, Record{Description: cmd.Describe(), Result: res, At: i.now()})
	if i.limit > 0 && len(i.history) > i.limit {
		i.history = i.history[len(i.history)-i.limit:]
	}
	return res
}

// History returns executed commands, oldest first.
func (i *Invoker) History() []Record {
	out := make([]Record, len(i.history))
	copy(out, i.history)
	return out
}
