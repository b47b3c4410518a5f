package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/daemonp/homehub/internal/command"
	"github.com/daemonp/homehub/internal/config"
	"github.com/daemonp/homehub/internal/console"
	"github.com/daemonp/homehub/internal/device"
	"github.com/daemonp/homehub/internal/event"
	"github.com/daemonp/homehub/internal/home"
	"github.com/daemonp/homehub/internal/homeassistant"
	"github.com/daemonp/homehub/internal/log"
	"github.com/daemonp/homehub/internal/mqtt"
)

const (
	historyLimit = 100
	lineBuffer   = 16
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	logger := log.NewLogger(cfg.Log)

	bus := event.NewBus(logger.Source("events"))
	hub := home.NewHub(bus, logger.Source("hub"))

	if err := seed(hub, cfg); err != nil {
		logger.Error("Failed to build rooms: %v", err)
		os.Exit(1)
	}

	shell := console.New(hub, command.NewInvoker(logger.Source("commands"), historyLimit), cfg.Thermostat, os.Stdout, logger.Source("console"))
	shell.Watch(bus)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lines := make(chan string, lineBuffer)
	go forward(ctx, console.ReadLines(os.Stdin), lines, stop)

	if cfg.MQTT.Enabled {
		mqttClient := mqtt.NewMQTT(&cfg.MQTT, lines, logger.Source("mqtt"))
		mqttClient.Attach(bus)
		if err := mqttClient.Connect(); err != nil {
			logger.Error("Failed to connect to MQTT broker: %v", err)
			os.Exit(1)
		}
		defer mqttClient.Close()

		if cfg.HomeAssistant.Discovery {
			ha := homeassistant.New(&cfg.HomeAssistant, mqttClient, logger.Source("homeassistant"))
			ha.Start(bus, hub)
		}
	}

	if err := shell.Run(ctx, lines); err != nil && err != context.Canceled {
		logger.Error("Shell stopped: %v", err)
	}
	logger.Info("Shutting down...")
}

// seed creates the configured rooms and sample rooms.
func seed(hub *home.Hub, cfg *config.Config) error {
	for _, rc := range cfg.Rooms {
		room, err := hub.AddRoom(rc.Name)
		if err != nil {
			return err
		}
		for _, dc := range rc.Devices {
			if _, err := room.AddDeviceTag(dc.Type, dc.Name); err != nil {
				return fmt.Errorf("room %s: %w", rc.Name, err)
			}
		}
	}
	for i := 0; i < cfg.SampleRooms; i++ {
		if _, err := hub.AddSampleRoom(); err != nil {
			return err
		}
	}

	if cfg.Thermostat.Default == device.DefaultTemperature {
		return nil
	}
	for _, room := range hub.Rooms() {
		for _, d := range room.Devices() {
			if t, ok := d.(device.TemperatureSetter); ok {
				t.ChangeTemperature(cfg.Thermostat.Default)
			}
		}
	}
	return nil
}

// forward copies stdin lines into the shell's input and stops the program
// at end of input.
func forward(ctx context.Context, in <-chan string, out chan<- string, stop func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-in:
			if !ok {
				stop()
				return
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}
}
