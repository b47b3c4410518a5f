package homeassistant

import (
	"encoding/json"
	"fmt"

	"github.com/daemonp/homehub/internal/config"
	"github.com/daemonp/homehub/internal/device"
	"github.com/daemonp/homehub/internal/event"
	"github.com/daemonp/homehub/internal/home"
	"github.com/daemonp/homehub/internal/log"
	"github.com/daemonp/homehub/internal/mqtt"
	"github.com/daemonp/homehub/internal/util"
)

const (
	lockTemplate  = "{{ 'LOCKED' if value_json.status == 'BLOCKED' else 'UNLOCKED' }}"
	sirenTemplate = "{{ 'ON' if value_json.status == 'DETECTED' else 'OFF' }}"
)

type HomeAssistant struct {
	config *config.HomeAssistantConfig
	mqtt   mqtt.MQTTClient
	log    *log.Logger
}

func New(cfg *config.HomeAssistantConfig, mqttClient mqtt.MQTTClient, logger *log.Logger) *HomeAssistant {
	return &HomeAssistant{
		config: cfg,
		mqtt:   mqttClient,
		log:    logger,
	}
}

// Start announces every device already in the hub and follows later
// additions and removals. Returns an unsubscribe function.
func (ha *HomeAssistant) Start(bus *event.Bus, hub *home.Hub) func() {
	ha.log.Info("Starting Home Assistant integration")
	for _, room := range hub.Rooms() {
		for _, d := range room.Devices() {
			ha.HandleEvent(event.Event{
				Type:     event.TypeDeviceAdded,
				Room:     room.Name(),
				DeviceID: d.ID(),
				Device:   d.Name(),
				Kind:     d.Type().String(),
				Status:   d.Status(),
			})
		}
	}
	offAdded := bus.On(event.TypeDeviceAdded, ha.HandleEvent)
	offRemoved := bus.On(event.TypeDeviceRemoved, ha.HandleEvent)
	return func() {
		offAdded()
		offRemoved()
	}
}

func (ha *HomeAssistant) HandleEvent(ev event.Event) {
	typ, err := device.ParseType(ev.Kind)
	if err != nil {
		ha.log.Warning("Skipping discovery for %s: %v", ev.Device, err)
		return
	}
	switch ev.Type {
	case event.TypeDeviceAdded:
		ha.publishDeviceConfig(ev, typ)
	case event.TypeDeviceRemoved:
		for _, component := range components(typ) {
			ha.mqtt.Publish(ha.configTopic(component, ev), "", true)
		}
	}
}

func components(typ device.Type) []string {
	switch typ {
	case device.TypeLight:
		return []string{"switch"}
	case device.TypeThermostat:
		return []string{"sensor"}
	case device.TypeLock:
		return []string{"lock"}
	case device.TypeMotionSensor:
		return []string{"binary_sensor"}
	case device.TypeAlarm:
		return []string{"siren"}
	}
	return nil
}

func (ha *HomeAssistant) publishDeviceConfig(ev event.Event, typ device.Type) {
	topics := ha.mqtt.Topics()
	base := map[string]interface{}{
		"name":        ev.Device,
		"unique_id":   ha.objectID(ev),
		"state_topic": topics.Device(ev.Room, ev.Device),
		"device": map[string]interface{}{
			"identifiers":    []string{fmt.Sprintf("%s_%s", ha.mqtt.GetPrefix(), util.Slugify(ev.Room))},
			"name":           ev.Room,
			"suggested_area": ev.Room,
			"manufacturer":   "homehub",
		},
	}

	switch typ {
	case device.TypeLight:
		config := copyConfig(base)
		config["command_topic"] = topics.DeviceCommand(ev.Room, ev.Device)
		config["value_template"] = "{{ value_json.status }}"
		config["state_on"] = "ON"
		config["state_off"] = "OFF"
		config["payload_on"] = "on"
		config["payload_off"] = "off"
		ha.publishConfig("switch", ev, "", config)

	case device.TypeThermostat:
		config := copyConfig(base)
		config["unit_of_measurement"] = "°C"
		config["value_template"] = "{{ value_json.status | replace('°C', '') }}"
		ha.publishConfig("sensor", ev, "temperature", config)

	case device.TypeLock:
		// Locked means blocked by a lockdown. Locking arms the lock;
		// unlocking releases a blocked one.
		config := copyConfig(base)
		config["command_topic"] = topics.DeviceCommand(ev.Room, ev.Device)
		config["value_template"] = lockTemplate
		config["payload_lock"] = "on"
		config["payload_unlock"] = "unlock"
		config["state_locked"] = "LOCKED"
		config["state_unlocked"] = "UNLOCKED"
		ha.publishConfig("lock", ev, "", config)

	case device.TypeMotionSensor:
		config := copyConfig(base)
		config["value_template"] = "{{ value_json.status }}"
		config["payload_on"] = "DETECTED"
		config["payload_off"] = "OFF"
		ha.publishConfig("binary_sensor", ev, "motion", config)

	case device.TypeAlarm:
		// Turning the siren on only arms it; it sounds on a breach.
		config := copyConfig(base)
		config["command_topic"] = topics.DeviceCommand(ev.Room, ev.Device)
		config["value_template"] = sirenTemplate
		config["state_on"] = "ON"
		config["state_off"] = "OFF"
		config["payload_on"] = "on"
		config["payload_off"] = "off"
		ha.publishConfig("siren", ev, "", config)
	}
}

func (ha *HomeAssistant) objectID(ev event.Event) string {
	return fmt.Sprintf("%s_%s_%s", ha.mqtt.GetPrefix(), util.Slugify(ev.Room), util.Slugify(ev.Device))
}

func (ha *HomeAssistant) configTopic(component string, ev event.Event) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", ha.config.Prefix, component, ha.mqtt.GetPrefix(), ha.objectID(ev))
}

func (ha *HomeAssistant) publishConfig(component string, ev event.Event, deviceClass string, config map[string]interface{}) {
	if deviceClass != "" {
		config["device_class"] = deviceClass
	}

	payload, err := json.Marshal(config)
	if err != nil {
		ha.log.Error("Failed to marshal Home Assistant config: %v", err)
		return
	}

	ha.mqtt.Publish(ha.configTopic(component, ev), string(payload), true)
}

func copyConfig(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src)+8)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
