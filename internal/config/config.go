package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Thermostat    ThermostatConfig    `yaml:"thermostat"`
	Rooms         []RoomConfig        `yaml:"rooms"`
	SampleRooms   int                 `yaml:"sample_rooms"`
	Log           string              `yaml:"log"`
}

type MQTTConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ClientID  string `yaml:"client_id"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Keepalive int    `yaml:"keepalive"`
	Password  string `yaml:"password"`
	QOS       int    `yaml:"qos"`
	Retain    bool   `yaml:"retain"`
	Username  string `yaml:"username"`
	Prefix    string `yaml:"prefix"`
	Clean     bool   `yaml:"clean"`
}

type HomeAssistantConfig struct {
	Discovery bool   `yaml:"discovery"`
	Prefix    string `yaml:"prefix"`
}

// ThermostatConfig bounds the temperatures the shell accepts. The devices
// themselves store whatever they are given.
type ThermostatConfig struct {
	Default float64 `yaml:"default"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

type RoomConfig struct {
	Name    string         `yaml:"name"`
	Devices []DeviceConfig `yaml:"devices"`
}

type DeviceConfig struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.setDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var config Config
	config.setDefaults()
	return &config
}

func (c *Config) setDefaults() {
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "homehub"
	}
	if c.MQTT.Host == "" {
		c.MQTT.Host = "localhost"
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.Keepalive == 0 {
		c.MQTT.Keepalive = 60
	}
	if c.MQTT.Prefix == "" {
		c.MQTT.Prefix = "homehub"
	}
	if c.HomeAssistant.Prefix == "" {
		c.HomeAssistant.Prefix = "homeassistant"
	}
	if c.Thermostat.Default == 0 {
		c.Thermostat.Default = 20
	}
	if c.Thermostat.Min == 0 && c.Thermostat.Max == 0 {
		c.Thermostat.Min = 5
		c.Thermostat.Max = 35
	}
	if c.Log == "" {
		c.Log = "info"
	}
}

func (c *Config) validate() error {
	if c.Thermostat.Min > c.Thermostat.Max {
		return fmt.Errorf("thermostat min %v is above max %v", c.Thermostat.Min, c.Thermostat.Max)
	}
	if c.SampleRooms < 0 {
		return fmt.Errorf("sample_rooms must not be negative, got %d", c.SampleRooms)
	}
	for i, room := range c.Rooms {
		if room.Name == "" {
			return fmt.Errorf("room %d has no name", i)
		}
	}
	return nil
}
