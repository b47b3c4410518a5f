package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/daemonp/homehub/internal/config"
	"github.com/daemonp/homehub/internal/event"
	"github.com/daemonp/homehub/internal/log"
)

const (
	offlinePayload = "offline"
	onlinePayload  = "online"
)

type deviceState struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Room   string `json:"room"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type alert struct {
	Type    event.Type `json:"type"`
	Room    string     `json:"room"`
	Device  string     `json:"device,omitempty"`
	Message string     `json:"message"`
}

// MQTT mirrors device state and alerts to a broker. Inbound command
// payloads are not applied here; they are handed to the commands channel
// as shell lines so the hub is only ever touched by the shell loop.
// Lines the shell cannot take right away are dropped.
type MQTT struct {
	config   *config.MQTTConfig
	log      *log.Logger
	client   mqtt.Client
	topics   *Topics
	commands chan<- string
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
}

func NewMQTT(cfg *config.MQTTConfig, commands chan<- string, logger *log.Logger) *MQTT {
	return &MQTT{
		config:   cfg,
		log:      logger,
		topics:   NewTopics(cfg.Prefix),
		commands: commands,
		done:     make(chan struct{}),
	}
}

func (m *MQTT) GetPrefix() string {
	return m.config.Prefix
}

func (m *MQTT) Topics() *Topics {
	return m.topics
}

func (m *MQTT) Connect() error {
	host, port := m.broker()
	return m.connect(mqtt.NewClient(m.options()), host, port)
}

func (m *MQTT) broker() (string, int) {
	host, port := m.config.Host, m.config.Port
	if strings.Contains(host, "://") {
		host, port = ParseURL(host)
	}
	return host, port
}

func (m *MQTT) options() *mqtt.ClientOptions {
	host, port := m.broker()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(m.config.ClientID)
	opts.SetUsername(m.config.Username)
	opts.SetPassword(m.config.Password)
	opts.SetCleanSession(m.config.Clean)
	opts.SetKeepAlive(time.Duration(m.config.Keepalive) * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(m.onDisconnect)

	opts.SetWill(m.topics.Status(), offlinePayload, byte(m.config.QOS), true)
	return opts
}

func (m *MQTT) connect(client mqtt.Client, host string, port int) error {
	m.mu.Lock()
	m.client = client
	m.mu.Unlock()

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	m.log.Info("Connected to MQTT broker: %s:%d", host, port)
	return nil
}

func (m *MQTT) onConnect(client mqtt.Client) {
	m.log.Info("MQTT connection established")
	m.Publish(m.topics.Status(), onlinePayload, true)

	topic := m.topics.DeviceCommands()
	token := client.Subscribe(topic, byte(m.config.QOS), m.handleMessage)
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to subscribe to topic %s: %v", topic, token.Error())
	} else {
		m.log.Debug("Subscribed to topic: %s", topic)
	}
}

func (m *MQTT) onDisconnect(client mqtt.Client, err error) {
	m.log.Error("MQTT connection lost: %v", err)
}

func (m *MQTT) handleMessage(client mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	payload := string(msg.Payload())

	m.log.Debug("Received message on topic %s: %s", topic, payload)

	room, device, ok := m.topics.ParseDeviceCommand(topic)
	if !ok {
		m.log.Warning("Received message on unknown topic: %s", topic)
		return
	}
	line, ok := commandLine(room, device, payload)
	if !ok {
		m.log.Warning("Unknown device command: %s", payload)
		return
	}

	// Runs on paho's router goroutine, which must never wait on the shell.
	select {
	case <-m.done:
		m.log.Warning("Shell stopped, dropping command %q", line)
		return
	default:
	}
	select {
	case m.commands <- line:
	default:
		m.log.Warning("Shell busy, dropping command %q", line)
	}
}

// Attach publishes bus events until the returned function is called.
func (m *MQTT) Attach(bus *event.Bus) func() {
	return bus.OnAll(m.HandleEvent)
}

func (m *MQTT) HandleEvent(ev event.Event) {
	switch ev.Type {
	case event.TypeDeviceAdded, event.TypeDeviceChanged:
		m.Publish(m.topics.Device(ev.Room, ev.Device), deviceState{
			ID:     ev.DeviceID,
			Name:   ev.Device,
			Room:   ev.Room,
			Type:   ev.Kind,
			Status: ev.Status,
		}, m.config.Retain)
	case event.TypeDeviceRemoved:
		// An empty retained message clears the topic.
		m.Publish(m.topics.Device(ev.Room, ev.Device), []byte{}, true)
	case event.TypeAlarmSounding, event.TypeSecurityBreach:
		m.Publish(m.topics.Alert(), alert{
			Type:    ev.Type,
			Room:    ev.Room,
			Device:  ev.Device,
			Message: ev.Message,
		}, false)
	}
}

// Publish sends payload as is when it is a string or bytes, as JSON otherwise.
func (m *MQTT) Publish(topic string, message interface{}, retain bool) {
	var payload []byte
	switch v := message.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		b, err := json.Marshal(message)
		if err != nil {
			m.log.Error("Failed to marshal message for topic %s: %v", topic, err)
			return
		}
		payload = b
	}

	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil || !client.IsConnected() {
		m.log.Debug("Not connected, dropping message for topic: %s", topic)
		return
	}

	token := client.Publish(topic, byte(m.config.QOS), retain, payload)
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to publish message to topic %s: %v", topic, token.Error())
	} else {
		m.log.Debug("Published message to topic: %s", topic)
	}
}

// Close stops handing commands to the shell and disconnects.
func (m *MQTT) Close() {
	m.stopOnce.Do(func() { close(m.done) })

	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client != nil && client.IsConnected() {
		m.Publish(m.topics.Status(), offlinePayload, true)
		client.Disconnect(250)
	}
}
