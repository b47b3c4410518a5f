package mqtt

// MQTTClient is what integrations publishing through the bridge need.
type MQTTClient interface {
	GetPrefix() string
	Topics() *Topics
	Publish(topic string, payload interface{}, retain bool)
}
