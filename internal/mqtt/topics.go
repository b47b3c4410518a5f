package mqtt

import (
	"fmt"
	"strings"

	"github.com/daemonp/homehub/internal/util"
)

type Topics struct {
	prefix string
}

func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

func (t *Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix)
}

func (t *Topics) Alert() string {
	return fmt.Sprintf("%s/alert", t.prefix)
}

func (t *Topics) Device(room, device string) string {
	return fmt.Sprintf("%s/room/%s/%s", t.prefix, util.Slugify(room), util.Slugify(device))
}

func (t *Topics) DeviceCommand(room, device string) string {
	return t.Device(room, device) + "/set"
}

// DeviceCommands matches every device command topic.
func (t *Topics) DeviceCommands() string {
	return fmt.Sprintf("%s/room/+/+/set", t.prefix)
}

// ParseDeviceCommand extracts the room and device slugs from a command topic.
func (t *Topics) ParseDeviceCommand(topic string) (room, device string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.prefix+"/room/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != "set" || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
