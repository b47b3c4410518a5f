package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

func ParseURL(urlStr string) (string, int) {
	urlStr = strings.TrimPrefix(urlStr, "mqtt://")
	urlStr = strings.TrimPrefix(urlStr, "tcp://")
	parts := strings.Split(urlStr, ":")
	if len(parts) == 1 {
		return parts[0], 1883 // Default MQTT port
	}
	port := 1883
	fmt.Sscanf(parts[1], "%d", &port)
	return parts[0], port
}

// commandLine turns a command payload into a shell line addressing the
// device by its slugs.
func commandLine(room, device, payload string) (string, bool) {
	payload = strings.ToLower(strings.TrimSpace(payload))
	if payload == "unlock" {
		payload = "unblock"
	}
	switch payload {
	case "on", "off", "toggle", "unblock":
		return fmt.Sprintf("%s %s %s", payload, room, device), true
	}
	if _, err := strconv.ParseFloat(payload, 64); err == nil {
		return fmt.Sprintf("temp %s %s %s", room, device, payload), true
	}
	return "", false
}
