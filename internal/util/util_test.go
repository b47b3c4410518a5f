package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Motion Sensor":   "motion-sensor",
		"motion_sensor":   "motion-sensor",
		"  Living Room ":  "living-room",
		"Salle à manger":  "salle-a-manger",
		"Front Door #1!!": "front-door-1",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Main Light", Normalize("  Main\x00   Light \t"))
	assert.Equal(t, "", Normalize("   "))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 21.5, Round(21.49999, 1))
	assert.Equal(t, 22.0, Round(21.96, 1))
}

func TestJoinWithOr(t *testing.T) {
	assert.Equal(t, "", JoinWithOr(nil))
	assert.Equal(t, "Light", JoinWithOr([]string{"Light"}))
	assert.Equal(t, "Light, Lock or Alarm", JoinWithOr([]string{"Light", "Lock", "Alarm"}))
}
