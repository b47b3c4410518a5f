package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("warn", &buf)

	l.Info("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Warn("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
}

func TestSourceTagsLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("debug", &buf).Source("hub")

	l.Debug("lockdown")
	assert.Contains(t, buf.String(), "source=hub")
	assert.Contains(t, buf.String(), "lockdown")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("chatty", &buf)

	l.Debug("nope")
	assert.Empty(t, buf.String())
	l.Info("yes")
	assert.Contains(t, buf.String(), "yes")
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Source("x").Error("boom %v", "err") })
}
