package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, InfoLevel, false, false)

	l.Info("port opened", "port", "/dev/ttyACM0")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "port opened", rec["msg"])
	assert.Equal(t, "/dev/ttyACM0", rec["port"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Contains(t, rec, "ts")
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, WarnLevel, false, false)

	l.Debug("dropped")
	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.Equal(t, WarnLevel, l.Level())

	buf.Reset()
	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
	assert.Equal(t, DebugLevel, l.Level())
}

func TestSlogLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewSlogWithWriter(&buf, ErrorLevel, false, false)
	child := parent.With("port", "COM3")

	child.Info("hidden")
	assert.Zero(t, buf.Len())

	parent.SetLevel(InfoLevel)
	child.Info("visible")
	assert.Contains(t, buf.String(), `"port":"COM3"`)
}

func TestSlogLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, InfoLevel, false, true)

	l.Info("synced", "stage", 3)
	assert.Contains(t, buf.String(), "synced")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, "warn", WarnLevel.String())
}
