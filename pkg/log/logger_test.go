package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapterWithWriter(&buf, "debug")

	logger.Debug("footer realigned", Int("bit_offset", 3), String("direction", "decode"))
	logger.Error("load failed", Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "footer realigned")
	assert.Contains(t, out, "bit_offset=3")
	assert.Contains(t, out, "direction=decode")
	assert.Contains(t, out, "boom")
}

func TestZerologAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapterWithWriter(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
