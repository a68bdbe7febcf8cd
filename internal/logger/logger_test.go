package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})
	l.Info().Str("ticker", "AAPL").Msg("test message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test message", entry["message"])
	assert.Equal(t, "AAPL", entry["ticker"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	for _, format := range []string{"text", "console"} {
		var buf bytes.Buffer
		l := New(Config{Level: "info", Format: format, Output: &buf})
		l.Info().Msg("test message")

		assert.Contains(t, buf.String(), "test message", format)
		assert.NotContains(t, buf.String(), `"message"`, format)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, ParseLevel(tc.level), tc.level)
	}
}

func TestNew_SetsGlobalLevel(t *testing.T) {
	New(Config{Level: "error"})
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
	New(Config{Level: "info"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
