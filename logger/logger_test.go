package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logRecord struct {
	Level     string `json:"level"`
	Msg       string `json:"msg"`
	Component string `json:"component"`
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	original := Logger
	defer func() { Logger = original; slog.SetDefault(original) }()

	Setup(&buf, "debug", "json")

	tests := []struct {
		name  string
		fn    func(msg string, args ...any)
		level string
	}{
		{"Info", Info, "INFO"},
		{"Error", Error, "ERROR"},
		{"Warn", Warn, "WARN"},
		{"Debug", Debug, "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn(tt.name + " message")

			var rec logRecord
			require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
			assert.Equal(t, tt.name+" message", rec.Msg)
			assert.Equal(t, tt.level, rec.Level)
		})
	}

	buf.Reset()
	With("parser").Info("tagged")
	var rec logRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "parser", rec.Component)
}

func TestSetupFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	original := Logger
	defer func() { Logger = original; slog.SetDefault(original) }()

	Setup(&buf, "warn", "text")
	Info("hidden")
	assert.Empty(t, buf.String())
	Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
