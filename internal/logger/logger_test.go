package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{name: "console", format: FormatConsole},
		{name: "json", format: FormatJSON},
		{name: "auto on buffer", format: FormatAuto},
		{name: "empty on buffer", format: ""},
		{name: "unknown", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			log, err := New(&buf, Config{Format: tt.format, Level: zapcore.DebugLevel})
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			log.Info("Compiled unit", zap.String("unit", "a.less"))
			assert.Contains(t, buf.String(), "Compiled unit")
			assert.Contains(t, buf.String(), "a.less")
		})
	}
}

func TestNew_AutoUsesJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer

	log, err := New(&buf, NewConfig())
	require.NoError(t, err)

	log.Warn("Compilation failed")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Compilation failed", record["msg"])
	assert.Equal(t, "warn", record["level"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer

	log, err := New(&buf, Config{Format: FormatConsole, Level: zapcore.WarnLevel})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
