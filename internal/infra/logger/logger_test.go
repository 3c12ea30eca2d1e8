package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "info", "Production")

	Component(log, "scheduler").WithField("cycle_id", "abc").Info("Running check cycle")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Running check cycle", line["msg"])
	assert.Equal(t, "scheduler", line["component"])
	assert.Equal(t, "abc", line["cycle_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{level: "debug", want: logrus.DebugLevel},
		{level: "WARN", want: logrus.WarnLevel},
		{level: "", want: logrus.InfoLevel},
		{level: "chatty", want: logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithOutput(&buf, tt.level, "development")
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestNew_InvalidLevelWarns(t *testing.T) {
	var buf bytes.Buffer
	NewWithOutput(&buf, "chatty", "development")

	assert.Contains(t, buf.String(), "Invalid log level 'chatty'")
}
