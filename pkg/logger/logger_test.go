package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, InfoLevel, ParseLevel("loud"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}

func TestWarn_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: InfoLevel, Output: &buf}).With("assembler")

	log.Warn(errors.New("timeout"), "sub-record fetch degraded", "table", "patient_medical_data", "patient_count", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "assembler", entry["component"])
	assert.Equal(t, "timeout", entry["error"])
	assert.Equal(t, "patient_medical_data", entry["table"])
	assert.Equal(t, float64(3), entry["patient_count"])
}

func TestDebugBelowLevelIsDropped(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&Config{Level: InfoLevel, Output: &buf}).Debug("noise")
	assert.Empty(t, buf.String())
}
