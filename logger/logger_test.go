package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONToNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "warn", false)

	log.Info().Msg("hidden")
	log.Warn().Str("component", "cache").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "cache", line["component"])
	assert.Equal(t, "warn", line["level"])
}

func TestSetupDebugOverridesLevel(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "error", true)
	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), `"visible"`)
	assert.Contains(t, buf.String(), `"caller"`)
}

func TestSetupUnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "chatty", false)
	log.Debug().Msg("nope")
	log.Info().Msg("yes")
	assert.NotContains(t, buf.String(), "nope")
	assert.Contains(t, buf.String(), "yes")
}
