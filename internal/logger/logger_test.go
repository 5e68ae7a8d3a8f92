package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/safar/vintagebikes/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LogConfig{Level: "warn"}, &buf)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Int64("orderId", 7).Msg("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "vintagebikes", entry["service"])
	assert.EqualValues(t, 7, entry["orderId"])
}

func TestNewWithWriterBadLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LogConfig{Level: "loud"}, &buf)

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "hidden")
}
