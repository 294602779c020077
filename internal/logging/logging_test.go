package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", FormatJSON, &buf)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("op", "eq").Msg("evaluated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "expected exactly one json line, got %q", buf.String())
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "eq", entry["op"])
	assert.Equal(t, "evaluated", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", FormatConsole, &buf)
	require.NoError(t, err)

	logger.Debug().Str("op", "in-net").Msg("checking")
	assert.Contains(t, buf.String(), "checking")
	assert.Contains(t, buf.String(), "op=in-net")
}

func TestNew_Errors(t *testing.T) {
	_, err := New("loud", FormatJSON, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}
