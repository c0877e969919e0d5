package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	logger := Component("engine")
	logger.Info().Msg("loaded")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "engine", entry[ComponentKey])
	assert.Equal(t, "loaded", entry["message"])
}

func TestComponentOf(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).With().Str("user_id", "alice").Logger()

	logger := ComponentOf(base, "remote")
	logger.Warn().Msg("retrying")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "remote", entry["component"])
	assert.Equal(t, "alice", entry["user_id"], "fields of the base logger are kept")
}
