package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("hello from parley")
	assert.Contains(t, buf.String(), "hello from parley")
}

func TestNewDefaultWriter(t *testing.T) {
	// nil writer should default to stderr console writer
	log := New(nil, "info")
	require.NotNil(t, log)
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")
	sub := log.Sub("api")
	require.NotNil(t, sub)

	sub.Debug().Msg("scoped")
	assert.Contains(t, buf.String(), "api")
	assert.Contains(t, buf.String(), "scoped")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("filtered out")
	log.Info().Msg("also filtered")
	log.Warn().Msg("warning shown")

	out := buf.String()
	assert.NotContains(t, out, "filtered out")
	assert.NotContains(t, out, "also filtered")
	assert.Contains(t, out, "warning shown")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Error().Msg("should not appear")
	assert.Empty(t, buf.String())
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "bogus")

	log.Debug().Msg("debug hidden")
	log.Info().Msg("info shown")

	assert.NotContains(t, buf.String(), "debug hidden")
	assert.Contains(t, buf.String(), "info shown")
}
