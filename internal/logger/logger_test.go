package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teralink/internal/config"
)

func TestNewDefault(t *testing.T) {
	log, err := New(config.Default().Log, false)
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewDebugOverridesLevel(t *testing.T) {
	cfg := config.Default().Log
	cfg.Level = "error"

	log, err := New(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}

func TestNewBadLevel(t *testing.T) {
	cfg := config.Default().Log
	cfg.Level = "loud"

	_, err := New(cfg, false)
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	cfg := config.Default().Log
	cfg.Format = "json"
	cfg.File = filepath.Join(t.TempDir(), "logs", "teralink.log")

	log, err := New(cfg, false)
	require.NoError(t, err)

	l := Component(log, "test")
	l.Info().Msg("hello")

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}
