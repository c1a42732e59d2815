package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, 2, config.Rendezvous.RequiredParticipants)
	assert.Equal(t, 5*time.Second, config.Rendezvous.DecisionWindow)
	assert.False(t, config.ArchiveEnabled)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rendezvous.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
nats_url: nats://nats:4222
rendezvous:
  required_participants: 3
  decision_window: 2s
  round_budget: 4s
  drain_window: 1s
  history_limit: 10
`), 0o600))

	t.Setenv("DRAIN_WINDOW", "3s")
	t.Setenv("ARCHIVE_ENABLED", "true")

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", config.Port)
	assert.Equal(t, "nats://nats:4222", config.NATSURL)
	assert.True(t, config.ArchiveEnabled)
	assert.Equal(t, 3, config.Rendezvous.RequiredParticipants)
	assert.Equal(t, 2*time.Second, config.Rendezvous.DecisionWindow)
	assert.Equal(t, 4*time.Second, config.Rendezvous.RoundBudget)
	assert.Equal(t, 3*time.Second, config.Rendezvous.DrainWindow)
	assert.Equal(t, 10, config.Rendezvous.HistoryLimit)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("ROUND_BUDGET", "1s")

	_, err := loadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("RDV_INT", "nope")
	t.Setenv("RDV_DUR", "250ms")
	t.Setenv("RDV_BOOL", "1")

	assert.Equal(t, 7, getEnvAsInt("RDV_INT", 7))
	assert.Equal(t, 250*time.Millisecond, getEnvAsDuration("RDV_DUR", time.Second))
	assert.True(t, getEnvAsBool("RDV_BOOL", false))
	assert.Equal(t, "fallback", getEnv("RDV_UNSET", "fallback"))
}
