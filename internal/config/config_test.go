package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Rules.MaxHealth)
	assert.Equal(t, 10, cfg.Rules.MaxEnergy)
	assert.Equal(t, 9, cfg.Rules.HandCapacity)
	assert.Equal(t, 5, cfg.Rules.BoardCapacity)
	assert.Equal(t, 3, cfg.Rules.FirstHand)
	assert.Equal(t, 4, cfg.Rules.SecondHand)
	assert.Equal(t, "sickness", cfg.Rules.ClashEndState)
	assert.Equal(t, "file", cfg.Library.Source)
	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.False(t, cfg.Replay.Enabled)
	assert.Equal(t, "replays", cfg.Replay.Dir)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("rules:\n  max_health: 25\n  clash_end_state: attacked\nlogging:\n  format: json\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("SHADOWCRAFT_RULES_SEED", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Rules.MaxHealth)
	assert.Equal(t, "attacked", cfg.Rules.ClashEndState)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, int64(42), cfg.Rules.Seed)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Rules.MaxHealth)
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	cfg := Default()
	cfg.Rules.ClashEndState = "exhausted"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Rules.BoardCapacity = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Library.Source = "s3"
	require.Error(t, cfg.Validate())
}
