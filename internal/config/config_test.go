package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, 15, cfg.Auction.BidWindowSeconds)
	assert.False(t, cfg.Auction.OverseasRound)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
port: "9090"
redis:
  addr: redis.internal:6379
  db: 2
auction:
  bid_window_seconds: 20
  overlay_duration: 5s
  overseas_round: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 20, cfg.Auction.BidWindowSeconds)
	assert.Equal(t, 5*time.Second, cfg.Auction.OverlayDuration)
	assert.True(t, cfg.Auction.OverseasRound)

	// File left NATS alone: default survives.
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`port: "9090"`), 0o644))

	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_ADDR", "env-redis:6379")
	t.Setenv("BID_WINDOW_SECONDS", "25")
	t.Setenv("OVERSEAS_ROUND", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 25, cfg.Auction.BidWindowSeconds)
	assert.True(t, cfg.Auction.OverseasRound)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a scalar"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
