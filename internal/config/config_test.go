package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.Equal(t, 5*time.Minute, cfg.OracleMaxAge)
	assert.Empty(t, cfg.PGDSN)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("addr: \":9090\"\npg_dsn: \"postgres://localhost/rentledger\"\nrate_burst: 5\nrate_per_sec: 2.5\noracle_max_age: 30s\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://localhost/rentledger", cfg.PGDSN)
	assert.Equal(t, 5, cfg.RateBurst)
	assert.Equal(t, 2.5, cfg.RatePerSec)
	assert.Equal(t, 30*time.Second, cfg.OracleMaxAge)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9090\"\n"), 0o600))

	t.Setenv("RENTLEDGER_ADDR", ":7070")
	t.Setenv("RENTLEDGER_ORACLE_FEED_URL", "http://feed.local/quote")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "http://feed.local/quote", cfg.OracleFeedURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("RENTLEDGER_RATE_BURST", "not-a-number")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}
