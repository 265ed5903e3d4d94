package config

import (
	"encoding/base64"
	"encoding/hex"
	"os"
	"strings"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TELLER_LOG_LEVEL", "TELLER_LOG_FORMAT", "TELLER_STORE", "TELLER_DATA_DIR",
		"TELLER_SQLITE_PATH", "TELLER_REDIS_ADDR", "TELLER_REDIS_PASSWORD",
		"TELLER_REDIS_DB", "TELLER_REDIS_TTL", "TELLER_HTTP_ADDR", "TELLER_USER_ID",
		"TELLER_HISTORY_WINDOW", "TELLER_LOCK_TTL", "TELLER_TOOL_CATALOG",
		"TELLER_COMPLETION_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY",
		"TELLER_COMPLETION_BASE_URL", "TELLER_COMPLETION_MODEL", "TELLER_COMPLETION_TIMEOUT",
		"TELLER_STATE_KEY", "TELLER_STATE_FALLBACK_KEYS", "TELLER_PII_KEYS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "user123", cfg.UserID)
	assert.Equal(t, 20, cfg.HistoryWindow)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.False(t, cfg.CompletionEnabled())
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"TELLER_STORE=sqlite\nTELLER_REDIS_TTL=2h\nGROQ_API_KEY=gsk_test\nTELLER_HISTORY_WINDOW=5\n",
	), 0o600))
	t.Setenv("TELLER_HISTORY_WINDOW", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, 2*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "gsk_test", cfg.Completion.APIKey)
	assert.Equal(t, 8, cfg.HistoryWindow, "process environment wins over the file")
	assert.True(t, cfg.CompletionEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELLER_STORE", "postgres")

	_, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELLER_STORE")
}

func TestValidate(t *testing.T) {
	valid := Config{
		LogLevel: "debug", LogFormat: "json", Store: StoreFile, DataDir: "x",
		HTTPAddr: ":1", UserID: "u", HistoryWindow: 1, LockTTL: time.Second,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"data dir", func(c *Config) { c.DataDir = "" }},
		{"history window", func(c *Config) { c.HistoryWindow = 0 }},
		{"lock ttl", func(c *Config) { c.LockTTL = 0 }},
		{"user", func(c *Config) { c.UserID = "" }},
		{"short state key", func(c *Config) { c.Protection.StateKey = "abcd" }},
		{"pii pattern", func(c *Config) { c.Protection.PIIKeys = []string{"(card"} }},
		{"fallback without key", func(c *Config) { c.Protection.StateFallbackKeys = []string{strings.Repeat("ab", 32)} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestStateKeys(t *testing.T) {
	clearEnv(t)
	raw := []byte(strings.Repeat("k", 32))
	old := []byte(strings.Repeat("o", 32))
	t.Setenv("TELLER_STATE_KEY", hex.EncodeToString(raw))
	t.Setenv("TELLER_STATE_FALLBACK_KEYS", " "+base64.StdEncoding.EncodeToString(old)+" ,")
	t.Setenv("TELLER_PII_KEYS", "^iban$, ^email$")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.Equal(t, []string{"^iban$", "^email$"}, cfg.Protection.PIIKeys)

	active, fallbacks, err := cfg.StateKeys()
	require.NoError(t, err)
	assert.Equal(t, raw, active)
	require.Len(t, fallbacks, 1)
	assert.Equal(t, old, fallbacks[0])
}

func TestStateKeys_Disabled(t *testing.T) {
	c := Config{}
	active, fallbacks, err := c.StateKeys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallbacks)
}
