// Package config reads the runtime configuration from the environment.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/teller/internal/logging"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string
	LogFormat string

	Store      string
	DataDir    string
	SQLitePath string
	Redis      RedisConfig

	HTTPAddr      string
	UserID        string
	HistoryWindow int
	LockTTL       time.Duration
	ToolCatalog   string

	Completion CompletionConfig
	Protection ProtectionConfig
}

// RedisConfig locates the Redis server used for state, history and locks.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// CompletionConfig selects the OpenAI-compatible completion endpoint.
// An empty APIKey disables the model path.
type CompletionConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ProtectionConfig controls the at-rest protection of session documents.
// An empty StateKey leaves documents in plain JSON.
type ProtectionConfig struct {
	StateKey          string
	StateFallbackKeys []string
	PIIKeys           []string
}

// Load reads .env files (missing ones are skipped) and then TELLER_*
// variables. Variables already set in the process win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	cfg := &Config{
		LogLevel:   getEnv("TELLER_LOG_LEVEL", "info"),
		LogFormat:  getEnv("TELLER_LOG_FORMAT", logging.FormatText),
		Store:      strings.ToLower(getEnv("TELLER_STORE", StoreMemory)),
		DataDir:    getEnv("TELLER_DATA_DIR", "./data/sessions"),
		SQLitePath: getEnv("TELLER_SQLITE_PATH", "./data/teller.db"),
		Redis: RedisConfig{
			Addr:     getEnv("TELLER_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("TELLER_REDIS_PASSWORD", ""),
			DB:       getEnvInt("TELLER_REDIS_DB", 0),
			TTL:      getEnvDuration("TELLER_REDIS_TTL", 24*time.Hour),
		},
		HTTPAddr:      getEnv("TELLER_HTTP_ADDR", ":8000"),
		UserID:        getEnv("TELLER_USER_ID", "user123"),
		HistoryWindow: getEnvInt("TELLER_HISTORY_WINDOW", 20),
		LockTTL:       getEnvDuration("TELLER_LOCK_TTL", 30*time.Second),
		ToolCatalog:   getEnv("TELLER_TOOL_CATALOG", ""),
		Completion: CompletionConfig{
			APIKey:  firstEnv("TELLER_COMPLETION_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY"),
			BaseURL: getEnv("TELLER_COMPLETION_BASE_URL", ""),
			Model:   getEnv("TELLER_COMPLETION_MODEL", ""),
			Timeout: getEnvDuration("TELLER_COMPLETION_TIMEOUT", 30*time.Second),
		},
		Protection: ProtectionConfig{
			StateKey:          getEnv("TELLER_STATE_KEY", ""),
			StateFallbackKeys: getEnvList("TELLER_STATE_FALLBACK_KEYS"),
			PIIKeys:           getEnvList("TELLER_PII_KEYS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("TELLER_STORE must be one of memory, file, redis, sqlite (got %q)", c.Store)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("TELLER_LOG_LEVEL: %w", err)
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		return fmt.Errorf("TELLER_LOG_FORMAT must be text or json (got %q)", c.LogFormat)
	}
	if c.Store == StoreFile && c.DataDir == "" {
		return fmt.Errorf("TELLER_DATA_DIR cannot be empty")
	}
	if c.Store == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("TELLER_SQLITE_PATH cannot be empty")
	}
	if c.Store == StoreRedis && c.Redis.Addr == "" {
		return fmt.Errorf("TELLER_REDIS_ADDR cannot be empty")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("TELLER_HTTP_ADDR cannot be empty")
	}
	if c.UserID == "" {
		return fmt.Errorf("TELLER_USER_ID cannot be empty")
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("TELLER_HISTORY_WINDOW must be > 0")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("TELLER_LOCK_TTL must be > 0")
	}
	if _, _, err := c.StateKeys(); err != nil {
		return err
	}
	for _, p := range c.Protection.PIIKeys {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("TELLER_PII_KEYS: %w", err)
		}
	}
	return nil
}

// StateKeys decodes the encryption keys. Each key is 32 bytes given as hex
// or standard base64. active is nil when encryption is off.
func (c *Config) StateKeys() (active []byte, fallbacks [][]byte, err error) {
	if c.Protection.StateKey == "" {
		if len(c.Protection.StateFallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("TELLER_STATE_FALLBACK_KEYS requires TELLER_STATE_KEY")
		}
		return nil, nil, nil
	}
	active, err = decodeKey(c.Protection.StateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("TELLER_STATE_KEY: %w", err)
	}
	for i, k := range c.Protection.StateFallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("TELLER_STATE_FALLBACK_KEYS[%d]: %w", i, err)
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

func decodeKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	key, err := hex.DecodeString(s)
	if err != nil {
		key, err = base64.StdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, errors.New("key must be hex or base64")
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// CompletionEnabled reports whether a completion API key is configured.
func (c *Config) CompletionEnabled() bool {
	return c.Completion.APIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
