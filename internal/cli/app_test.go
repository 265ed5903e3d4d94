package cli

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/teller/internal/config"
	"github.com/aretw0/teller/internal/logging"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, store string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		LogLevel:      "info",
		LogFormat:     logging.FormatText,
		Store:         store,
		DataDir:       filepath.Join(dir, "sessions"),
		SQLitePath:    filepath.Join(dir, "teller.db"),
		HTTPAddr:      ":0",
		UserID:        "user123",
		HistoryWindow: 20,
		LockTTL:       5 * time.Second,
	}
}

func TestNewApp_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, store := range []string{config.StoreMemory, config.StoreFile, config.StoreSQLite, config.StoreRedis} {
		t.Run(store, func(t *testing.T) {
			cfg := testConfig(t, store)
			cfg.Redis.Addr = mr.Addr()
			cfg.Redis.TTL = time.Hour

			ctx := context.Background()
			app, err := NewApp(ctx, cfg, logging.NewNop())
			require.NoError(t, err)
			defer app.Close()

			if store == config.StoreRedis || store == config.StoreSQLite {
				require.NotNil(t, app.Health)
				assert.NoError(t, app.Health(ctx))
			}

			resp, err := app.Assistant.ProcessTurn(ctx, "user123", "s-"+store, "what's my balance")
			require.NoError(t, err)
			assert.Contains(t, resp.Response, "$28,750.50")

			ids, err := app.Assistant.Sessions(ctx)
			require.NoError(t, err)
			assert.Contains(t, ids, "s-"+store)

			turns, _, err := app.Assistant.History(ctx, "s-"+store)
			require.NoError(t, err)
			assert.Len(t, turns, 1)
		})
	}
}

func TestNewApp_FileLayout(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	ctx := context.Background()
	app, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)

	_, err = app.Assistant.ProcessTurn(ctx, "user123", "disk", "hello")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.DataDir, "disk.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(cfg.DataDir), "history", "disk.jsonl"))
	assert.NoError(t, err)
}

func TestNewApp_EncryptedState(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	cfg.Protection.StateKey = hex.EncodeToString([]byte(strings.Repeat("k", 32)))
	ctx := context.Background()

	app, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)

	_, err = app.Assistant.ProcessTurn(ctx, "user123", "secret", "block my card")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cfg.DataDir, "secret.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sealed"`)
	assert.NotContains(t, string(raw), "card_blocking")

	state, err := app.Assistant.Session(ctx, "secret")
	require.NoError(t, err)
	assert.Empty(t, state.Sealed)
	require.NotNil(t, state.PendingAction)
	assert.Equal(t, domain.SelectCardBlocking, state.PendingAction.ProcessType)
}

func TestNewApp_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t, config.StoreMemory)
	cfg.ToolCatalog = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewApp(ctx, cfg, logging.NewNop())
	assert.ErrorContains(t, err, "tool catalog")

	cfg = testConfig(t, config.StoreMemory)
	cfg.Protection.StateKey = "abcd"
	_, err = NewApp(ctx, cfg, logging.NewNop())
	assert.ErrorContains(t, err, "TELLER_STATE_KEY")

	cfg = testConfig(t, "postgres")
	_, err = NewApp(ctx, cfg, logging.NewNop())
	assert.Error(t, err)
}
