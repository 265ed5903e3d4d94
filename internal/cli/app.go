package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/teller"
	"github.com/aretw0/teller/internal/config"
	"github.com/aretw0/teller/pkg/adapters/file"
	"github.com/aretw0/teller/pkg/adapters/memory"
	"github.com/aretw0/teller/pkg/adapters/openai"
	"github.com/aretw0/teller/pkg/adapters/redis"
	"github.com/aretw0/teller/pkg/adapters/sqlite"
	"github.com/aretw0/teller/pkg/bank"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/observability"
	"github.com/aretw0/teller/pkg/persistence/middleware"
	"github.com/aretw0/teller/pkg/ports"
	"github.com/aretw0/teller/pkg/tools"
)

const redisPrefix = "teller:"

// App bundles the assistant with the resources a command needs.
type App struct {
	Assistant *teller.Assistant
	Metrics   *observability.Metrics
	Catalog   []domain.Tool
	// Health probes the storage backend. Nil for in-process stores.
	Health func(ctx context.Context) error

	closers []func() error
}

// storage is the set of adapters picked for one backend.
type storage struct {
	store   ports.StateStore
	history ports.HistoryLog
	repo    ports.BankRepository
	locker  ports.DistributedLocker
	health  func(ctx context.Context) error
	closers []func() error
}

// NewApp builds the assistant from cfg: storage backend, seeded bank data,
// tool catalog and, when a key is configured, the completion endpoint.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	st, err := openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &App{
		Metrics: observability.NewMetrics(),
		Health:  st.health,
		closers: st.closers,
	}

	if err := bank.Seed(ctx, st.repo, time.Now()); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to seed bank data: %w", err)
	}

	app.Catalog = tools.DefaultCatalog()
	if cfg.ToolCatalog != "" {
		catalog, err := tools.LoadCatalog(cfg.ToolCatalog)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to load tool catalog: %w", err)
		}
		app.Catalog = catalog
	}

	store, err := protect(st.store, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	opts := []teller.Option{
		teller.WithLogger(logger),
		teller.WithMetrics(app.Metrics),
		teller.WithCatalog(app.Catalog),
		teller.WithHistoryWindow(cfg.HistoryWindow),
	}
	if st.locker != nil {
		opts = append(opts, teller.WithLocker(st.locker, cfg.LockTTL))
	}
	if cfg.CompletionEnabled() {
		opts = append(opts, teller.WithCompleter(openai.New(openai.Config{
			APIKey:  cfg.Completion.APIKey,
			BaseURL: cfg.Completion.BaseURL,
			Model:   cfg.Completion.Model,
			Timeout: cfg.Completion.Timeout,
		}, openai.WithLogger(logger))))
		logger.Debug("Completion endpoint enabled", "base_url", cfg.Completion.BaseURL, "model", cfg.Completion.Model)
	}

	app.Assistant = teller.New(
		bank.New(st.repo, bank.WithLogger(logger)),
		store,
		st.history,
		opts...,
	)
	logger.Debug("Assistant ready", "store", cfg.Store, "tools", len(app.Catalog))
	return app, nil
}

// Close releases the storage connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openStorage(cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return &storage{
			store:   memory.NewStore(),
			history: memory.NewHistory(),
			repo:    memory.NewBankRepository(),
		}, nil

	case config.StoreFile:
		return &storage{
			store:   file.New(cfg.DataDir),
			history: file.NewHistory(filepath.Join(filepath.Dir(cfg.DataDir), "history")),
			repo:    memory.NewBankRepository(),
		}, nil

	case config.StoreRedis:
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithTTL(cfg.Redis.TTL),
			redis.WithPrefix(redisPrefix+"session:"),
		)
		client := rs.Client()
		logger.Debug("Using Redis storage", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		return &storage{
			store:   rs,
			history: redis.NewHistory(client, redisPrefix),
			repo:    memory.NewBankRepository(),
			locker:  redis.NewLocker(client, redisPrefix),
			health: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			closers: []func() error{rs.Close},
		}, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", cfg.SQLitePath, err)
		}
		logger.Debug("Using SQLite storage", "path", cfg.SQLitePath)
		return &storage{
			store:   db,
			history: db,
			repo:    db,
			health:  db.Ping,
			closers: []func() error{db.Close},
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// protect wraps the state store with PII masking and, when a key is set,
// encryption at rest.
func protect(store ports.StateStore, cfg *config.Config) (ports.StateStore, error) {
	active, fallbacks, err := cfg.StateKeys()
	if err != nil {
		return nil, err
	}

	piiKeys := cfg.Protection.PIIKeys
	if len(piiKeys) == 0 {
		piiKeys = middleware.DefaultPIIKeys
	}
	mws := []middleware.Middleware{middleware.NewPIIMiddleware(piiKeys)}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}
	return middleware.Wrap(store, mws...), nil
}
