package teller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/teller/internal/dialogue"
	"github.com/aretw0/teller/internal/logging"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/observability"
	"github.com/aretw0/teller/pkg/ports"
	"github.com/aretw0/teller/pkg/session"
	"github.com/aretw0/teller/pkg/tools"
)

// Version is overridden at build time with -ldflags "-X github.com/aretw0/teller.Version=...".
var Version = "dev"

// Assistant is the high-level entry point for the library.
// It wires the session manager, the tool executor and the dialogue engine
// over the given bank, state store and history log.
type Assistant struct {
	engine   *dialogue.Engine
	bank     ports.Bank
	sessions *session.Manager
	history  ports.HistoryLog
	metrics  *observability.Metrics
	logger   *slog.Logger

	completer     ports.Completer
	locker        ports.DistributedLocker
	lockTTL       time.Duration
	catalog       []domain.Tool
	now           func() time.Time
	historyWindow int
}

// Option defines a functional option for configuring the Assistant.
type Option func(*Assistant)

// WithCompleter enables model-driven replies for unmatched turns.
func WithCompleter(c ports.Completer) Option {
	return func(a *Assistant) {
		a.completer = c
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// WithMetrics records turn, tool and completion metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Assistant) {
		a.metrics = m
	}
}

// WithLocker serializes turns of one session across processes.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(a *Assistant) {
		a.locker = l
		a.lockTTL = ttl
	}
}

// WithCatalog replaces the tool schemas advertised to the model.
func WithCatalog(catalog []domain.Tool) Option {
	return func(a *Assistant) {
		a.catalog = catalog
	}
}

// WithClock overrides the time source for session timestamps and history.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		a.now = now
	}
}

// WithHistoryWindow bounds how many turns are read back per session.
func WithHistoryWindow(n int) Option {
	return func(a *Assistant) {
		a.historyWindow = n
	}
}

// New creates an Assistant.
func New(bank ports.Bank, store ports.StateStore, history ports.HistoryLog, opts ...Option) *Assistant {
	a := &Assistant{
		bank:          bank,
		history:       history,
		logger:        logging.NewNop(),
		now:           time.Now,
		historyWindow: dialogue.DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(a)
	}

	sessionOpts := []session.Option{
		session.WithLogger(a.logger),
		session.WithClock(a.now),
	}
	if a.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(a.locker))
		if a.lockTTL > 0 {
			sessionOpts = append(sessionOpts, session.WithLockTTL(a.lockTTL))
		}
	}
	a.sessions = session.NewManager(store, sessionOpts...)

	execOpts := []tools.Option{tools.WithLogger(a.logger), tools.WithMetrics(a.metrics)}
	if a.catalog != nil {
		execOpts = append(execOpts, tools.WithCatalog(a.catalog))
	}

	engineOpts := []dialogue.Option{
		dialogue.WithExecutor(tools.NewExecutor(bank, execOpts...)),
		dialogue.WithMetrics(a.metrics),
		dialogue.WithLogger(a.logger),
		dialogue.WithClock(a.now),
		dialogue.WithHistoryWindow(a.historyWindow),
	}
	if a.completer != nil {
		engineOpts = append(engineOpts, dialogue.WithCompleter(a.completer))
	}
	a.engine = dialogue.New(bank, a.sessions, history, engineOpts...)
	return a
}

// ProcessTurn handles one user message and returns the single reply with
// the session document as it stands after the turn.
func (a *Assistant) ProcessTurn(ctx context.Context, userID, sessionID, message string) (*domain.ChatResponse, error) {
	return a.engine.ProcessTurn(ctx, userID, sessionID, message)
}

// History returns the recent turns of a session and the memory derived
// from them.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]domain.Turn, domain.Memory, error) {
	return a.engine.History(ctx, sessionID)
}

// UserData returns the customer's profile, cards, loans and recent
// transactions.
func (a *Assistant) UserData(ctx context.Context, userID string) (*domain.UserData, error) {
	return a.bank.UserData(ctx, userID)
}

// Session returns the stored document of a session.
func (a *Assistant) Session(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return a.sessions.Load(ctx, sessionID)
}

// Sessions lists the ids of stored sessions.
func (a *Assistant) Sessions(ctx context.Context) ([]string, error) {
	return a.sessions.List(ctx)
}

// DeleteSession removes a session document and its history.
func (a *Assistant) DeleteSession(ctx context.Context, sessionID string) error {
	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if err := a.history.Purge(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to purge history of %s: %w", sessionID, err)
	}
	return nil
}

// Prune deletes sessions idle for longer than age, along with their history.
func (a *Assistant) Prune(ctx context.Context, age time.Duration) ([]string, error) {
	ids, err := a.sessions.Prune(ctx, age)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := a.history.Purge(ctx, id); err != nil {
			a.logger.Warn("Failed to purge history of pruned session", "session_id", id, "err", err)
		}
	}
	return ids, nil
}

// Metrics returns the metrics set given with WithMetrics, or nil.
func (a *Assistant) Metrics() *observability.Metrics {
	return a.metrics
}
