// Package dialogue is the conversational state machine. Each turn is routed
// through an ordered rule table to exactly one handler, which reads and
// patches the session document and produces a single reply.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/teller/internal/logging"
	"github.com/aretw0/teller/pkg/classify"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/observability"
	"github.com/aretw0/teller/pkg/ports"
	"github.com/aretw0/teller/pkg/session"
	"github.com/aretw0/teller/pkg/tools"
)

// DefaultHistoryWindow is how many turns are read back per session.
const DefaultHistoryWindow = 20

// Engine runs conversational turns.
type Engine struct {
	bank      ports.Bank
	sessions  *session.Manager
	history   ports.HistoryLog
	completer ports.Completer
	executor  *tools.Executor
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time

	historyWindow int
}

// Option configures the Engine.
type Option func(*Engine)

// WithCompleter enables the model path. Without one every unmatched turn
// gets the scripted fallback.
func WithCompleter(c ports.Completer) Option {
	return func(e *Engine) { e.completer = c }
}

// WithExecutor replaces the tool executor built over the bank.
func WithExecutor(x *tools.Executor) Option {
	return func(e *Engine) { e.executor = x }
}

// WithMetrics records routing and completion metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger configures a logger for the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithHistoryWindow bounds the turns read back from the history log.
func WithHistoryWindow(n int) Option {
	return func(e *Engine) { e.historyWindow = n }
}

// New creates an Engine.
func New(bank ports.Bank, sessions *session.Manager, history ports.HistoryLog, opts ...Option) *Engine {
	e := &Engine{
		bank:          bank,
		sessions:      sessions,
		history:       history,
		logger:        logging.NewNop(),
		now:           time.Now,
		historyWindow: DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.executor == nil {
		e.executor = tools.NewExecutor(bank, tools.WithLogger(e.logger), tools.WithMetrics(e.metrics))
	}
	return e
}

// turn is the in-flight state of one message.
type turn struct {
	ctx       context.Context
	userID    string
	sessionID string
	message   string
	lower     string
	tx        *session.Tx
}

func (t *turn) has(phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(t.lower, p) {
			return true
		}
	}
	return false
}

// ProcessTurn handles one user message and returns the single reply.
// The session is locked for the length of the turn. Exactly one turn is
// appended to the history log.
func (e *Engine) ProcessTurn(ctx context.Context, userID, sessionID, message string) (*domain.ChatResponse, error) {
	var resp *domain.ChatResponse
	err := e.sessions.WithSession(ctx, sessionID, func(tx *session.Tx) error {
		t := &turn{
			ctx:       tx.Context(),
			userID:    userID,
			sessionID: sessionID,
			message:   message,
			lower:     strings.ToLower(message),
			tx:        tx,
		}
		st := tx.State()
		r := route(&st, message)
		e.logger.Debug("Turn routed", "session_id", sessionID, "user_id", userID, "route", r.name)
		e.metrics.TurnRouted(r.name)

		out, err := r.handle(e, t)
		if err != nil {
			return fmt.Errorf("%s handler failed: %w", r.name, err)
		}
		if err := e.record(t, out.Response); err != nil {
			return err
		}
		if err := tx.Touch(); err != nil {
			return err
		}
		final := tx.State()
		out.State = &final
		resp = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// record appends the turn to the history log.
func (e *Engine) record(t *turn, reply string) error {
	entry := domain.Turn{
		User:      t.message,
		Assistant: reply,
		Timestamp: e.now(),
		Topics:    classify.Topics(t.message),
		Urgency:   classify.Urgency(t.message),
	}
	if err := e.history.Append(t.ctx, t.sessionID, entry); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// History returns the recent transcript of a session and the memory view
// derived from it.
func (e *Engine) History(ctx context.Context, sessionID string) ([]domain.Turn, domain.Memory, error) {
	turns, err := e.history.Recent(ctx, sessionID, e.historyWindow)
	if err != nil {
		return nil, domain.Memory{}, fmt.Errorf("failed to read history: %w", err)
	}
	return turns, domain.Summarize(turns), nil
}

// bankFailure logs a banking API error and answers with text.
func (e *Engine) bankFailure(t *turn, op string, err error, text string) (*domain.ChatResponse, error) {
	e.logger.Error("Banking call failed",
		"session_id", t.sessionID,
		"user_id", t.userID,
		"op", op,
		"err", err,
	)
	return domain.Reply(text), nil
}
