package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/teller/internal/logging"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/observability"
	"github.com/aretw0/teller/pkg/ports"
	"github.com/aretw0/teller/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// Tool names served by the executor.
const (
	GetUserCards      = "get_user_cards"
	BlockCard         = "block_card"
	GetAccountBalance = "get_account_balance"
	GetMiniStatement  = "get_mini_statement"
	ApplyForLoan      = "apply_for_loan"
	GetLoanStatus     = "get_loan_status"
	GetLimitInfo      = "get_limit_info"
	ApplyNewCard      = "apply_new_card"
	GetAccountDetails = "get_comprehensive_account_details"
	RetrieveKnowledge = "retrieve_knowledge"
)

const defaultKnowledgeK = 3

// userScopedPrefixes marks the tools that receive the caller's user_id.
var userScopedPrefixes = []string{"get_", "block_", "apply_"}

// Outcome is the result of one tool execution. When the tool could not run,
// Failure holds a descriptive message and Result is nil.
type Outcome struct {
	Tool    string
	Result  *domain.Result
	Failure string
}

// Failed reports whether the tool could not run.
func (o Outcome) Failed() bool {
	return o.Failure != ""
}

// Executor runs model-requested tools against the banking API.
type Executor struct {
	registry *Registry
	catalog  []domain.Tool
	schemas  map[string]*schema.Schema
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures the Executor.
type Option func(*Executor)

// WithLogger configures a logger for the Executor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithMetrics records tool calls.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithCatalog replaces the embedded tool catalog.
func WithCatalog(catalog []domain.Tool) Option {
	return func(e *Executor) { e.catalog = catalog }
}

// NewExecutor creates an Executor serving the banking tools.
func NewExecutor(bank ports.Bank, opts ...Option) *Executor {
	e := &Executor{
		registry: NewRegistry(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		e.catalog = DefaultCatalog()
	}
	e.schemas = make(map[string]*schema.Schema, len(e.catalog))
	for _, t := range e.catalog {
		s, err := schema.FromParameters(t.Parameters)
		if err != nil {
			e.logger.Warn("Tool parameters not checked", "tool", t.Name, "err", err)
			continue
		}
		e.schemas[t.Name] = s
	}
	register(e.registry, bank)
	return e
}

// Catalog returns the tool definitions to advertise to the model.
func (e *Executor) Catalog() []domain.Tool {
	return e.catalog
}

// Names lists the tools the executor can run.
func (e *Executor) Names() []string {
	return e.registry.Names()
}

// Execute runs the named tool. Unknown tools and tool errors come back as
// a failed Outcome, never as a Go error.
func (e *Executor) Execute(ctx context.Context, userID string, call domain.ToolCall) Outcome {
	if err := e.schemas[call.Name].Validate(call.Args); err != nil {
		e.logger.Warn("Tool arguments rejected", "tool", call.Name, "user_id", userID, "err", err)
		e.metrics.ToolCalled(call.Name, "invalid")
		return Outcome{Tool: call.Name, Failure: fmt.Sprintf("Error executing tool '%s': %v", call.Name, err)}
	}

	args := make(map[string]any, len(call.Args)+1)
	for k, v := range call.Args {
		args[k] = v
	}
	if userScoped(call.Name) {
		args["user_id"] = userID
	}

	res, err := e.registry.Execute(ctx, call.Name, args)
	switch {
	case errors.Is(err, domain.ErrUnknownTool):
		e.logger.Warn("Unknown tool requested", "tool", call.Name, "user_id", userID)
		e.metrics.ToolCalled(call.Name, "unknown")
		return Outcome{Tool: call.Name, Failure: fmt.Sprintf("Error: Tool '%s' not found.", call.Name)}
	case err != nil:
		e.logger.Error("Tool execution failed", "tool", call.Name, "user_id", userID, "err", err)
		e.metrics.ToolCalled(call.Name, "failed")
		return Outcome{Tool: call.Name, Failure: fmt.Sprintf("Error executing tool '%s': %v", call.Name, err)}
	}

	e.logger.Debug("Tool executed", "tool", call.Name, "user_id", userID, "status", res.Status)
	e.metrics.ToolCalled(call.Name, string(res.Status))
	return Outcome{Tool: call.Name, Result: res}
}

func userScoped(name string) bool {
	for _, p := range userScopedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

type userArgs struct {
	UserID string `mapstructure:"user_id"`
}

type cardArgs struct {
	UserID string `mapstructure:"user_id"`
	CardID string `mapstructure:"card_id"`
}

type loanArgs struct {
	UserID   string   `mapstructure:"user_id"`
	Amount   *float64 `mapstructure:"amount"`
	Purpose  *string  `mapstructure:"purpose"`
	Income   *float64 `mapstructure:"income"`
	ForceNew bool     `mapstructure:"force_new"`
}

type newCardArgs struct {
	UserID   string `mapstructure:"user_id"`
	CardType string `mapstructure:"card_type"`
	Brand    string `mapstructure:"brand"`
}

type knowledgeArgs struct {
	Query string `mapstructure:"query"`
	TopK  int    `mapstructure:"top_k"`
}

// decode maps loosely typed model arguments onto a typed struct. Numbers
// sent as strings are accepted.
func decode(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required argument '%s'", name)
	}
	return nil
}

// register installs one entry per tool.
func register(r *Registry, bank ports.Bank) {
	byUser := func(fn func(context.Context, string) (*domain.Result, error)) ToolFunction {
		return func(ctx context.Context, args map[string]any) (*domain.Result, error) {
			var a userArgs
			if err := decode(args, &a); err != nil {
				return nil, err
			}
			return fn(ctx, a.UserID)
		}
	}
	byCard := func(fn func(context.Context, string, string) (*domain.Result, error)) ToolFunction {
		return func(ctx context.Context, args map[string]any) (*domain.Result, error) {
			var a cardArgs
			if err := decode(args, &a); err != nil {
				return nil, err
			}
			if err := required("card_id", a.CardID); err != nil {
				return nil, err
			}
			return fn(ctx, a.UserID, a.CardID)
		}
	}

	r.Register(GetUserCards, byUser(bank.UserCards))
	r.Register(GetAccountBalance, byUser(bank.AccountBalance))
	r.Register(GetMiniStatement, byUser(bank.MiniStatement))
	r.Register(GetLoanStatus, byUser(bank.LoanStatus))
	r.Register(GetAccountDetails, byUser(bank.AccountDetails))
	r.Register(BlockCard, byCard(bank.BlockCard))
	r.Register(GetLimitInfo, byCard(bank.LimitInfo))

	r.Register(ApplyForLoan, func(ctx context.Context, args map[string]any) (*domain.Result, error) {
		var a loanArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return bank.ApplyForLoan(ctx, a.UserID, ports.LoanRequest{
			Amount: a.Amount, Purpose: a.Purpose, Income: a.Income, ForceNew: a.ForceNew,
		})
	})
	r.Register(ApplyNewCard, func(ctx context.Context, args map[string]any) (*domain.Result, error) {
		var a newCardArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		if err := required("card_type", a.CardType); err != nil {
			return nil, err
		}
		if err := required("brand", a.Brand); err != nil {
			return nil, err
		}
		return bank.ApplyNewCard(ctx, a.UserID, a.CardType, a.Brand)
	})
	r.Register(RetrieveKnowledge, func(ctx context.Context, args map[string]any) (*domain.Result, error) {
		var a knowledgeArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		if err := required("query", a.Query); err != nil {
			return nil, err
		}
		if a.TopK <= 0 {
			a.TopK = defaultKnowledgeK
		}
		return bank.SearchKnowledge(ctx, a.Query, a.TopK)
	})
}
