// Package openai implements ports.Completer against any OpenAI-compatible
// chat completions endpoint (OpenAI, Groq, local gateways).
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/teller/internal/logging"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

// Config selects the endpoint and the sampling parameters.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	TopP        float32
	// Timeout bounds each HTTP call. Zero keeps the client default.
	Timeout time.Duration
}

// DefaultConfig returns the parameters tuned for banking conversations.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Temperature: 0.3,
		MaxTokens:   1024,
		TopP:        0.9,
	}
}

// Completer calls a chat completions endpoint.
type Completer struct {
	client *goopenai.Client
	cfg    Config
	logger *slog.Logger
}

var _ ports.Completer = (*Completer)(nil)

// Option configures the Completer.
type Option func(*Completer)

// WithLogger configures a logger for the Completer.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Completer) { c.logger = logger }
}

// New creates a Completer. Empty fields of cfg take their defaults.
func New(cfg Config, opts ...Option) *Completer {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.TopP == 0 {
		cfg.TopP = def.TopP
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Completer{
		client: goopenai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends one system+user exchange and returns either the text or the
// first tool call.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	var messages []goopenai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		TopP:        c.cfg.TopP,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toolDefinitions(req.Tools)
		chatReq.ToolChoice = "auto"
	}

	c.logger.Debug("Requesting completion", "model", c.cfg.Model, "tools", len(req.Tools))
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, domain.ErrEmptyCompletion
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return domain.Completion{Text: msg.Content}, nil
	}

	call := msg.ToolCalls[0]
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return domain.Completion{}, fmt.Errorf("failed to decode arguments of tool %s: %w", call.Function.Name, err)
		}
	}
	c.logger.Debug("Model requested tool", "tool", call.Function.Name)
	return domain.Completion{ToolCall: &domain.ToolCall{ID: call.ID, Name: call.Function.Name, Args: args}}, nil
}

func toolDefinitions(tools []domain.Tool) []goopenai.Tool {
	out := make([]goopenai.Tool, len(tools))
	for i, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out[i] = goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		}
	}
	return out
}
