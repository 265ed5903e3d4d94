package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
)

// DefaultPIIKeys match the customer identifiers found in banking tool results.
var DefaultPIIKeys = []string{`^card_number$`, `^account_number$`, `^email$`, `^phone$`}

const mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks, in the stored copy of
// the last tool result, the values of keys matching the patterns.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	if len(state.LastToolResult) == 0 {
		return m.next.Save(ctx, sessionID, state)
	}

	var decoded any
	if err := json.Unmarshal(state.LastToolResult, &decoded); err != nil {
		return fmt.Errorf("failed to read tool result for masking: %w", err)
	}
	masked, err := json.Marshal(maskValue(decoded, m.patterns))
	if err != nil {
		return fmt.Errorf("failed to encode masked tool result: %w", err)
	}

	// Copy so the caller's document keeps the real values.
	cloned := *state
	cloned.LastToolResult = masked
	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) Prune(ctx context.Context, before time.Time) ([]string, error) {
	return prune(ctx, m.next, before)
}

// maskValue walks decoded JSON and replaces values under matching keys.
func maskValue(v any, patterns []*regexp.Regexp) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if matchesAny(k, patterns) {
				t[k] = mask
				continue
			}
			t[k] = maskValue(child, patterns)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = maskValue(child, patterns)
		}
		return t
	}
	return v
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
