package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/teller/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// History implements ports.HistoryLog with one Redis list per session.
type History struct {
	client *backend.Client
	prefix string
}

// NewHistory creates a transcript log. Keys are prefix+"history:"+sessionID.
func NewHistory(client *backend.Client, prefix string) *History {
	if prefix == "" {
		prefix = "teller:"
	}
	return &History{client: client, prefix: prefix}
}

func (h *History) key(sessionID string) string {
	return h.prefix + "history:" + sessionID
}

// Append pushes the turn to the tail of the list.
func (h *History) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}
	if err := h.client.RPush(ctx, h.key(sessionID), data).Err(); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// Recent reads the tail of the list, oldest first.
func (h *History) Recent(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := h.client.LRange(ctx, h.key(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	turns := make([]domain.Turn, 0, len(raw))
	for _, r := range raw {
		var t domain.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Purge deletes the list.
func (h *History) Purge(ctx context.Context, sessionID string) error {
	return h.client.Del(ctx, h.key(sessionID)).Err()
}
