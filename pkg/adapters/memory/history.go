package memory

import (
	"context"
	"sync"

	"github.com/aretw0/teller/pkg/domain"
)

// History implements ports.HistoryLog in memory.
type History struct {
	mu    sync.RWMutex
	turns map[string][]domain.Turn
}

// NewHistory creates an empty transcript log.
func NewHistory() *History {
	return &History{turns: make(map[string][]domain.Turn)}
}

// Append adds a turn to the end of the transcript.
func (h *History) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	turn.Topics = append([]string(nil), turn.Topics...)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns[sessionID] = append(h.turns[sessionID], turn)
	return nil
}

// Recent returns the latest turns, oldest first.
func (h *History) Recent(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := h.turns[sessionID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]domain.Turn, len(all))
	copy(out, all)
	return out, nil
}

// Purge drops the transcript.
func (h *History) Purge(ctx context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, sessionID)
	return nil
}
