package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/teller/pkg/domain"
)

// History implements ports.HistoryLog as one JSON Lines file per session.
type History struct {
	BasePath string
	mu       sync.Mutex
}

// NewHistory creates a transcript log under basePath
// (default ".teller/history").
func NewHistory(basePath string) *History {
	if basePath == "" {
		basePath = filepath.Join(".teller", "history")
	}
	return &History{BasePath: basePath}
}

func (h *History) path(sessionID string) string {
	return filepath.Join(h.BasePath, sessionID+".jsonl")
}

// Append writes the turn as a single line at the end of the file.
func (h *History) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	line, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(h.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure history directory: %w", err)
	}
	f, err := os.OpenFile(h.path(sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return f.Sync()
}

// Recent returns the last limit turns, oldest first.
func (h *History) Recent(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Turn{}, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	turns := []domain.Turn{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var t domain.Turn
		if err := json.Unmarshal(scanner.Bytes(), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// Purge removes the session's file.
func (h *History) Purge(ctx context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := os.Remove(h.path(sessionID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete history file: %w", err)
	}
	return nil
}
