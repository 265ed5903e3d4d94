package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/teller/pkg/domain"
)

// Store implements ports.StateStore using the local filesystem.
// It stores sessions as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".teller/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".teller", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.BasePath, sessionID+".json")
}

// Save persists the session state to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return writeAtomic(s.BasePath, s.path(sessionID), "tmp-"+sessionID+"-*.json", data)
}

// writeAtomic replaces dest with data through a temp file in dir.
// The temp file must live on the same filesystem for the rename to be atomic.
func writeAtomic(dir, dest, pattern string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows if dest exists.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to remove existing file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load retrieves the session state from a JSON file.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	err := os.Remove(s.path(sessionID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all stored session IDs, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].updated.After(entries[j].updated)
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, nil
}

// Prune deletes sessions last updated before the cutoff.
func (s *Store) Prune(ctx context.Context, before time.Time) ([]string, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	var pruned []string
	for _, e := range entries {
		if !e.updated.Before(before) {
			continue
		}
		if err := s.Delete(ctx, e.id); err != nil {
			return pruned, err
		}
		pruned = append(pruned, e.id)
	}
	return pruned, nil
}

type entry struct {
	id      string
	updated time.Time
}

// entries reads each session's UpdatedAt, falling back to the file mtime.
func (s *Store) entries(ctx context.Context) ([]entry, error) {
	dirEntries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []entry{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := []entry{}
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		e := entry{id: strings.TrimSuffix(name, ".json")}
		if state, err := s.Load(ctx, e.id); err == nil && !state.UpdatedAt.IsZero() {
			e.updated = state.UpdatedAt
		} else if info, err := de.Info(); err == nil {
			e.updated = info.ModTime()
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out, nil
}
