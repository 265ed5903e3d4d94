package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/teller/pkg/domain"
)

// Save upserts the state document.
func (s *DB) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	query := `
	INSERT INTO session_states (session_id, state_json, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		state_json = excluded.state_json,
		updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, sessionID, string(data), toMicro(updated)); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

// Load reads the state document.
func (s *DB) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM session_states WHERE session_id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var state domain.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &state, nil
}

// Delete removes the state document.
func (s *DB) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_states WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// List returns session IDs, most recently updated first.
func (s *DB) List(ctx context.Context) ([]string, error) {
	return s.sessionIDs(ctx, `SELECT session_id FROM session_states ORDER BY updated_at DESC, session_id`)
}

// Prune deletes sessions updated before the cutoff.
func (s *DB) Prune(ctx context.Context, before time.Time) ([]string, error) {
	ids, err := s.sessionIDs(ctx,
		`SELECT session_id FROM session_states WHERE updated_at < ? ORDER BY session_id`, toMicro(before))
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_states WHERE updated_at < ?`, toMicro(before)); err != nil {
		return nil, fmt.Errorf("prune sessions: %w", err)
	}
	return ids, nil
}

func (s *DB) sessionIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
