package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/teller/pkg/domain"
)

// Append inserts a transcript row.
func (s *DB) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	topics, err := json.Marshal(turn.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	query := `
	INSERT INTO conversation_history (session_id, user_message, assistant_response, timestamp, topics, urgency)
	VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		sessionID, turn.User, turn.Assistant, toMicro(turn.Timestamp), string(topics), string(turn.Urgency))
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Recent returns the latest limit turns, oldest first.
func (s *DB) Recent(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
	SELECT user_message, assistant_response, timestamp, topics, urgency
	FROM conversation_history WHERE session_id = ?
	ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	turns := []domain.Turn{}
	for rows.Next() {
		var (
			t       domain.Turn
			ts      int64
			topics  string
			urgency string
		)
		if err := rows.Scan(&t.User, &t.Assistant, &ts, &topics, &urgency); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		t.Timestamp = fromMicro(ts)
		t.Urgency = domain.Urgency(urgency)
		if topics != "" {
			if err := json.Unmarshal([]byte(topics), &t.Topics); err != nil {
				return nil, fmt.Errorf("unmarshal topics: %w", err)
			}
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Purge deletes the session's transcript.
func (s *DB) Purge(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversation_history WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	return nil
}
