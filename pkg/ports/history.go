package ports

import (
	"context"

	"github.com/aretw0/teller/pkg/domain"
)

// HistoryLog is the append-only transcript of each session.
type HistoryLog interface {
	// Append adds a turn to the end of the session transcript.
	Append(ctx context.Context, sessionID string, turn domain.Turn) error

	// Recent returns up to limit of the latest turns in chronological order.
	// A limit <= 0 returns the whole transcript.
	Recent(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error)

	// Purge drops the transcript of a session.
	Purge(ctx context.Context, sessionID string) error
}
