package ports

import (
	"context"
	"time"

	"github.com/aretw0/teller/pkg/domain"
)

// StateStore persists the per-session state document.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.SessionState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}

// Pruner is implemented by stores that can drop idle sessions.
type Pruner interface {
	// Prune removes sessions not updated since before and returns their IDs.
	Prune(ctx context.Context, before time.Time) ([]string, error)
}
