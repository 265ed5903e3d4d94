package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
)

// Tx is exclusive access to one session document for the length of a turn.
// Every write reads the persisted document, merges the patch and saves it.
type Tx struct {
	ctx   context.Context
	id    string
	store ports.StateStore
	now   func() time.Time
	state domain.SessionState

	written bool
}

// ID returns the session ID.
func (t *Tx) ID() string { return t.id }

// Context returns the context the transaction runs under.
func (t *Tx) Context() context.Context { return t.ctx }

// State returns the document as of the last write.
func (t *Tx) State() domain.SessionState { return t.state }

// Update merges patch over the persisted document and saves the result.
func (t *Tx) Update(patch domain.Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	current, err := t.store.Load(t.ctx, t.id)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		current = domain.NewSessionState()
	case err != nil:
		return fmt.Errorf("failed to read session %s: %w", t.id, err)
	}
	merged := current.Merge(patch, t.now())
	if err := t.store.Save(t.ctx, t.id, &merged); err != nil {
		return fmt.Errorf("failed to save session %s: %w", t.id, err)
	}
	t.state = merged
	t.written = true
	return nil
}

// Touch stamps the document with the current time unless the turn already
// wrote it, so idle tracking sees turns that changed nothing.
func (t *Tx) Touch() error {
	if t.written {
		return nil
	}
	stamped := t.state
	stamped.UpdatedAt = t.now()
	if err := t.store.Save(t.ctx, t.id, &stamped); err != nil {
		return fmt.Errorf("failed to save session %s: %w", t.id, err)
	}
	t.state = stamped
	t.written = true
	return nil
}
