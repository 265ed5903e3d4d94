package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/teller/pkg/adapters/memory"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
	"github.com/aretw0/teller/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke lost updates if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.SessionState, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func TestManager_UpdateIsSerialized(t *testing.T) {
	store := slowStore{memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithSession(ctx, id, func(tx *session.Tx) error {
				s := tx.State()
				topics := append([]string{}, s.ActiveTopics...)
				topics = append(topics, "t")
				return tx.Update(domain.Patch{ActiveTopics: domain.Set(topics)})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.ActiveTopics, 20, "every read-modify-write must see the previous one")
}

func TestManager_UpdateMerges(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	proc := domain.NewLoanProcess(domain.LoanData{Amount: domain.Ptr(15000.0)})

	_, err := manager.Update(ctx, "s1", domain.Patch{MultiStepProcess: domain.Set(proc)})
	require.NoError(t, err)
	state, err := manager.Update(ctx, "s1", domain.Patch{LastToolUsed: domain.Set("get_account_balance")})
	require.NoError(t, err)

	require.NotNil(t, state.MultiStepProcess)
	assert.Equal(t, domain.StepPurpose, state.MultiStepProcess.CurrentStep)
	assert.Equal(t, "get_account_balance", state.LastToolUsed)
}

func TestManager_TxReadsPersistedDocument(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()

	err := manager.WithSession(ctx, "s2", func(tx *session.Tx) error {
		// A write made behind the transaction's back must survive the next update.
		require.NoError(t, store.Save(ctx, "s2", &domain.SessionState{LastContextSwitch: "balance"}))
		return tx.Update(domain.Patch{ContextSwitched: domain.Set(true)})
	})
	require.NoError(t, err)

	state, err := manager.Load(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, state.ContextSwitched)
	assert.Equal(t, "balance", state.LastContextSwitch)
}

func TestManager_LoadOrStart(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	state, err := manager.LoadOrStart(ctx, "fresh")
	require.NoError(t, err)
	assert.Nil(t, state.MultiStepProcess)

	_, err = manager.Load(ctx, "fresh")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "an empty session is not persisted until written")
}

func TestTx_Touch(t *testing.T) {
	now := time.Date(2025, 7, 27, 9, 0, 0, 0, time.UTC)
	manager := session.NewManager(memory.NewStore(), session.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	err := manager.WithSession(ctx, "quiet", func(tx *session.Tx) error { return tx.Touch() })
	require.NoError(t, err)

	state, err := manager.Load(ctx, "quiet")
	require.NoError(t, err)
	assert.Equal(t, now, state.UpdatedAt)

	later := now.Add(time.Hour)
	err = manager.WithSession(ctx, "quiet", func(tx *session.Tx) error {
		now = later
		require.NoError(t, tx.Update(domain.Patch{LastToolUsed: domain.Set("get_user_cards")}))
		return tx.Touch()
	})
	require.NoError(t, err)

	state, err = manager.Load(ctx, "quiet")
	require.NoError(t, err)
	assert.Equal(t, later, state.UpdatedAt)
	assert.Equal(t, "get_user_cards", state.LastToolUsed)
}

func TestManager_Prune(t *testing.T) {
	now := time.Date(2025, 7, 27, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	manager := session.NewManager(store, session.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", &domain.SessionState{UpdatedAt: now.AddDate(0, 0, -40)}))
	require.NoError(t, store.Save(ctx, "new", &domain.SessionState{UpdatedAt: now.AddDate(0, 0, -1)}))

	pruned, err := manager.Prune(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, pruned)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}

type listOnlyStore struct{ ports.StateStore }

func TestManager_PruneUnsupported(t *testing.T) {
	manager := session.NewManager(listOnlyStore{memory.NewStore()})
	_, err := manager.Prune(context.Background(), time.Hour)
	assert.ErrorIs(t, err, session.ErrPruneUnsupported)
}

type failingLocker struct{}

func (failingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("redis down")
}

func TestManager_DistributedLockFailure(t *testing.T) {
	manager := session.NewManager(memory.NewStore(), session.WithLocker(failingLocker{}))
	called := false
	err := manager.WithSession(context.Background(), "s", func(tx *session.Tx) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}
