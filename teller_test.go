package teller_test

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/aretw0/teller"
	"github.com/aretw0/teller/pkg/adapters/memory"
	"github.com/aretw0/teller/pkg/bank"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssistant(t *testing.T, now *time.Time) (*teller.Assistant, *memory.History) {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return *now }

	repo := memory.NewBankRepository()
	require.NoError(t, bank.Seed(ctx, repo, *now))
	history := memory.NewHistory()
	a := teller.New(bank.New(repo, bank.WithClock(clock)), memory.NewStore(), history,
		teller.WithClock(clock),
		teller.WithMetrics(observability.NewMetrics()),
	)
	return a, history
}

func TestAssistant_TurnsAndHistory(t *testing.T) {
	now := time.Date(2025, 7, 28, 10, 0, 0, 0, time.UTC)
	a, _ := newAssistant(t, &now)
	ctx := context.Background()

	resp, err := a.ProcessTurn(ctx, bank.DemoUserID, "s1", "what's my balance?")
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "$28,750.50")
	require.NotNil(t, resp.State)

	_, err = a.ProcessTurn(ctx, bank.DemoUserID, "s1", "I need a loan")
	require.NoError(t, err)

	turns, mem, err := a.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "what's my balance?", turns[0].User)
	assert.Contains(t, mem.TopicsDiscussed, "account")
	assert.Contains(t, mem.TopicsDiscussed, "loan")

	state, err := a.Session(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.MultiStepProcess.Is(domain.ProcessLoan))

	ids, err := a.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestAssistant_DeleteSessionPurgesHistory(t *testing.T) {
	now := time.Date(2025, 7, 28, 10, 0, 0, 0, time.UTC)
	a, history := newAssistant(t, &now)
	ctx := context.Background()

	_, err := a.ProcessTurn(ctx, bank.DemoUserID, "s1", "show my cards")
	require.NoError(t, err)

	require.NoError(t, a.DeleteSession(ctx, "s1"))

	_, err = a.Session(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	turns, err := history.Recent(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAssistant_PruneIdleSessions(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	a, history := newAssistant(t, &now)
	ctx := context.Background()

	_, err := a.ProcessTurn(ctx, bank.DemoUserID, "old", "hello")
	require.NoError(t, err)

	now = now.AddDate(0, 0, 40)
	_, err = a.ProcessTurn(ctx, bank.DemoUserID, "fresh", "hello")
	require.NoError(t, err)

	pruned, err := a.Prune(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, pruned)

	turns, err := history.Recent(ctx, "old", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)

	ids, err := a.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)
}

func TestAssistant_UserData(t *testing.T) {
	now := time.Date(2025, 7, 28, 10, 0, 0, 0, time.UTC)
	a, _ := newAssistant(t, &now)

	data, err := a.UserData(context.Background(), bank.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", data.User.Name)
	assert.Len(t, data.Cards, 5)
	assert.NotNil(t, a.Metrics())

	_, err = a.UserData(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func ExampleAssistant_ProcessTurn() {
	ctx := context.Background()
	repo := memory.NewBankRepository()
	if err := bank.Seed(ctx, repo, time.Now()); err != nil {
		log.Fatal(err)
	}
	a := teller.New(bank.New(repo), memory.NewStore(), memory.NewHistory())

	resp, err := a.ProcessTurn(ctx, bank.DemoUserID, "session-123", "block my card")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.RequiresSelection, len(resp.Options))
	// Output: true 5
}
