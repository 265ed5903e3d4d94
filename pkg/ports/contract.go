package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		amount := 15000.0
		state := &domain.SessionState{
			MultiStepProcess: domain.NewLoanProcess(domain.LoanData{Amount: &amount}),
			PendingAction: &domain.PendingSelection{
				Tool:        "block_card",
				Options:     []domain.Option{{ID: "card_001", Text: "Credit Card ending in 1234 - active"}},
				ProcessType: domain.SelectCardBlocking,
			},
			LastToolUsed: "get_user_cards",
		}

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.NotNil(t, loaded.MultiStepProcess)
		assert.Equal(t, domain.StepPurpose, loaded.MultiStepProcess.CurrentStep)
		assert.Equal(t, amount, *loaded.MultiStepProcess.Loan.Amount)
		assert.Nil(t, loaded.MultiStepProcess.Loan.Purpose)
		assert.Equal(t, state.PendingAction, loaded.PendingAction)
		assert.Equal(t, "get_user_cards", loaded.LastToolUsed)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSessionState())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSessionState())
		_ = store.Save(ctx, id2, domain.NewSessionState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunHistoryLogContract verifies the ordering and isolation rules of a HistoryLog.
func RunHistoryLogContract(t *testing.T, log HistoryLog) {
	ctx := context.Background()
	sessionID := "contract-history-" + time.Now().Format("20060102150405")
	base := time.Date(2025, 7, 27, 9, 0, 0, 0, time.UTC)

	t.Run("Append and Recent", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			err := log.Append(ctx, sessionID, domain.Turn{
				User:      fmt.Sprintf("message %d", i),
				Assistant: fmt.Sprintf("reply %d", i),
				Timestamp: base.Add(time.Duration(i) * time.Second),
				Topics:    []string{"account"},
				Urgency:   domain.UrgencyNormal,
			})
			require.NoError(t, err)
		}

		turns, err := log.Recent(ctx, sessionID, 3)
		require.NoError(t, err)
		require.Len(t, turns, 3)
		assert.Equal(t, "message 2", turns[0].User, "window keeps the latest turns")
		assert.Equal(t, "message 4", turns[2].User, "turns come back oldest first")
		assert.Equal(t, []string{"account"}, turns[2].Topics)
		assert.Equal(t, domain.UrgencyNormal, turns[2].Urgency)

		all, err := log.Recent(ctx, sessionID, 0)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("Sessions Are Isolated", func(t *testing.T) {
		turns, err := log.Recent(ctx, "other-"+sessionID, 10)
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("Purge", func(t *testing.T) {
		require.NoError(t, log.Purge(ctx, sessionID))
		turns, err := log.Recent(ctx, sessionID, 10)
		require.NoError(t, err)
		assert.Empty(t, turns)
	})
}

// RunBankRepositoryContract verifies the read/write rules of a BankRepository.
func RunBankRepositoryContract(t *testing.T, repo BankRepository) {
	ctx := context.Background()
	userID := "contract-user"
	limit := 5000.0
	avail := 4000.0

	t.Run("User", func(t *testing.T) {
		_, err := repo.GetUser(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		require.NoError(t, repo.PutUser(ctx, domain.User{ID: userID, Name: "Ada", Balance: 10}))
		u, err := repo.GetUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", u.Name)

		require.NoError(t, repo.PutUser(ctx, domain.User{ID: userID, Name: "Ada", Balance: 20}))
		u, err = repo.GetUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 20.0, u.Balance, "put is an upsert")
	})

	t.Run("Cards", func(t *testing.T) {
		_, err := repo.GetCard(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrCardNotFound)

		require.NoError(t, repo.PutCard(ctx, domain.Card{
			ID: "c1", UserID: userID, Type: domain.CardCredit, LastFour: "1111",
			Status: domain.CardActive, Limit: &limit, AvailableCredit: &avail, Brand: "Visa",
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}))
		require.NoError(t, repo.PutCard(ctx, domain.Card{
			ID: "c2", UserID: userID, Type: domain.CardDebit, LastFour: "2222",
			Status: domain.CardActive, Brand: "Mastercard",
			CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		}))

		cards, err := repo.ListCards(ctx, userID)
		require.NoError(t, err)
		require.Len(t, cards, 2)
		assert.Equal(t, "c1", cards[0].ID, "cards are listed in creation order")

		c, err := repo.GetCard(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, limit, *c.Limit)
		assert.Nil(t, c.DailyLimit)
		assert.Nil(t, c.BlockedDate)
	})

	t.Run("Transactions Newest First", func(t *testing.T) {
		for i, date := range []string{"2025-07-20", "2025-07-22", "2025-07-21"} {
			require.NoError(t, repo.PutTransaction(ctx, domain.Transaction{
				ID: fmt.Sprintf("T%d", i), UserID: userID, Date: date, Amount: -1, Status: "completed",
			}))
		}
		txns, err := repo.ListTransactions(ctx, userID, 2)
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, "2025-07-22", txns[0].Date)
		assert.Equal(t, "2025-07-21", txns[1].Date)
	})

	t.Run("Loans and Card Applications", func(t *testing.T) {
		require.NoError(t, repo.PutLoan(ctx, domain.LoanApplication{
			ID: "L1", UserID: userID, Amount: 1000, Purpose: "Education", Status: domain.LoanInReview,
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}))
		require.NoError(t, repo.PutLoan(ctx, domain.LoanApplication{
			ID: "L2", UserID: userID, Amount: 2000, Purpose: "Business", Status: domain.LoanInReview,
			CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		}))
		loans, err := repo.ListLoans(ctx, userID)
		require.NoError(t, err)
		require.Len(t, loans, 2)
		assert.Equal(t, "L2", loans[0].ID, "loans are listed newest first")

		require.NoError(t, repo.PutCardApplication(ctx, domain.CardApplication{
			ID: "A1", UserID: userID, Type: domain.CardCredit, Brand: "Visa", Status: "approved",
		}))
		apps, err := repo.ListCardApplications(ctx, userID)
		require.NoError(t, err)
		require.Len(t, apps, 1)
		assert.Equal(t, "Visa", apps[0].Brand)
	})
}
