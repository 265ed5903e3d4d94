package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/teller/pkg/adapters/sqlite"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.StateStore     = (*sqlite.DB)(nil)
	_ ports.Pruner         = (*sqlite.DB)(nil)
	_ ports.HistoryLog     = (*sqlite.DB)(nil)
	_ ports.BankRepository = (*sqlite.DB)(nil)
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "data", "teller.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLite_StateStoreContract(t *testing.T) {
	ports.RunStateStoreContract(t, openDB(t))
}

func TestSQLite_HistoryLogContract(t *testing.T) {
	ports.RunHistoryLogContract(t, openDB(t))
}

func TestSQLite_BankRepositoryContract(t *testing.T) {
	ports.RunBankRepositoryContract(t, openDB(t))
}

func TestSQLite_Prune(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	now := time.Date(2025, 7, 27, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.Save(ctx, "old", &domain.SessionState{UpdatedAt: now.AddDate(0, 0, -31)}))
	require.NoError(t, db.Save(ctx, "new", &domain.SessionState{UpdatedAt: now}))

	pruned, err := db.Prune(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, pruned)

	ids, err := db.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}

func TestSQLite_BlockedCardRoundTrip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	blocked := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, db.PutCard(ctx, domain.Card{
		ID: "card_005", UserID: "u", Type: domain.CardCredit, LastFour: "7890",
		Status: domain.CardActive, Limit: domain.Ptr(10000.0), AvailableCredit: domain.Ptr(8500.0),
		Brand: "Visa Classic", CreatedAt: blocked,
	}))

	c, err := db.GetCard(ctx, "card_005")
	require.NoError(t, err)
	c.Status = domain.CardBlocked
	c.BlockedDate = &blocked
	c.BlockedReason = "Customer request"
	require.NoError(t, db.PutCard(ctx, *c))

	got, err := db.GetCard(ctx, "card_005")
	require.NoError(t, err)
	assert.Equal(t, domain.CardBlocked, got.Status)
	require.NotNil(t, got.BlockedDate)
	assert.True(t, blocked.Equal(*got.BlockedDate))
	assert.Equal(t, "Customer request", got.BlockedReason)
}
