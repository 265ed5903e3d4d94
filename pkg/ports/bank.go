package ports

import (
	"context"

	"github.com/aretw0/teller/pkg/domain"
)

// LoanRequest carries the loan slots known so far.
type LoanRequest struct {
	Amount   *float64
	Purpose  *string
	Income   *float64
	ForceNew bool
}

// Bank is the data-access API consumed by the dialogue engine.
// Business outcomes come back as tagged results; a returned error means
// the store itself failed.
type Bank interface {
	UserCards(ctx context.Context, userID string) (*domain.Result, error)
	CardsOverview(ctx context.Context, userID string) (*domain.Result, error)
	BlockCard(ctx context.Context, userID, cardID string) (*domain.Result, error)
	AccountBalance(ctx context.Context, userID string) (*domain.Result, error)
	MiniStatement(ctx context.Context, userID string) (*domain.Result, error)
	ApplyForLoan(ctx context.Context, userID string, req LoanRequest) (*domain.Result, error)
	LoanStatus(ctx context.Context, userID string) (*domain.Result, error)
	CardManagementOptions(ctx context.Context, userID string) (*domain.Result, error)
	NewCardTypeOptions(ctx context.Context, userID string) (*domain.Result, error)
	CardBrandOptions(ctx context.Context, userID, cardType string) (*domain.Result, error)
	ApplyNewCard(ctx context.Context, userID, cardType, brand string) (*domain.Result, error)
	LimitModificationCards(ctx context.Context, userID string) (*domain.Result, error)
	LimitInfo(ctx context.Context, userID, cardID string) (*domain.Result, error)
	ModifyCreditLimit(ctx context.Context, userID, cardID string, newLimit float64) (*domain.Result, error)
	AccountDetails(ctx context.Context, userID string) (*domain.Result, error)
	SearchKnowledge(ctx context.Context, query string, topK int) (*domain.Result, error)
	UserProfile(ctx context.Context, userID string) (*domain.User, error)
	UserData(ctx context.Context, userID string) (*domain.UserData, error)
}

// BankRepository is the relational storage behind the Bank.
type BankRepository interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	PutUser(ctx context.Context, user domain.User) error

	ListCards(ctx context.Context, userID string) ([]domain.Card, error)
	GetCard(ctx context.Context, cardID string) (*domain.Card, error)
	PutCard(ctx context.Context, card domain.Card) error

	ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	PutTransaction(ctx context.Context, txn domain.Transaction) error

	ListLoans(ctx context.Context, userID string) ([]domain.LoanApplication, error)
	PutLoan(ctx context.Context, loan domain.LoanApplication) error

	ListCardApplications(ctx context.Context, userID string) ([]domain.CardApplication, error)
	PutCardApplication(ctx context.Context, app domain.CardApplication) error
}
