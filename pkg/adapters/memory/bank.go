package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/teller/pkg/domain"
)

// BankRepository implements ports.BankRepository in memory.
type BankRepository struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	cards    map[string]domain.Card
	txns     map[string]domain.Transaction
	loans    map[string]domain.LoanApplication
	cardApps map[string]domain.CardApplication
}

// NewBankRepository creates an empty repository.
func NewBankRepository() *BankRepository {
	return &BankRepository{
		users:    make(map[string]domain.User),
		cards:    make(map[string]domain.Card),
		txns:     make(map[string]domain.Transaction),
		loans:    make(map[string]domain.LoanApplication),
		cardApps: make(map[string]domain.CardApplication),
	}
}

func (r *BankRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *BankRepository) PutUser(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

// ListCards returns the user's cards in creation order.
func (r *BankRepository) ListCards(ctx context.Context, userID string) ([]domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Card
	for _, c := range r.cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *BankRepository) GetCard(ctx context.Context, cardID string) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cards[cardID]
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	return &c, nil
}

func (r *BankRepository) PutCard(ctx context.Context, card domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[card.ID] = card
	return nil
}

// ListTransactions returns up to limit transactions, newest date first.
func (r *BankRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for _, t := range r.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *BankRepository) PutTransaction(ctx context.Context, txn domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns[txn.ID] = txn
	return nil
}

// ListLoans returns the user's loan applications, newest first.
func (r *BankRepository) ListLoans(ctx context.Context, userID string) ([]domain.LoanApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.LoanApplication
	for _, l := range r.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *BankRepository) PutLoan(ctx context.Context, loan domain.LoanApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[loan.ID] = loan
	return nil
}

// ListCardApplications returns the user's card applications, newest first.
func (r *BankRepository) ListCardApplications(ctx context.Context, userID string) ([]domain.CardApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.CardApplication
	for _, a := range r.cardApps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *BankRepository) PutCardApplication(ctx context.Context, app domain.CardApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cardApps[app.ID] = app
	return nil
}
