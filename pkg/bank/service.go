// Package bank is the banking data-access API behind the dialogue engine.
//
// Every operation returns a tagged domain.Result: business outcomes such as
// an unknown user or an out-of-range limit are results with status error,
// while a returned Go error means the repository itself failed.
package bank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aretw0/teller/internal/logging"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
)

// Service implements ports.Bank over a ports.BankRepository.
type Service struct {
	repo   ports.BankRepository
	now    func() time.Time
	logger *slog.Logger
	kb     *Knowledge

	// mu serializes read-modify-write operations on the repository.
	mu  sync.Mutex
	rng *rand.Rand
}

var _ ports.Bank = (*Service)(nil)

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the generator used for new card numbers.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// WithLogger configures a logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithKnowledge replaces the default knowledge base documents.
func WithKnowledge(docs []string) Option {
	return func(s *Service) { s.kb = NewKnowledge(docs) }
}

// New creates a Service.
func New(repo ports.BankRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(s.now().UnixNano()), 0x7e11e4))
	}
	if s.kb == nil {
		s.kb = NewKnowledge(DefaultKnowledge)
	}
	return s
}

// user loads a user, mapping absence to a tagged result.
func (s *Service) user(ctx context.Context, userID string) (*domain.User, *domain.Result, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.Failure("User not found"), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return u, nil, nil
}

// ownedCard loads a card and checks that it belongs to userID.
func (s *Service) ownedCard(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	c, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, errUnauthorized
	}
	return c, nil
}

var errUnauthorized = errors.New("unauthorized access to card")

// UserProfile returns the stored profile.
func (s *Service) UserProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetUser(ctx, userID)
}

// UserData dumps the user's records for diagnostics.
func (s *Service) UserData(ctx context.Context, userID string) (*domain.UserData, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	cards, err := s.repo.ListCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	loans, err := s.repo.ListLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	txns, err := s.repo.ListTransactions(ctx, userID, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return &domain.UserData{User: *u, Cards: cards, Loans: loans, RecentTransactions: txns}, nil
}

// SearchKnowledge ranks the knowledge base against query.
func (s *Service) SearchKnowledge(ctx context.Context, query string, topK int) (*domain.Result, error) {
	hits := s.kb.Search(query, topK)
	if len(hits.Results) == 0 {
		return &domain.Result{
			Status:  domain.StatusNoResults,
			Message: "No relevant information found in the knowledge base.",
		}, nil
	}
	return domain.Success(hits.Summary, hits), nil
}
