package bank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
)

// DemoUserID is the account created by Seed.
const DemoUserID = "user123"

// Seed loads the demo customer unless it already exists.
func Seed(ctx context.Context, repo ports.BankRepository, now time.Time) error {
	_, err := repo.GetUser(ctx, DemoUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("failed to check demo user: %w", err)
	}

	if err := repo.PutUser(ctx, domain.User{
		ID:                  DemoUserID,
		Name:                "John Doe",
		Email:               "john.doe@email.com",
		Phone:               "+1-555-0123",
		AccountNumber:       "ACC-2025-001",
		AccountType:         "Premium Checking",
		Balance:             28750.50,
		AvailableBalance:    28750.50,
		PendingTransactions: 125.75,
		CreatedAt:           now,
		UpdatedAt:           now,
	}); err != nil {
		return fmt.Errorf("failed to seed user: %w", err)
	}

	blockedAt := now
	cards := []domain.Card{
		{ID: "card_001", Type: domain.CardCredit, LastFour: "1234", Status: domain.CardActive,
			Limit: domain.Ptr(15000.0), AvailableCredit: domain.Ptr(12500.0), Brand: "Visa Platinum", Expiry: "12/2028", AnnualFee: 95},
		{ID: "card_002", Type: domain.CardDebit, LastFour: "5678", Status: domain.CardActive,
			DailyLimit: domain.Ptr(2500.0), Brand: "Mastercard", Expiry: "08/2027"},
		{ID: "card_003", Type: domain.CardCredit, LastFour: "9012", Status: domain.CardActive,
			Limit: domain.Ptr(25000.0), AvailableCredit: domain.Ptr(18750.0), Brand: "American Express Gold", Expiry: "06/2029", AnnualFee: 250},
		{ID: "card_004", Type: domain.CardDebit, LastFour: "3456", Status: domain.CardActive,
			DailyLimit: domain.Ptr(5000.0), Brand: "Visa", Expiry: "03/2028"},
		{ID: "card_005", Type: domain.CardCredit, LastFour: "7890", Status: domain.CardBlocked,
			Limit: domain.Ptr(10000.0), AvailableCredit: domain.Ptr(8500.0), Brand: "Visa Classic", Expiry: "11/2026",
			BlockedDate: &blockedAt, BlockedReason: "Lost card - replaced"},
	}
	for i, c := range cards {
		c.UserID = DemoUserID
		c.Number = "****-****-****-" + c.LastFour
		// Creation order drives listing order.
		c.CreatedAt = now.Add(time.Duration(i) * time.Second)
		if err := repo.PutCard(ctx, c); err != nil {
			return fmt.Errorf("failed to seed card %s: %w", c.ID, err)
		}
	}

	txns := []domain.Transaction{
		{ID: "TXN001", Date: "2025-07-27", Description: "Starbucks Coffee", Amount: -8.45, Category: "Food & Dining", CardUsed: "****1234"},
		{ID: "TXN002", Date: "2025-07-26", Description: "Amazon Purchase", Amount: -156.99, Category: "Shopping", CardUsed: "****9012"},
		{ID: "TXN003", Date: "2025-07-25", Description: "Salary Deposit - TechCorp Inc", Amount: 4500.00, Category: "Income"},
		{ID: "TXN004", Date: "2025-07-24", Description: "Shell Gas Station", Amount: -65.20, Category: "Transportation", CardUsed: "****5678"},
		{ID: "TXN005", Date: "2025-07-23", Description: "Whole Foods Market", Amount: -234.67, Category: "Groceries", CardUsed: "****3456"},
		{ID: "TXN006", Date: "2025-07-22", Description: "Netflix Subscription", Amount: -15.99, Category: "Entertainment", CardUsed: "****1234"},
		{ID: "TXN007", Date: "2025-07-21", Description: "ATM Withdrawal", Amount: -200.00, Category: "Cash Withdrawal", Location: "Main Street ATM"},
		{ID: "TXN008", Date: "2025-07-20", Description: "Electric Bill Payment", Amount: -148.50, Category: "Utilities"},
	}
	for _, t := range txns {
		t.UserID = DemoUserID
		t.Status = "completed"
		t.CreatedAt = now
		if err := repo.PutTransaction(ctx, t); err != nil {
			return fmt.Errorf("failed to seed transaction %s: %w", t.ID, err)
		}
	}

	if err := repo.PutLoan(ctx, domain.LoanApplication{
		ID:             "LOAN001",
		UserID:         DemoUserID,
		Amount:         25000,
		Purpose:        "Home Renovation",
		Status:         domain.LoanApproved,
		InterestRate:   5.2,
		TermMonths:     60,
		MonthlyPayment: domain.Ptr(471.78),
		AppliedDate:    "2025-06-15",
		ApprovedDate:   "2025-06-22",
		CreatedAt:      now,
	}); err != nil {
		return fmt.Errorf("failed to seed loan: %w", err)
	}
	return nil
}
