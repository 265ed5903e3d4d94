package bank

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/teller/pkg/domain"
)

const (
	timestampLayout   = "2006-01-02 15:04:05"
	statementSize     = 8
	overviewTxnSize   = 5
	statementCategory = "Food & Dining"
	statementLookback = 7
)

// AccountBalance summarizes the account and the user's credit lines.
func (s *Service) AccountBalance(ctx context.Context, userID string) (*domain.Result, error) {
	u, res, err := s.user(ctx, userID)
	if res != nil || err != nil {
		return res, err
	}
	cards, err := s.repo.ListCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	var credit domain.CreditSummary
	for _, c := range cards {
		if c.Type != domain.CardCredit || c.Limit == nil || *c.Limit == 0 {
			continue
		}
		credit.TotalLimit += *c.Limit
		credit.TotalAvailable += deref(c.AvailableCredit)
	}
	credit.UtilizationRate = "0%"
	if credit.TotalLimit != 0 {
		credit.UtilizationRate = fmt.Sprintf("%.1f%%",
			(credit.TotalLimit-credit.TotalAvailable)/credit.TotalLimit*100)
	}

	return domain.Success("", domain.BalanceSummary{
		AccountHolder:       u.Name,
		AccountNumber:       u.AccountNumber,
		AccountType:         u.AccountType,
		CurrentBalance:      u.Balance,
		AvailableBalance:    u.AvailableBalance,
		PendingTransactions: u.PendingTransactions,
		Currency:            "USD",
		LastUpdated:         s.now().Format(timestampLayout),
		CreditCards:         credit,
	}), nil
}

// MiniStatement returns the latest transactions with debit and credit totals.
func (s *Service) MiniStatement(ctx context.Context, userID string) (*domain.Result, error) {
	u, res, err := s.user(ctx, userID)
	if res != nil || err != nil {
		return res, err
	}
	txns, err := s.repo.ListTransactions(ctx, userID, statementSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	sum := domain.StatementSummary{
		TotalTransactions:    len(txns),
		MostFrequentCategory: statementCategory,
	}
	for _, t := range txns {
		switch {
		case t.Amount < 0:
			sum.TotalDebits += -t.Amount
		case t.Amount > 0:
			sum.TotalCredits += t.Amount
		}
		sum.LargestTransaction = math.Max(sum.LargestTransaction, math.Abs(t.Amount))
	}

	now := s.now()
	return domain.Success("", domain.Statement{
		AccountHolder:  u.Name,
		AccountNumber:  u.AccountNumber,
		Period:         now.AddDate(0, 0, -statementLookback).Format(dateLayout) + " to " + now.Format(dateLayout),
		Transactions:   txns,
		Summary:        sum,
		CurrentBalance: u.Balance,
	}), nil
}

// AccountDetails renders a complete picture of the user's relationship
// with the bank.
func (s *Service) AccountDetails(ctx context.Context, userID string) (*domain.Result, error) {
	u, res, err := s.user(ctx, userID)
	if res != nil || err != nil {
		return res, err
	}
	cards, err := s.repo.ListCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	loans, err := s.repo.ListLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	txns, err := s.repo.ListTransactions(ctx, userID, overviewTxnSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	apps, err := s.repo.ListCardApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card applications: %w", err)
	}

	var active, blocked, creditCount, debitCount int
	var totalLimit, totalAvail float64
	cardLines := make([]string, 0, len(cards))
	for _, c := range cards {
		icon := "🔴"
		if c.Status == domain.CardActive {
			icon = "🟢"
			active++
		} else if c.Status == domain.CardBlocked {
			blocked++
		}
		line := fmt.Sprintf("%s **%s %s** ending in %s - %s", icon, c.Brand, domain.Title(string(c.Type)), c.LastFour, domain.Title(string(c.Status)))
		switch c.Type {
		case domain.CardCredit:
			creditCount++
			totalLimit += deref(c.Limit)
			totalAvail += deref(c.AvailableCredit)
			if deref(c.Limit) != 0 {
				line += fmt.Sprintf("\n    Credit Limit: %s | Available: %s", domain.Money(*c.Limit), domain.Money(deref(c.AvailableCredit)))
			}
		case domain.CardDebit:
			debitCount++
			if deref(c.DailyLimit) != 0 {
				line += "\n    Daily Limit: " + domain.Money(*c.DailyLimit)
			}
		}
		cardLines = append(cardLines, line)
	}
	utilization := 0.0
	if totalLimit != 0 {
		utilization = (totalLimit - totalAvail) / totalLimit * 100
	}

	loanLines := make([]string, 0, len(loans))
	for _, l := range loans {
		icon := "📋"
		switch l.Status {
		case domain.LoanApproved:
			icon = "✅"
		case domain.LoanInReview:
			icon = "⏳"
		}
		line := fmt.Sprintf("%s **%s**: %s for %s\n    Status: %s", icon, l.ID, domain.Money(l.Amount), l.Purpose, domain.Title(string(l.Status)))
		if l.InterestRate != 0 {
			line += " | Rate: " + percent(l.InterestRate) + "%"
		}
		if l.MonthlyPayment != nil && *l.MonthlyPayment != 0 {
			line += " | Monthly: " + domain.Money(*l.MonthlyPayment)
		} else if l.EstimatedMonthlyPayment != nil && *l.EstimatedMonthlyPayment != 0 {
			line += " | Est. Monthly: " + domain.Money(*l.EstimatedMonthlyPayment)
		}
		loanLines = append(loanLines, line)
	}

	txnLines := make([]string, 0, len(txns))
	for _, t := range txns {
		icon := "💸"
		if t.Amount > 0 {
			icon = "💰"
		}
		txnLines = append(txnLines, fmt.Sprintf("%s %s - %s: %s", icon, t.Date, t.Description, domain.Money(math.Abs(t.Amount))))
	}

	appLines := make([]string, 0, len(apps))
	for _, a := range apps {
		line := fmt.Sprintf("📋 **%s**: %s %s Card\n    Applied: %s | Status: %s",
			a.ID, a.Brand, domain.Title(string(a.Type)), a.AppliedDate, domain.Title(a.Status))
		if a.ExpectedDelivery != "" {
			line += " | Expected: " + a.ExpectedDelivery
		}
		appLines = append(appLines, line)
	}

	msg := fmt.Sprintf(`🏦 **Complete Account Details for %s**

👤 **Personal Information:**
• Account Number: %s
• Account Type: %s
• Email: %s
• Phone: %s

💰 **Account Balance:**
• Current Balance: %s
• Available Balance: %s
• Pending Transactions: %s

💳 **Cards Overview** (%d total):
• Active Cards: %d
• Blocked Cards: %d
• Credit Cards: %d
• Debit Cards: %d

**Your Cards:**
%s

💰 **Credit Summary:**
• Total Credit Limit: %s
• Available Credit: %s
• Credit Utilization: %.1f%%

🏠 **Loans & Applications** (%d total):
%s

💸 **Recent Transactions** (Last 5):
%s

📋 **Card Applications** (%d total):
%s

📊 **Account Health:**
• Account Status: Active ✅
• Last Updated: %s
• Profile Completeness: 100%%

📞 **Need Help?**
• Online Banking: Available 24/7
• Customer Service: 1-800-BANK-HELP
• Emergency Card Block: 1-800-CARD-BLOCK`,
		u.Name,
		u.AccountNumber, u.AccountType, u.Email, u.Phone,
		domain.Money(u.Balance), domain.Money(u.AvailableBalance), domain.Money(u.PendingTransactions),
		len(cards), active, blocked, creditCount, debitCount,
		orNone(cardLines, "No cards found"),
		domain.Money(totalLimit), domain.Money(totalAvail), utilization,
		len(loans), orNone(loanLines, "No loan applications found"),
		orNone(txnLines, "No recent transactions found"),
		len(apps), orNone(appLines, "No card applications found"),
		s.now().Format(timestampLayout))

	return domain.Success(msg, domain.AccountOverview{
		User:              *u,
		Cards:             cards,
		Loans:             loans,
		Transactions:      txns,
		CardApplications:  apps,
		CreditUtilization: utilization,
	}), nil
}

func orNone(lines []string, placeholder string) string {
	if len(lines) == 0 {
		return placeholder
	}
	return strings.Join(lines, "\n")
}
