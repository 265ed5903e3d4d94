package dialogue

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/teller/pkg/domain"
)

const transactionsShown = 5

func formatBalance(b domain.BalanceSummary) string {
	return fmt.Sprintf("Hi %s! Here's your account information:\n\n"+
		"💰 **Current Balance**: %s\n"+
		"💳 **Available Balance**: %s\n"+
		"⏳ **Pending Transactions**: %s\n\n"+
		"📊 **Account Details**:\n"+
		"• Account Type: %s\n"+
		"• Account Number: %s\n"+
		"• Last Updated: %s\n\n"+
		"💳 **Credit Cards Summary**:\n"+
		"• Total Credit Limit: %s\n"+
		"• Available Credit: %s\n"+
		"• Credit Utilization: %s",
		b.AccountHolder,
		domain.Money(b.CurrentBalance), domain.Money(b.AvailableBalance), domain.Money(b.PendingTransactions),
		b.AccountType, b.AccountNumber, b.LastUpdated,
		domain.Money(b.CreditCards.TotalLimit), domain.Money(b.CreditCards.TotalAvailable), b.CreditCards.UtilizationRate)
}

func formatStatement(s domain.Statement) string {
	txns := s.Transactions
	if len(txns) > transactionsShown {
		txns = txns[:transactionsShown]
	}
	lines := make([]string, len(txns))
	for i, t := range txns {
		kind := "Debit"
		if t.Amount > 0 {
			kind = "Credit"
		}
		lines[i] = fmt.Sprintf("• %s - %s: %s (%s)", t.Date, t.Description, domain.Money(math.Abs(t.Amount)), kind)
	}
	return fmt.Sprintf("Hi %s! Here are your recent transactions:\n\n"+
		"📋 **Recent Transactions:**\n%s\n\n"+
		"📊 **Summary** (%s):\n"+
		"• Total Transactions: %d\n"+
		"• Total Debits: %s\n"+
		"• Total Credits: %s\n"+
		"• Largest Transaction: %s\n\n"+
		"💰 **Current Balance**: %s",
		s.AccountHolder, strings.Join(lines, "\n"), s.Period,
		s.Summary.TotalTransactions, domain.Money(s.Summary.TotalDebits), domain.Money(s.Summary.TotalCredits),
		domain.Money(s.Summary.LargestTransaction), domain.Money(s.CurrentBalance))
}

func formatCardList(p domain.CardPortfolio) string {
	lines := make([]string, len(p.Cards))
	for i, c := range p.Cards {
		lines[i] = fmt.Sprintf("• %s Card (%s) ending in %s - Status: %s",
			domain.Title(string(c.Type)), c.Brand, c.LastFour, c.Status)
	}
	return fmt.Sprintf("Here are all your cards:\n\n"+
		"💳 **Your Cards:**\n%s\n\n"+
		"📊 **Summary:**\n"+
		"• Total Cards: %d\n"+
		"• Active Cards: %d\n\n"+
		"Would you like to perform any actions with your cards? You can:\n"+
		"• Block a card\n"+
		"• Apply for a new card\n"+
		"• Modify credit limits",
		strings.Join(lines, "\n"), p.TotalCards, p.ActiveCards)
}

func formatLoans(apps []domain.LoanApplication) string {
	entries := make([]string, len(apps))
	for i, a := range apps {
		var b strings.Builder
		fmt.Fprintf(&b, "• **%s**: %s for %s", a.ID, domain.Money(a.Amount), a.Purpose)
		fmt.Fprintf(&b, "\n  - Status: %s", domain.Title(string(a.Status)))
		if a.InterestRate != 0 {
			fmt.Fprintf(&b, "\n  - Interest Rate: %s%%", trimFloat(a.InterestRate))
		}
		switch {
		case a.MonthlyPayment != nil:
			fmt.Fprintf(&b, "\n  - Monthly Payment: %s", domain.Money(*a.MonthlyPayment))
		case a.EstimatedMonthlyPayment != nil:
			fmt.Fprintf(&b, "\n  - Estimated Monthly Payment: %s", domain.Money(*a.EstimatedMonthlyPayment))
		}
		if d := a.Applied(); d != "" {
			fmt.Fprintf(&b, "\n  - Applied Date: %s", d)
		}
		if a.ApprovedDate != "" {
			fmt.Fprintf(&b, "\n  - Approved Date: %s", a.ApprovedDate)
		}
		entries[i] = b.String()
	}
	return fmt.Sprintf("Here are all your loan applications:\n\n%s\n\n"+
		"📊 **Summary**: You have %d loan application(s) on file.\n\n"+
		"Would you like to:\n"+
		"• Apply for a new loan\n"+
		"• Check the status of a specific application\n"+
		"• Get more details about any loan",
		strings.Join(entries, "\n\n"), len(apps))
}

func formatBlocked(msg string, c domain.BlockConfirmation) string {
	blocked := ""
	if c.Card.BlockedDate != nil {
		blocked = c.Card.BlockedDate.Format("2006-01-02 15:04:05")
	}
	steps := make([]string, len(c.NextSteps))
	for i, s := range c.NextSteps {
		steps[i] = "• " + s
	}
	return fmt.Sprintf("%s\n\n"+
		"🔐 **Confirmation Details:**\n"+
		"• Confirmation Code: %s\n"+
		"• Card Details: %s %s ending in %s\n"+
		"• Blocked Date: %s\n\n"+
		"📋 **Next Steps:**\n%s",
		msg, c.ConfirmationCode, c.Card.Brand, c.Card.Type, c.Card.LastFour, blocked, strings.Join(steps, "\n"))
}

// trimFloat renders 5.2 as "5.2" and 10 as "10".
func trimFloat(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

// loanStepPrompt restates where a resumed application picks up.
func loanStepPrompt(p *domain.Process) string {
	data := p.LoanData()
	switch {
	case p.CurrentStep == domain.StepPurpose && data.Amount != nil:
		return fmt.Sprintf("Great! Continuing with your loan application for %s.\n\n"+
			"**Step 2: Loan Purpose**\n"+
			"What will you use this loan for? (e.g., Home Improvement, Debt Consolidation, Auto Purchase, Medical Expenses, etc.)",
			domain.Money(*data.Amount))
	case p.CurrentStep == domain.StepIncome && data.Amount != nil && data.Purpose != nil:
		return fmt.Sprintf("Perfect! Loan amount: %s for %s.\n\n"+
			"**Step 3: Annual Income**\n"+
			"What is your annual gross income? This helps us determine your loan eligibility and interest rate.",
			domain.Money(*data.Amount), *data.Purpose)
	}
	return "Let's continue with your loan application. What information do you need to provide next?"
}

// resumePrompt asks whether to continue a suspended application.
func resumePrompt(sp domain.SuspendedProcess) string {
	data := sp.Process.LoanData()
	var b strings.Builder
	b.WriteString("I notice you were in the middle of a loan application:\n\n")
	if data.Amount != nil {
		fmt.Fprintf(&b, "• Amount: %s\n", domain.Money(*data.Amount))
	}
	if data.Purpose != nil {
		fmt.Fprintf(&b, "• Purpose: %s\n", *data.Purpose)
	}
	fmt.Fprintf(&b, "\n**Progress**: %.0f%% complete\n\n", sp.CompletionPercentage)
	b.WriteString("Would you like to:\n1. **Continue** where you left off\n2. **Start** a completely new loan application\n\n" +
		"Please say 'continue' or 'start new'.")
	return b.String()
}
