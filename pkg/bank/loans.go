package bank

import (
	"context"
	"fmt"
	"math"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
)

const (
	MinLoanAmount = 1000.0
	MaxLoanAmount = 50000.0

	loanTermMonths = 60
	// fallbackIncome stands in for a non-positive income when pricing.
	fallbackIncome = 50000.0
)

const amountPrompt = "**Step 1: Loan Amount**\nHow much would you like to borrow? (Minimum: $1,000, Maximum: $50,000)"

// ApplyForLoan advances a loan application with the slots known so far.
// Missing slots produce an info result carrying the continuation; a full
// set submits the application.
func (s *Service) ApplyForLoan(ctx context.Context, userID string, req ports.LoanRequest) (*domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, res, err := s.user(ctx, userID)
	if res != nil || err != nil {
		return res, err
	}
	existing, err := s.repo.ListLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	var approved *domain.LoanApplication
	for i := range existing {
		if existing[i].Status == domain.LoanApproved {
			approved = &existing[i]
			break
		}
	}

	amount, purpose, income := slot(req.Amount), req.Purpose, slot(req.Income)
	if purpose != nil && *purpose == "" {
		purpose = nil
	}
	noSlots := amount == nil && purpose == nil && income == nil

	if req.ForceNew || (noSlots && approved != nil) {
		proc := domain.NewLoanProcess(domain.LoanData{})
		proc.IsNewApplication = true
		msg := fmt.Sprintf("Hello %s! I'd be happy to help you apply for a loan.\n\n%s", u.Name, amountPrompt)
		if approved != nil {
			msg = fmt.Sprintf("Hello %s! I see you have an approved loan for %s for %s.\n\n"+
				"To help you apply for a **new loan**, I'll need some information:\n\n%s",
				u.Name, domain.Money(approved.Amount), approved.Purpose, amountPrompt)
		}
		return domain.Continue(msg, proc), nil
	}

	if amount == nil {
		msg := fmt.Sprintf("Hello %s! I'd be happy to help you apply for a loan.\n\n%s", u.Name, amountPrompt)
		return domain.Continue(msg, domain.NewLoanProcess(domain.LoanData{})), nil
	}
	if *amount < MinLoanAmount || *amount > MaxLoanAmount {
		return &domain.Result{
			Status:     domain.StatusError,
			Message:    fmt.Sprintf("A loan amount of %s is outside our lending range.", domain.Money(*amount)),
			FailedStep: domain.StepAmount,
		}, nil
	}
	if purpose == nil {
		msg := fmt.Sprintf("Great! You'd like to borrow %s.\n\n**Step 2: Loan Purpose**\n"+
			"What will you use this loan for? (e.g., Home Improvement, Debt Consolidation, Auto Purchase, Medical Expenses, etc.)",
			domain.Money(*amount))
		return domain.Continue(msg, domain.NewLoanProcess(domain.LoanData{Amount: amount})), nil
	}
	if income == nil {
		msg := fmt.Sprintf("Perfect! Loan amount: %s for %s.\n\n**Step 3: Annual Income**\n"+
			"What is your annual gross income? This helps us determine your loan eligibility and interest rate.",
			domain.Money(*amount), *purpose)
		return domain.Continue(msg, domain.NewLoanProcess(domain.LoanData{Amount: amount, Purpose: purpose})), nil
	}

	app := s.price(userID, len(existing)+1, *amount, *purpose, *income)
	if err := s.repo.PutLoan(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save loan application: %w", err)
	}
	s.logger.Info("Loan application submitted", "user_id", userID, "application_id", app.ID)

	payment := *app.EstimatedMonthlyPayment
	msg := fmt.Sprintf("Excellent! Your loan application has been submitted successfully.\n\n"+
		"**Application Summary:**\n"+
		"• Application ID: %s\n"+
		"• Loan Amount: %s\n"+
		"• Purpose: %s\n"+
		"• Annual Income: %s\n"+
		"• Estimated Interest Rate: %s%%\n"+
		"• Estimated Monthly Payment: %s\n"+
		"• Term: %d months (5 years)\n\n"+
		"**Next Steps:**\n"+
		"1. We'll run a credit check within 24 hours\n"+
		"2. A loan specialist will review your application\n"+
		"3. You'll receive a decision within 2-3 business days\n"+
		"4. If approved, funds can be disbursed within 1 business day\n\n"+
		"Your application reference number is: %s",
		app.ID, domain.Money(app.Amount), app.Purpose, domain.Money(*income),
		percent(app.InterestRate), domain.Money(payment), loanTermMonths, app.ID)

	res = domain.Success(msg, app)
	res.ProcessComplete = true
	return res, nil
}

// slot treats zero as unfilled.
func slot(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

// price computes the rate tier and the amortized payment of a new application.
func (s *Service) price(userID string, seq int, amount float64, purpose string, income float64) domain.LoanApplication {
	base := income
	if base <= 0 {
		base = fallbackIncome
	}
	dti := amount * 12 / base

	var rate float64
	switch {
	case dti < 0.1:
		rate = 5.2
	case dti < 0.2:
		rate = 6.5
	case dti < 0.3:
		rate = 8.2
	default:
		rate = 10.5
	}

	now := s.now()
	return domain.LoanApplication{
		ID:                      fmt.Sprintf("LOAN%03d", seq),
		UserID:                  userID,
		Amount:                  amount,
		Purpose:                 purpose,
		AnnualIncome:            domain.Ptr(income),
		Status:                  domain.LoanInReview,
		InterestRate:            rate,
		TermMonths:              loanTermMonths,
		EstimatedMonthlyPayment: domain.Ptr(MonthlyPayment(amount, rate, loanTermMonths)),
		DebtToIncomeRatio:       domain.Ptr(math.Round(dti*100*10) / 10),
		CreatedDate:             now.Format(dateLayout),
		NextStep:                "credit_check",
		CreatedAt:               now,
	}
}

// MonthlyPayment amortizes amount over months at an annual percentage rate,
// rounded to cents.
func MonthlyPayment(amount, annualRate float64, months int) float64 {
	r := annualRate / 100 / 12
	if r == 0 {
		return math.Round(amount/float64(months)*100) / 100
	}
	f := math.Pow(1+r, float64(months))
	return math.Round(amount*r*f/(f-1)*100) / 100
}

// LoanStatus lists the user's loan applications, newest first.
func (s *Service) LoanStatus(ctx context.Context, userID string) (*domain.Result, error) {
	u, res, err := s.user(ctx, userID)
	if res != nil || err != nil {
		return res, err
	}
	loans, err := s.repo.ListLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	portfolio := domain.LoanPortfolio{Holder: u.Name, Applications: loans}
	if len(loans) == 0 {
		return domain.Success(fmt.Sprintf(
			"Hello %s! You don't have any loan applications on file. Would you like to apply for a loan today?", u.Name),
			portfolio), nil
	}
	return domain.Success(fmt.Sprintf("Here are your loan applications, %s:", u.Name), portfolio), nil
}
