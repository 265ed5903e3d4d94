package domain

import "time"

// CardType distinguishes credit from debit cards.
type CardType string

const (
	CardCredit CardType = "credit"
	CardDebit  CardType = "debit"
)

// CardStatus is the lifecycle state of a card.
type CardStatus string

const (
	CardActive  CardStatus = "active"
	CardBlocked CardStatus = "blocked"
)

// LoanStatus is the review state of a loan application.
type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanInReview LoanStatus = "in_review"
	LoanApproved LoanStatus = "approved"
)

type User struct {
	ID                  string    `json:"user_id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	AccountNumber       string    `json:"account_number"`
	AccountType         string    `json:"account_type"`
	Balance             float64   `json:"balance"`
	AvailableBalance    float64   `json:"available_balance"`
	PendingTransactions float64   `json:"pending_transactions"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type Card struct {
	ID              string     `json:"card_id"`
	UserID          string     `json:"user_id"`
	Type            CardType   `json:"type"`
	Number          string     `json:"card_number"`
	LastFour        string     `json:"last_four"`
	Status          CardStatus `json:"status"`
	Limit           *float64   `json:"limit,omitempty"`
	AvailableCredit *float64   `json:"available_credit,omitempty"`
	DailyLimit      *float64   `json:"daily_limit,omitempty"`
	Brand           string     `json:"brand"`
	Expiry          string     `json:"expiry"`
	AnnualFee       float64    `json:"annual_fee"`
	BlockedDate     *time.Time `json:"blocked_date,omitempty"`
	BlockedReason   string     `json:"blocked_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Utilization is the used share of a credit card's limit, in [0,1].
func (c Card) Utilization() float64 {
	if c.Limit == nil || *c.Limit == 0 {
		return 0
	}
	avail := 0.0
	if c.AvailableCredit != nil {
		avail = *c.AvailableCredit
	}
	return (*c.Limit - avail) / *c.Limit
}

type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	CardUsed    string    `json:"card_used,omitempty"`
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type LoanApplication struct {
	ID                      string     `json:"application_id"`
	UserID                  string     `json:"user_id"`
	Amount                  float64    `json:"amount"`
	Purpose                 string     `json:"purpose"`
	AnnualIncome            *float64   `json:"annual_income,omitempty"`
	Status                  LoanStatus `json:"status"`
	InterestRate            float64    `json:"interest_rate"`
	TermMonths              int        `json:"term_months"`
	MonthlyPayment          *float64   `json:"monthly_payment,omitempty"`
	EstimatedMonthlyPayment *float64   `json:"estimated_monthly_payment,omitempty"`
	DebtToIncomeRatio       *float64   `json:"debt_to_income_ratio,omitempty"`
	AppliedDate             string     `json:"applied_date,omitempty"`
	ApprovedDate            string     `json:"approved_date,omitempty"`
	CreatedDate             string     `json:"created_date,omitempty"`
	NextStep                string     `json:"next_step,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
}

// Payment is the monthly payment for approved loans and the estimate otherwise.
func (l LoanApplication) Payment() (float64, bool) {
	if l.Status == LoanApproved && l.MonthlyPayment != nil {
		return *l.MonthlyPayment, true
	}
	if l.EstimatedMonthlyPayment != nil {
		return *l.EstimatedMonthlyPayment, false
	}
	if l.MonthlyPayment != nil {
		return *l.MonthlyPayment, true
	}
	return 0, false
}

// Applied returns the application date, falling back to the creation date.
func (l LoanApplication) Applied() string {
	if l.AppliedDate != "" {
		return l.AppliedDate
	}
	return l.CreatedDate
}

type CardApplication struct {
	ID               string    `json:"application_id"`
	UserID           string    `json:"user_id"`
	Type             CardType  `json:"type"`
	Brand            string    `json:"brand"`
	Status           string    `json:"status"`
	AppliedDate      string    `json:"applied_date"`
	ExpectedDelivery string    `json:"expected_delivery,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreditSummary aggregates the user's credit cards.
type CreditSummary struct {
	TotalLimit      float64 `json:"total_limit"`
	TotalAvailable  float64 `json:"total_available"`
	UtilizationRate string  `json:"utilization_rate"`
}

type BalanceSummary struct {
	AccountHolder       string        `json:"account_holder"`
	AccountNumber       string        `json:"account_number"`
	AccountType         string        `json:"account_type"`
	CurrentBalance      float64       `json:"current_balance"`
	AvailableBalance    float64       `json:"available_balance"`
	PendingTransactions float64       `json:"pending_transactions"`
	Currency            string        `json:"currency"`
	LastUpdated         string        `json:"last_updated"`
	CreditCards         CreditSummary `json:"credit_cards_summary"`
}

type StatementSummary struct {
	TotalTransactions    int     `json:"total_transactions"`
	TotalDebits          float64 `json:"total_debits"`
	TotalCredits         float64 `json:"total_credits"`
	LargestTransaction   float64 `json:"largest_transaction"`
	MostFrequentCategory string  `json:"most_frequent_category"`
}

type Statement struct {
	AccountHolder  string           `json:"account_holder"`
	AccountNumber  string           `json:"account_number"`
	Period         string           `json:"statement_period"`
	Transactions   []Transaction    `json:"transactions"`
	Summary        StatementSummary `json:"summary"`
	CurrentBalance float64          `json:"current_balance"`
}

type CardPortfolio struct {
	Cards       []Card `json:"cards"`
	TotalCards  int    `json:"total_cards"`
	ActiveCards int    `json:"active_cards"`
}

type BlockConfirmation struct {
	ConfirmationCode string   `json:"confirmation_code"`
	NextSteps        []string `json:"next_steps"`
	Card             Card     `json:"card_details"`
}

type LoanPortfolio struct {
	Holder       string            `json:"holder"`
	Applications []LoanApplication `json:"applications"`
}

type NewCardOutcome struct {
	Card        Card            `json:"card"`
	Application CardApplication `json:"application"`
}

type LimitChange struct {
	CardID       string  `json:"card_id"`
	OldLimit     float64 `json:"old_limit"`
	NewLimit     float64 `json:"new_limit"`
	NewAvailable float64 `json:"new_available"`
	ChangeAmount float64 `json:"change_amount"`
	ChangeType   string  `json:"change_type"`
}

type AccountOverview struct {
	User              User              `json:"user"`
	Cards             []Card            `json:"cards"`
	Loans             []LoanApplication `json:"loans"`
	Transactions      []Transaction     `json:"recent_transactions"`
	CardApplications  []CardApplication `json:"card_applications"`
	CreditUtilization float64           `json:"credit_utilization"`
}

type KnowledgeHit struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type KnowledgeHits struct {
	Results []KnowledgeHit `json:"results"`
	Summary string         `json:"summary"`
}

// UserData is the raw dump served for diagnostics.
type UserData struct {
	User               User              `json:"user"`
	Cards              []Card            `json:"cards"`
	Loans              []LoanApplication `json:"loans"`
	RecentTransactions []Transaction     `json:"recent_transactions"`
}
