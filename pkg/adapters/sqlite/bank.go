package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aretw0/teller/pkg/domain"
)

// GetUser retrieves a user by ID.
func (s *DB) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, name, email, phone, account_number, account_type,
		       balance, available_balance, pending_transactions, created_at, updated_at
		FROM users WHERE user_id = ?`

	var (
		u                  domain.User
		createdAt, updated int64
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.AccountNumber, &u.AccountType,
		&u.Balance, &u.AvailableBalance, &u.PendingTransactions, &createdAt, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	u.CreatedAt = fromMicro(createdAt)
	u.UpdatedAt = fromMicro(updated)
	return &u, nil
}

// PutUser creates or updates a user record.
func (s *DB) PutUser(ctx context.Context, u domain.User) error {
	query := `
	INSERT INTO users (user_id, name, email, phone, account_number, account_type,
		balance, available_balance, pending_transactions, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		phone = excluded.phone,
		account_number = excluded.account_number,
		account_type = excluded.account_type,
		balance = excluded.balance,
		available_balance = excluded.available_balance,
		pending_transactions = excluded.pending_transactions,
		updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Phone, u.AccountNumber, u.AccountType,
		u.Balance, u.AvailableBalance, u.PendingTransactions, toMicro(u.CreatedAt), toMicro(u.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

const cardColumns = `card_id, user_id, card_type, card_number, last_four, status,
	credit_limit, available_credit, daily_limit, brand, expiry_date, annual_fee,
	blocked_date, blocked_reason, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (domain.Card, error) {
	var (
		c                     domain.Card
		cardType, status      string
		number, brand, expiry sql.NullString
		reason                sql.NullString
		limit, avail, daily   sql.NullFloat64
		blocked               sql.NullInt64
		createdAt             int64
	)
	err := row.Scan(&c.ID, &c.UserID, &cardType, &number, &c.LastFour, &status,
		&limit, &avail, &daily, &brand, &expiry, &c.AnnualFee,
		&blocked, &reason, &createdAt)
	if err != nil {
		return c, err
	}
	c.Type = domain.CardType(cardType)
	c.Status = domain.CardStatus(status)
	c.Number = number.String
	c.Brand = brand.String
	c.Expiry = expiry.String
	c.BlockedReason = reason.String
	c.Limit = floatPtr(limit)
	c.AvailableCredit = floatPtr(avail)
	c.DailyLimit = floatPtr(daily)
	if blocked.Valid {
		t := fromMicro(blocked.Int64)
		c.BlockedDate = &t
	}
	c.CreatedAt = fromMicro(createdAt)
	return c, nil
}

// ListCards returns the user's cards in creation order.
func (s *DB) ListCards(ctx context.Context, userID string) ([]domain.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE user_id = ? ORDER BY created_at, card_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// GetCard retrieves a card by ID.
func (s *DB) GetCard(ctx context.Context, cardID string) (*domain.Card, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE card_id = ?`, cardID)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan card row: %w", err)
	}
	return &c, nil
}

// PutCard creates or replaces a card record.
func (s *DB) PutCard(ctx context.Context, c domain.Card) error {
	var blocked sql.NullInt64
	if c.BlockedDate != nil {
		blocked = sql.NullInt64{Int64: toMicro(*c.BlockedDate), Valid: true}
	}
	query := `
	INSERT INTO cards (` + cardColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(card_id) DO UPDATE SET
		status = excluded.status,
		credit_limit = excluded.credit_limit,
		available_credit = excluded.available_credit,
		daily_limit = excluded.daily_limit,
		annual_fee = excluded.annual_fee,
		blocked_date = excluded.blocked_date,
		blocked_reason = excluded.blocked_reason`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.UserID, string(c.Type), c.Number, c.LastFour, string(c.Status),
		nullFloat(c.Limit), nullFloat(c.AvailableCredit), nullFloat(c.DailyLimit),
		c.Brand, c.Expiry, c.AnnualFee, blocked, c.BlockedReason, toMicro(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert card: %w", err)
	}
	return nil
}

// ListTransactions returns up to limit transactions, newest date first.
func (s *DB) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT transaction_id, user_id, date, description, amount, category,
		       card_used, status, location, created_at
		FROM transactions WHERE user_id = ?
		ORDER BY date DESC, created_at DESC, transaction_id
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var (
			t                                 domain.Transaction
			desc, cat, card, status, location sql.NullString
			createdAt                         int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Date, &desc, &t.Amount, &cat,
			&card, &status, &location, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		t.Description = desc.String
		t.Category = cat.String
		t.CardUsed = card.String
		t.Status = status.String
		t.Location = location.String
		t.CreatedAt = fromMicro(createdAt)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// PutTransaction creates or replaces a transaction.
func (s *DB) PutTransaction(ctx context.Context, t domain.Transaction) error {
	query := `
	INSERT OR REPLACE INTO transactions (transaction_id, user_id, date, description, amount,
		category, card_used, status, location, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, t.ID, t.UserID, t.Date, t.Description, t.Amount,
		t.Category, t.CardUsed, t.Status, t.Location, toMicro(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListLoans returns the user's loan applications, newest first.
func (s *DB) ListLoans(ctx context.Context, userID string) ([]domain.LoanApplication, error) {
	query := `
		SELECT application_id, user_id, amount, purpose, annual_income, status, interest_rate,
		       term_months, monthly_payment, estimated_monthly_payment, debt_to_income_ratio,
		       applied_date, approved_date, created_date, next_step, created_at
		FROM loan_applications WHERE user_id = ?
		ORDER BY created_at DESC, application_id DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.LoanApplication
	for rows.Next() {
		var (
			l                                        domain.LoanApplication
			status                                   string
			purpose, applied, approved, created, nxt sql.NullString
			income, monthly, estimated, dti, rate    sql.NullFloat64
			term                                     sql.NullInt64
			createdAt                                int64
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Amount, &purpose, &income, &status, &rate,
			&term, &monthly, &estimated, &dti, &applied, &approved, &created, &nxt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan loan row: %w", err)
		}
		l.Purpose = purpose.String
		l.AnnualIncome = floatPtr(income)
		l.Status = domain.LoanStatus(status)
		l.InterestRate = rate.Float64
		l.TermMonths = int(term.Int64)
		l.MonthlyPayment = floatPtr(monthly)
		l.EstimatedMonthlyPayment = floatPtr(estimated)
		l.DebtToIncomeRatio = floatPtr(dti)
		l.AppliedDate = applied.String
		l.ApprovedDate = approved.String
		l.CreatedDate = created.String
		l.NextStep = nxt.String
		l.CreatedAt = fromMicro(createdAt)
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// PutLoan creates or replaces a loan application.
func (s *DB) PutLoan(ctx context.Context, l domain.LoanApplication) error {
	query := `
	INSERT OR REPLACE INTO loan_applications (application_id, user_id, amount, purpose, annual_income,
		status, interest_rate, term_months, monthly_payment, estimated_monthly_payment,
		debt_to_income_ratio, applied_date, approved_date, created_date, next_step, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, l.ID, l.UserID, l.Amount, l.Purpose, nullFloat(l.AnnualIncome),
		string(l.Status), l.InterestRate, l.TermMonths, nullFloat(l.MonthlyPayment),
		nullFloat(l.EstimatedMonthlyPayment), nullFloat(l.DebtToIncomeRatio),
		l.AppliedDate, l.ApprovedDate, l.CreatedDate, l.NextStep, toMicro(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// ListCardApplications returns the user's card applications, newest first.
func (s *DB) ListCardApplications(ctx context.Context, userID string) ([]domain.CardApplication, error) {
	query := `
		SELECT application_id, user_id, card_type, brand, status, applied_date, expected_delivery, created_at
		FROM card_applications WHERE user_id = ?
		ORDER BY created_at DESC, application_id DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query card applications: %w", err)
	}
	defer rows.Close()

	var apps []domain.CardApplication
	for rows.Next() {
		var (
			a                                domain.CardApplication
			cardType                         string
			brand, status, applied, delivery sql.NullString
			createdAt                        int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &cardType, &brand, &status, &applied, &delivery, &createdAt); err != nil {
			return nil, fmt.Errorf("scan card application row: %w", err)
		}
		a.Type = domain.CardType(cardType)
		a.Brand = brand.String
		a.Status = status.String
		a.AppliedDate = applied.String
		a.ExpectedDelivery = delivery.String
		a.CreatedAt = fromMicro(createdAt)
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// PutCardApplication creates or replaces a card application.
func (s *DB) PutCardApplication(ctx context.Context, a domain.CardApplication) error {
	query := `
	INSERT OR REPLACE INTO card_applications (application_id, user_id, card_type, brand, status,
		applied_date, expected_delivery, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, a.ID, a.UserID, string(a.Type), a.Brand, a.Status,
		a.AppliedDate, a.ExpectedDelivery, toMicro(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert card application: %w", err)
	}
	return nil
}
