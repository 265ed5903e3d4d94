// Package sqlite persists sessions, transcripts and banking records in a
// single SQLite database through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the connection pool. It implements ports.StateStore,
// ports.Pruner, ports.HistoryLog and ports.BankRepository.
type DB struct {
	db *sql.DB
}

// Open creates (or opens) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency.
	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &DB{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *DB) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		account_number TEXT,
		account_type TEXT,
		balance REAL NOT NULL DEFAULT 0,
		available_balance REAL NOT NULL DEFAULT 0,
		pending_transactions REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cards (
		card_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		card_type TEXT NOT NULL,
		card_number TEXT,
		last_four TEXT NOT NULL,
		status TEXT NOT NULL,
		credit_limit REAL,
		available_credit REAL,
		daily_limit REAL,
		brand TEXT,
		expiry_date TEXT,
		annual_fee REAL NOT NULL DEFAULT 0,
		blocked_date INTEGER,
		blocked_reason TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cards_user ON cards(user_id);

	CREATE TABLE IF NOT EXISTS transactions (
		transaction_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		description TEXT,
		amount REAL NOT NULL,
		category TEXT,
		card_used TEXT,
		status TEXT,
		location TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);

	CREATE TABLE IF NOT EXISTS loan_applications (
		application_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount REAL NOT NULL,
		purpose TEXT,
		annual_income REAL,
		status TEXT NOT NULL,
		interest_rate REAL,
		term_months INTEGER,
		monthly_payment REAL,
		estimated_monthly_payment REAL,
		debt_to_income_ratio REAL,
		applied_date TEXT,
		approved_date TEXT,
		created_date TEXT,
		next_step TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_loans_user ON loan_applications(user_id);

	CREATE TABLE IF NOT EXISTS card_applications (
		application_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		card_type TEXT NOT NULL,
		brand TEXT,
		status TEXT,
		applied_date TEXT,
		expected_delivery TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_states (
		session_id TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_states_updated ON session_states(updated_at);

	CREATE TABLE IF NOT EXISTS conversation_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_message TEXT NOT NULL,
		assistant_response TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		topics TEXT,
		urgency TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_history_session ON conversation_history(session_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *DB) Close() error {
	return s.db.Close()
}

// Timestamps are stored as Unix microseconds; 0 is the zero time.
func toMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicro(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
