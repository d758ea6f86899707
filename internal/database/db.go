package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// ErrPortfolioNotFound is returned when no portfolio matches the owner and id
var ErrPortfolioNotFound = errors.New("portfolio not found")

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	return Open(ctx, params.DSN())
}

// Open connects with a raw DSN or postgres:// URL and creates the schema
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			cash_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_paper BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			asset_type TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
			average_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (portfolio_id, symbol, asset_type)
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
			signal_id TEXT,
			symbol TEXT NOT NULL,
			asset_type TEXT NOT NULL,
			action TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			order_type TEXT NOT NULL,
			stop_loss DOUBLE PRECISION,
			take_profit DOUBLE PRECISION,
			fees DOUBLE PRECISION NOT NULL DEFAULT 0,
			external_order_id TEXT,
			status TEXT NOT NULL,
			realized_pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS trades_portfolio_timestamp_idx ON trades (portfolio_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS trading_signals (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			asset_type TEXT NOT NULL,
			action TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			target_price DOUBLE PRECISION,
			stop_loss DOUBLE PRECISION,
			take_profit DOUBLE PRECISION,
			position_size DOUBLE PRECISION,
			reasoning JSONB NOT NULL DEFAULT '[]',
			indicators JSONB NOT NULL DEFAULT '{}',
			strategies JSONB NOT NULL DEFAULT '[]',
			timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS trading_signals_timestamp_idx ON trading_signals (timestamp, confidence)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
