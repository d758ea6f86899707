package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Alias1177/SignalTrader/models"
)

// CreatePortfolio creates a portfolio funded with initialCash
func (db *DB) CreatePortfolio(ctx context.Context, userID, name string, initialCash float64, isPaper bool) (*models.Portfolio, error) {
	p := &models.Portfolio{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		CashBalance: initialCash,
		TotalValue:  initialCash,
		IsPaper:     isPaper,
		IsActive:    true,
		UpdatedAt:   time.Now().UTC(),
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO portfolios (id, user_id, name, cash_balance, total_value, is_paper, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.UserID, p.Name, p.CashBalance, p.TotalValue, p.IsPaper, p.IsActive, p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// GetPortfolio retrieves a portfolio owned by userID
func (db *DB) GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	var p models.Portfolio

	err := db.QueryRowContext(ctx, `
		SELECT id, user_id, name, cash_balance, total_value, total_pnl, is_paper, is_active, updated_at
		FROM portfolios
		WHERE id = $1 AND user_id = $2
	`, portfolioID, userID).Scan(
		&p.ID, &p.UserID, &p.Name, &p.CashBalance, &p.TotalValue, &p.TotalPnL, &p.IsPaper, &p.IsActive, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}

	return &p, nil
}

// ListActivePortfolios returns every active portfolio, newest first
func (db *DB) ListActivePortfolios(ctx context.Context) ([]models.Portfolio, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, name, cash_balance, total_value, total_pnl, is_paper, is_active, updated_at
		FROM portfolios
		WHERE is_active
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var portfolios []models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CashBalance, &p.TotalValue, &p.TotalPnL, &p.IsPaper, &p.IsActive, &p.UpdatedAt); err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

// GetOpenPositions returns positions with a positive quantity
func (db *DB) GetOpenPositions(ctx context.Context, portfolioID string) ([]models.Position, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT portfolio_id, symbol, asset_type, quantity, average_price, updated_at
		FROM positions
		WHERE portfolio_id = $1 AND quantity > 0
		ORDER BY symbol
	`, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var pos models.Position
		if err := rows.Scan(&pos.PortfolioID, &pos.Symbol, &pos.AssetType, &pos.Quantity, &pos.AveragePrice, &pos.UpdatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// RecomputePerformance refreshes total_pnl from the trade log and
// total_value at cost basis in a single statement.
func (db *DB) RecomputePerformance(ctx context.Context, portfolioID string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE portfolios p
		SET total_pnl = COALESCE((SELECT SUM(t.realized_pnl) FROM trades t WHERE t.portfolio_id = p.id), 0),
			total_value = p.cash_balance + COALESCE((
				SELECT SUM(pos.quantity * pos.average_price)
				FROM positions pos
				WHERE pos.portfolio_id = p.id AND pos.quantity > 0
			), 0),
			updated_at = NOW()
		WHERE p.id = $1
	`, portfolioID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}
