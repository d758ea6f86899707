package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/Alias1177/SignalTrader/models"
)

// positionChange is the effect of one fill on a holding and on cash
type positionChange struct {
	Quantity     float64
	AveragePrice float64
	RealizedPnL  float64
	CashDelta    float64
}

// applyTrade folds a fill into the current holding. Buys move the average
// price; sells realise P&L against it and never take the holding below zero.
func applyTrade(heldQty, avgPrice float64, rec models.TradeRecord) positionChange {
	notional := rec.Quantity * rec.Price

	if rec.Action == models.ActionBuy {
		qty := heldQty + rec.Quantity
		avg := rec.Price
		if qty > 0 {
			avg = (heldQty*avgPrice + notional) / qty
		}
		return positionChange{
			Quantity:     qty,
			AveragePrice: avg,
			RealizedPnL:  -rec.Fees,
			CashDelta:    -(notional + rec.Fees),
		}
	}

	closed := math.Min(rec.Quantity, heldQty)
	return positionChange{
		Quantity:     math.Max(heldQty-rec.Quantity, 0),
		AveragePrice: avgPrice,
		RealizedPnL:  (rec.Price-avgPrice)*closed - rec.Fees,
		CashDelta:    notional - rec.Fees,
	}
}

// AppendTrade records a fill and applies it to cash and the position in one
// transaction. The position row is locked so concurrent fills on the same
// symbol serialise instead of losing updates.
func (db *DB) AppendTrade(ctx context.Context, rec models.TradeRecord) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// make sure a row exists to lock
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO positions (portfolio_id, symbol, asset_type, quantity, average_price)
		VALUES ($1, $2, $3, 0, 0)
		ON CONFLICT (portfolio_id, symbol, asset_type) DO NOTHING
	`, rec.PortfolioID, rec.Symbol, rec.AssetType); err != nil {
		return fmt.Errorf("ensure position: %w", err)
	}

	var heldQty, avgPrice float64
	if err = tx.QueryRowContext(ctx, `
		SELECT quantity, average_price
		FROM positions
		WHERE portfolio_id = $1 AND symbol = $2 AND asset_type = $3
		FOR UPDATE
	`, rec.PortfolioID, rec.Symbol, rec.AssetType).Scan(&heldQty, &avgPrice); err != nil {
		return fmt.Errorf("lock position: %w", err)
	}

	change := applyTrade(heldQty, avgPrice, rec)
	rec.RealizedPnL = change.RealizedPnL

	if _, err = tx.ExecContext(ctx, `
		UPDATE positions
		SET quantity = $4, average_price = $5, updated_at = NOW()
		WHERE portfolio_id = $1 AND symbol = $2 AND asset_type = $3
	`, rec.PortfolioID, rec.Symbol, rec.AssetType, change.Quantity, change.AveragePrice); err != nil {
		return fmt.Errorf("update position: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE portfolios
		SET cash_balance = cash_balance + $2, updated_at = NOW()
		WHERE id = $1
	`, rec.PortfolioID, change.CashDelta)
	if err != nil {
		return fmt.Errorf("update cash: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrPortfolioNotFound
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO trades (
			id, portfolio_id, signal_id, symbol, asset_type, action, quantity, price, order_type,
			stop_loss, take_profit, fees, external_order_id, status, realized_pnl, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		rec.ID, rec.PortfolioID, nullString(rec.SignalID), rec.Symbol, rec.AssetType, rec.Action,
		rec.Quantity, rec.Price, rec.OrderType, nullFloat(rec.StopLoss), nullFloat(rec.TakeProfit),
		rec.Fees, nullString(rec.ExternalOrderID), rec.Status, rec.RealizedPnL, rec.Timestamp,
	); err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	return tx.Commit()
}

// GetTradesSince returns trades at or after since, oldest first
func (db *DB) GetTradesSince(ctx context.Context, portfolioID string, since time.Time) ([]models.TradeRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, portfolio_id, signal_id, symbol, asset_type, action, quantity, price, order_type,
			stop_loss, take_profit, fees, external_order_id, status, realized_pnl, timestamp
		FROM trades
		WHERE portfolio_id = $1 AND timestamp >= $2
		ORDER BY timestamp ASC
	`, portfolioID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []models.TradeRecord
	for rows.Next() {
		var (
			rec                  models.TradeRecord
			signalID, externalID sql.NullString
			stopLoss, takeProfit sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.ID, &rec.PortfolioID, &signalID, &rec.Symbol, &rec.AssetType, &rec.Action,
			&rec.Quantity, &rec.Price, &rec.OrderType, &stopLoss, &takeProfit, &rec.Fees,
			&externalID, &rec.Status, &rec.RealizedPnL, &rec.Timestamp,
		); err != nil {
			return nil, err
		}

		if signalID.Valid {
			rec.SignalID = signalID.String
		}
		if externalID.Valid {
			rec.ExternalOrderID = externalID.String
		}
		rec.StopLoss = floatPtr(stopLoss)
		rec.TakeProfit = floatPtr(takeProfit)
		trades = append(trades, rec)
	}
	return trades, rows.Err()
}
