package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Alias1177/SignalTrader/models"
)

// InsertSignal stores a generated signal. Signals are append-only.
func (db *DB) InsertSignal(ctx context.Context, s models.TradingSignal) error {
	reasoning, err := json.Marshal(s.Reasoning)
	if err != nil {
		return fmt.Errorf("encoding reasoning: %w", err)
	}
	indicators, err := json.Marshal(s.Indicators)
	if err != nil {
		return fmt.Errorf("encoding indicators: %w", err)
	}
	strategies, err := json.Marshal(s.Strategies)
	if err != nil {
		return fmt.Errorf("encoding strategies: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO trading_signals (
			id, symbol, asset_type, action, confidence, price, target_price, stop_loss, take_profit,
			position_size, reasoning, indicators, strategies, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`,
		s.ID, s.Symbol, s.AssetType, s.Action, s.Confidence, s.Price,
		nullFloat(s.TargetPrice), nullFloat(s.StopLoss), nullFloat(s.TakeProfit), nullFloat(s.PositionSize),
		string(reasoning), string(indicators), string(strategies), s.Timestamp,
	)
	return err
}

// GetRecentSignals returns signals with the given action and at least
// minConfidence stamped at or after since, highest confidence first.
func (db *DB) GetRecentSignals(ctx context.Context, since time.Time, minConfidence float64, action models.Action) ([]models.TradingSignal, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, symbol, asset_type, action, confidence, price, target_price, stop_loss, take_profit,
			position_size, reasoning, indicators, strategies, timestamp
		FROM trading_signals
		WHERE timestamp >= $1 AND confidence >= $2 AND action = $3
		ORDER BY confidence DESC, timestamp DESC
	`, since, minConfidence, action)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []models.TradingSignal
	for rows.Next() {
		var (
			s                                 models.TradingSignal
			target, stop, take, size          sql.NullFloat64
			reasoning, indicators, strategies []byte
		)
		if err := rows.Scan(
			&s.ID, &s.Symbol, &s.AssetType, &s.Action, &s.Confidence, &s.Price,
			&target, &stop, &take, &size, &reasoning, &indicators, &strategies, &s.Timestamp,
		); err != nil {
			return nil, err
		}

		s.TargetPrice = floatPtr(target)
		s.StopLoss = floatPtr(stop)
		s.TakeProfit = floatPtr(take)
		s.PositionSize = floatPtr(size)

		if err := json.Unmarshal(reasoning, &s.Reasoning); err != nil {
			return nil, fmt.Errorf("decoding reasoning of %s: %w", s.ID, err)
		}
		if err := json.Unmarshal(indicators, &s.Indicators); err != nil {
			return nil, fmt.Errorf("decoding indicators of %s: %w", s.ID, err)
		}
		if err := json.Unmarshal(strategies, &s.Strategies); err != nil {
			return nil, fmt.Errorf("decoding strategies of %s: %w", s.ID, err)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
