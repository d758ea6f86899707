// Package risk holds the portfolio-level risk gates applied before an order
// is dispatched, and the sizing rules used by the automated sweep.
package risk

import (
	"fmt"

	"github.com/Alias1177/SignalTrader/models"
)

// Limits are the trading engine's portfolio risk settings
type Limits struct {
	MaxPositionSize      float64 `yaml:"max_position_size"` // percent of total value per buy
	MaxDailyLoss         float64 `yaml:"max_daily_loss"`    // percent, compared against dayChangePercent
	StopLossPercentage   float64 `yaml:"stop_loss_percentage"`
	TakeProfitPercentage float64 `yaml:"take_profit_percentage"`
	MaxOpenPositions     int     `yaml:"max_open_positions"`
	RiskPerTrade         float64 `yaml:"risk_per_trade"` // percent of total value committed by the sweep
}

// DefaultLimits returns the engine defaults
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize:      10,
		MaxDailyLoss:         5,
		StopLossPercentage:   3,
		TakeProfitPercentage: 6,
		MaxOpenPositions:     10,
		RiskPerTrade:         2,
	}
}

// Order is the part of a trade the gates look at
type Order struct {
	Action   models.Action
	Quantity float64
	Price    float64 // reference price per unit
}

// Check applies the gates in order: daily loss, open positions, position
// size. It returns nil when the order is allowed. The position gates only
// apply to buys; the daily-loss gate blocks both directions.
func (l Limits) Check(metrics models.PortfolioMetrics, order Order) *models.RiskViolationError {
	if metrics.DayChangePercent <= -l.MaxDailyLoss {
		return &models.RiskViolationError{
			Reason: fmt.Sprintf("Daily loss limit exceeded (%.2f%%)", metrics.DayChangePercent),
		}
	}

	if order.Action != models.ActionBuy {
		return nil
	}

	if metrics.OpenPositions >= l.MaxOpenPositions {
		return &models.RiskViolationError{
			Reason: fmt.Sprintf("Maximum open positions reached (%d)", metrics.OpenPositions),
		}
	}

	if metrics.TotalValue <= 0 {
		return &models.RiskViolationError{
			Reason: fmt.Sprintf("Position size too large (portfolio value is %.2f)", metrics.TotalValue),
		}
	}

	positionSizePercent := order.Quantity * order.Price / metrics.TotalValue * 100
	if positionSizePercent > l.MaxPositionSize {
		return &models.RiskViolationError{
			Reason: fmt.Sprintf("Position size too large (%.2f%% > %g%%)", positionSizePercent, l.MaxPositionSize),
		}
	}

	return nil
}
