// Package portfolio implements the trading engine's portfolio store on top
// of the Postgres repository and live quotes.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalTrader/models"
)

// Repository is the persistence the manager needs; *database.DB implements it
type Repository interface {
	GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error)
	GetOpenPositions(ctx context.Context, portfolioID string) ([]models.Position, error)
	GetTradesSince(ctx context.Context, portfolioID string, since time.Time) ([]models.TradeRecord, error)
	AppendTrade(ctx context.Context, rec models.TradeRecord) error
	RecomputePerformance(ctx context.Context, portfolioID string) error
	InsertSignal(ctx context.Context, s models.TradingSignal) error
	GetRecentSignals(ctx context.Context, since time.Time, minConfidence float64, action models.Action) ([]models.TradingSignal, error)
}

// Manager computes live portfolio metrics and records trades and signals
type Manager struct {
	repo   Repository
	quotes map[models.AssetType]models.MarketDataSource
	logger zerolog.Logger
	now    func() time.Time
}

// NewManager creates a manager. quotes may omit an asset type, in which case
// positions of that type are valued at cost.
func NewManager(repo Repository, quotes map[models.AssetType]models.MarketDataSource) *Manager {
	return &Manager{
		repo:   repo,
		quotes: quotes,
		logger: log.With().Str("component", "portfolio_manager").Logger(),
		now:    time.Now,
	}
}

// GetMetrics values the portfolio at current prices. Total value is cash
// plus cost basis plus unrealised P&L; day change is today's realised P&L.
func (m *Manager) GetMetrics(ctx context.Context, userID, portfolioID string) (*models.PortfolioMetrics, error) {
	portfolio, err := m.repo.GetPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio metrics: %w", err)
	}

	positions, err := m.repo.GetOpenPositions(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio metrics: %w", err)
	}

	todayTrades, err := m.repo.GetTradesSince(ctx, portfolioID, models.StartOfDay(m.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio metrics: %w", err)
	}

	var totalInvested, unrealizedPnL float64
	for _, pos := range positions {
		costBasis := pos.Quantity * pos.AveragePrice
		totalInvested += costBasis

		price, ok := m.currentPrice(ctx, pos)
		if !ok {
			continue
		}
		unrealizedPnL += pos.Quantity*price - costBasis
	}

	var dayChange float64
	for _, t := range todayTrades {
		dayChange += t.RealizedPnL
	}

	totalValue := portfolio.CashBalance + totalInvested + unrealizedPnL
	dayChangePercent := 0.0
	if totalValue > 0 {
		dayChangePercent = dayChange / totalValue * 100
	}

	return &models.PortfolioMetrics{
		TotalValue:       totalValue,
		TotalCash:        portfolio.CashBalance,
		TotalInvested:    totalInvested,
		UnrealizedPnL:    unrealizedPnL,
		RealizedPnL:      portfolio.TotalPnL,
		DayChange:        dayChange,
		DayChangePercent: dayChangePercent,
		OpenPositions:    len(positions),
		TodayTrades:      len(todayTrades),
	}, nil
}

func (m *Manager) currentPrice(ctx context.Context, pos models.Position) (float64, bool) {
	source, ok := m.quotes[pos.AssetType]
	if !ok || source == nil {
		return 0, false
	}

	quote, err := source.GetLatestQuote(ctx, pos.Symbol)
	if err != nil {
		m.logger.Warn().Err(err).Str("symbol", pos.Symbol).Msg("Failed to get current price")
		return 0, false
	}
	if quote == nil || quote.Price <= 0 {
		return 0, false
	}
	return quote.Price, true
}

// AppendTrade records a fill
func (m *Manager) AppendTrade(ctx context.Context, rec models.TradeRecord) error {
	if err := m.repo.AppendTrade(ctx, rec); err != nil {
		return fmt.Errorf("failed to log trade: %w", err)
	}

	m.logger.Debug().
		Str("trade_id", rec.ID).
		Str("portfolio_id", rec.PortfolioID).
		Str("symbol", rec.Symbol).
		Msg("Trade logged")
	return nil
}

// RecomputePerformance refreshes the stored totals of a portfolio
func (m *Manager) RecomputePerformance(ctx context.Context, portfolioID string) error {
	if err := m.repo.RecomputePerformance(ctx, portfolioID); err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	return nil
}

// GetRecentHighConfidenceSignals returns buy signals from the last window
// with at least minConfidence, strongest first.
func (m *Manager) GetRecentHighConfidenceSignals(ctx context.Context, window time.Duration, minConfidence float64) ([]models.TradingSignal, error) {
	signals, err := m.repo.GetRecentSignals(ctx, m.now().Add(-window), minConfidence, models.ActionBuy)
	if err != nil {
		return nil, fmt.Errorf("failed to get trading signals: %w", err)
	}
	return signals, nil
}

// SaveSignal persists a generated signal
func (m *Manager) SaveSignal(ctx context.Context, signal models.TradingSignal) error {
	if err := m.repo.InsertSignal(ctx, signal); err != nil {
		return fmt.Errorf("failed to save signal %s: %w", signal.ID, err)
	}
	return nil
}
