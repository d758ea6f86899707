package trading

import (
	"context"
	"time"

	"github.com/Alias1177/SignalTrader/models"
)

// ExecutionGateway places orders on one venue. Implementations retry
// transient failures themselves; the engine calls each method once.
type ExecutionGateway interface {
	ValidateOrder(ctx context.Context, spec models.OrderSpec) (models.OrderValidation, error)
	PlaceOrder(ctx context.Context, spec models.OrderSpec) (*models.OrderFill, error)
	GetOrder(ctx context.Context, orderID string) (*models.OrderFill, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// StockGateway is the stock venue; it exposes the brokerage account
type StockGateway interface {
	ExecutionGateway
	GetAccount(ctx context.Context) (*models.Account, error)
}

// CryptoGateway is the crypto venue. IsConfigured must be checked before
// any other call.
type CryptoGateway interface {
	ExecutionGateway
	IsConfigured() bool
}

// PortfolioStore owns cash, positions and the trade log. Concurrent
// AppendTrade calls for one portfolio must not lose updates; the engine
// does not serialise them.
type PortfolioStore interface {
	GetMetrics(ctx context.Context, userID, portfolioID string) (*models.PortfolioMetrics, error)
	AppendTrade(ctx context.Context, record models.TradeRecord) error
	RecomputePerformance(ctx context.Context, portfolioID string) error
	GetRecentHighConfidenceSignals(ctx context.Context, window time.Duration, minConfidence float64) ([]models.TradingSignal, error)
}

// FillNotifier is told about every broker-confirmed trade
type FillNotifier interface {
	NotifyFill(ctx context.Context, params models.TradeParams, result models.TradeResult) error
}
