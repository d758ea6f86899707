package trading

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Alias1177/SignalTrader/models"
)

type mockStockGateway struct {
	mock.Mock
}

func (m *mockStockGateway) ValidateOrder(ctx context.Context, spec models.OrderSpec) (models.OrderValidation, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(models.OrderValidation), args.Error(1)
}

func (m *mockStockGateway) PlaceOrder(ctx context.Context, spec models.OrderSpec) (*models.OrderFill, error) {
	args := m.Called(ctx, spec)
	fill, _ := args.Get(0).(*models.OrderFill)
	return fill, args.Error(1)
}

func (m *mockStockGateway) GetOrder(ctx context.Context, orderID string) (*models.OrderFill, error) {
	args := m.Called(ctx, orderID)
	fill, _ := args.Get(0).(*models.OrderFill)
	return fill, args.Error(1)
}

func (m *mockStockGateway) CancelOrder(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *mockStockGateway) GetAccount(ctx context.Context) (*models.Account, error) {
	args := m.Called(ctx)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

type mockCryptoGateway struct {
	mock.Mock
}

func (m *mockCryptoGateway) ValidateOrder(ctx context.Context, spec models.OrderSpec) (models.OrderValidation, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(models.OrderValidation), args.Error(1)
}

func (m *mockCryptoGateway) PlaceOrder(ctx context.Context, spec models.OrderSpec) (*models.OrderFill, error) {
	args := m.Called(ctx, spec)
	fill, _ := args.Get(0).(*models.OrderFill)
	return fill, args.Error(1)
}

func (m *mockCryptoGateway) GetOrder(ctx context.Context, orderID string) (*models.OrderFill, error) {
	args := m.Called(ctx, orderID)
	fill, _ := args.Get(0).(*models.OrderFill)
	return fill, args.Error(1)
}

func (m *mockCryptoGateway) CancelOrder(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *mockCryptoGateway) IsConfigured() bool {
	return m.Called().Bool(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetMetrics(ctx context.Context, userID, portfolioID string) (*models.PortfolioMetrics, error) {
	args := m.Called(ctx, userID, portfolioID)
	metrics, _ := args.Get(0).(*models.PortfolioMetrics)
	return metrics, args.Error(1)
}

func (m *mockStore) AppendTrade(ctx context.Context, record models.TradeRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockStore) RecomputePerformance(ctx context.Context, portfolioID string) error {
	return m.Called(ctx, portfolioID).Error(0)
}

func (m *mockStore) GetRecentHighConfidenceSignals(ctx context.Context, window time.Duration, minConfidence float64) ([]models.TradingSignal, error) {
	args := m.Called(ctx, window, minConfidence)
	signals, _ := args.Get(0).([]models.TradingSignal)
	return signals, args.Error(1)
}

type mockQuotes struct {
	mock.Mock
}

func (m *mockQuotes) GetHistoricalBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]models.PriceBar, error) {
	args := m.Called(ctx, symbol, timeframe, start, end, limit)
	bars, _ := args.Get(0).([]models.PriceBar)
	return bars, args.Error(1)
}

func (m *mockQuotes) GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	args := m.Called(ctx, symbol)
	quote, _ := args.Get(0).(*models.Quote)
	return quote, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyFill(ctx context.Context, params models.TradeParams, result models.TradeResult) error {
	return m.Called(ctx, params, result).Error(0)
}
