package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalTrader/models"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	args := m.Called(ctx, userID, portfolioID)
	p, _ := args.Get(0).(*models.Portfolio)
	return p, args.Error(1)
}

func (m *mockRepo) GetOpenPositions(ctx context.Context, portfolioID string) ([]models.Position, error) {
	args := m.Called(ctx, portfolioID)
	p, _ := args.Get(0).([]models.Position)
	return p, args.Error(1)
}

func (m *mockRepo) GetTradesSince(ctx context.Context, portfolioID string, since time.Time) ([]models.TradeRecord, error) {
	args := m.Called(ctx, portfolioID, since)
	t, _ := args.Get(0).([]models.TradeRecord)
	return t, args.Error(1)
}

func (m *mockRepo) AppendTrade(ctx context.Context, rec models.TradeRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockRepo) RecomputePerformance(ctx context.Context, portfolioID string) error {
	return m.Called(ctx, portfolioID).Error(0)
}

func (m *mockRepo) InsertSignal(ctx context.Context, s models.TradingSignal) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockRepo) GetRecentSignals(ctx context.Context, since time.Time, minConfidence float64, action models.Action) ([]models.TradingSignal, error) {
	args := m.Called(ctx, since, minConfidence, action)
	s, _ := args.Get(0).([]models.TradingSignal)
	return s, args.Error(1)
}

type mockQuotes struct {
	mock.Mock
}

func (m *mockQuotes) GetHistoricalBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]models.PriceBar, error) {
	args := m.Called(ctx, symbol, timeframe, start, end, limit)
	b, _ := args.Get(0).([]models.PriceBar)
	return b, args.Error(1)
}

func (m *mockQuotes) GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	args := m.Called(ctx, symbol)
	q, _ := args.Get(0).(*models.Quote)
	return q, args.Error(1)
}

var fixedNow = time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)

func newTestManager() (*Manager, *mockRepo, *mockQuotes, *mockQuotes) {
	repo := &mockRepo{}
	stocks := &mockQuotes{}
	crypto := &mockQuotes{}
	m := NewManager(repo, map[models.AssetType]models.MarketDataSource{
		models.AssetStock:  stocks,
		models.AssetCrypto: crypto,
	})
	m.now = func() time.Time { return fixedNow }
	return m, repo, stocks, crypto
}

func TestGetMetrics(t *testing.T) {
	m, repo, stocks, crypto := newTestManager()
	ctx := context.Background()
	startOfDay := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	repo.On("GetPortfolio", ctx, "user-1", "pf-1").Return(&models.Portfolio{ID: "pf-1", CashBalance: 5000, TotalPnL: 250}, nil)
	repo.On("GetOpenPositions", ctx, "pf-1").Return([]models.Position{
		{Symbol: "AAPL", AssetType: models.AssetStock, Quantity: 10, AveragePrice: 100},
		{Symbol: "btcusd", AssetType: models.AssetCrypto, Quantity: 0.5, AveragePrice: 40000},
		{Symbol: "MSFT", AssetType: models.AssetStock, Quantity: 2, AveragePrice: 300},
	}, nil)
	repo.On("GetTradesSince", ctx, "pf-1", startOfDay).Return([]models.TradeRecord{
		{RealizedPnL: -300},
		{RealizedPnL: 100},
	}, nil)

	stocks.On("GetLatestQuote", ctx, "AAPL").Return(&models.Quote{Price: 110}, nil)
	stocks.On("GetLatestQuote", ctx, "MSFT").Return(nil, errors.New("quote feed down"))
	crypto.On("GetLatestQuote", ctx, "btcusd").Return(&models.Quote{Price: 42000}, nil)

	metrics, err := m.GetMetrics(ctx, "user-1", "pf-1")
	require.NoError(t, err)

	// invested 1000 + 20000 + 600; unrealised 100 + 1000, MSFT at cost
	assert.InDelta(t, 21600.0, metrics.TotalInvested, 1e-9)
	assert.InDelta(t, 1100.0, metrics.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 27700.0, metrics.TotalValue, 1e-9)
	assert.Equal(t, 5000.0, metrics.TotalCash)
	assert.Equal(t, 250.0, metrics.RealizedPnL)
	assert.Equal(t, -200.0, metrics.DayChange)
	assert.InDelta(t, -200.0/27700*100, metrics.DayChangePercent, 1e-9)
	assert.Equal(t, 3, metrics.OpenPositions)
	assert.Equal(t, 2, metrics.TodayTrades)

	repo.AssertExpectations(t)
	stocks.AssertExpectations(t)
	crypto.AssertExpectations(t)
}

func TestGetMetricsMissingQuoteCountsAtCost(t *testing.T) {
	m, repo, stocks, _ := newTestManager()
	ctx := context.Background()

	repo.On("GetPortfolio", ctx, "u", "p").Return(&models.Portfolio{CashBalance: 1000}, nil)
	repo.On("GetOpenPositions", ctx, "p").Return([]models.Position{
		{Symbol: "AAPL", AssetType: models.AssetStock, Quantity: 10, AveragePrice: 100},
	}, nil)
	repo.On("GetTradesSince", ctx, "p", mock.Anything).Return(nil, nil)
	stocks.On("GetLatestQuote", ctx, "AAPL").Return(nil, nil)

	metrics, err := m.GetMetrics(ctx, "u", "p")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, metrics.TotalInvested)
	assert.Zero(t, metrics.UnrealizedPnL)
	assert.Equal(t, 2000.0, metrics.TotalValue)
}

func TestGetMetricsEmptyPortfolio(t *testing.T) {
	m, repo, _, _ := newTestManager()
	ctx := context.Background()

	repo.On("GetPortfolio", ctx, "u", "p").Return(&models.Portfolio{}, nil)
	repo.On("GetOpenPositions", ctx, "p").Return(nil, nil)
	repo.On("GetTradesSince", ctx, "p", mock.Anything).Return(nil, nil)

	metrics, err := m.GetMetrics(ctx, "u", "p")
	require.NoError(t, err)
	assert.Zero(t, metrics.TotalValue)
	assert.Zero(t, metrics.DayChangePercent)
}

func TestGetMetricsPropagatesErrors(t *testing.T) {
	m, repo, _, _ := newTestManager()
	ctx := context.Background()
	boom := errors.New("connection refused")

	repo.On("GetPortfolio", ctx, "u", "p").Return(nil, boom)

	_, err := m.GetMetrics(ctx, "u", "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to get portfolio metrics")
}

func TestRecentSignalsWindow(t *testing.T) {
	m, repo, _, _ := newTestManager()
	ctx := context.Background()

	signals := []models.TradingSignal{{ID: "s1", Confidence: 0.9}}
	repo.On("GetRecentSignals", ctx, fixedNow.Add(-24*time.Hour), 0.7, models.ActionBuy).Return(signals, nil)

	got, err := m.GetRecentHighConfidenceSignals(ctx, 24*time.Hour, 0.7)
	require.NoError(t, err)
	assert.Equal(t, signals, got)
}

func TestWritesWrapErrors(t *testing.T) {
	m, repo, _, _ := newTestManager()
	ctx := context.Background()
	boom := errors.New("deadlock detected")

	rec := models.TradeRecord{ID: "t1", PortfolioID: "p"}
	repo.On("AppendTrade", ctx, rec).Return(boom)
	repo.On("RecomputePerformance", ctx, "p").Return(nil)
	repo.On("InsertSignal", ctx, mock.AnythingOfType("models.TradingSignal")).Return(boom)

	assert.ErrorIs(t, m.AppendTrade(ctx, rec), boom)
	assert.NoError(t, m.RecomputePerformance(ctx, "p"))
	assert.ErrorIs(t, m.SaveSignal(ctx, models.TradingSignal{ID: "s1"}), boom)
}
