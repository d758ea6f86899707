package database

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalTrader/models"
)

func TestApplyTrade(t *testing.T) {
	tests := []struct {
		name     string
		held     float64
		avg      float64
		rec      models.TradeRecord
		expected positionChange
	}{
		{
			name:     "opening buy",
			rec:      models.TradeRecord{Action: models.ActionBuy, Quantity: 10, Price: 100, Fees: 1},
			expected: positionChange{Quantity: 10, AveragePrice: 100, RealizedPnL: -1, CashDelta: -1001},
		},
		{
			name:     "adding buy averages price",
			held:     10,
			avg:      100,
			rec:      models.TradeRecord{Action: models.ActionBuy, Quantity: 10, Price: 120},
			expected: positionChange{Quantity: 20, AveragePrice: 110, RealizedPnL: 0, CashDelta: -1200},
		},
		{
			name:     "partial sell realises gain",
			held:     20,
			avg:      110,
			rec:      models.TradeRecord{Action: models.ActionSell, Quantity: 5, Price: 130, Fees: 2},
			expected: positionChange{Quantity: 15, AveragePrice: 110, RealizedPnL: 98, CashDelta: 648},
		},
		{
			name:     "oversell is clamped",
			held:     2,
			avg:      50,
			rec:      models.TradeRecord{Action: models.ActionSell, Quantity: 5, Price: 40},
			expected: positionChange{Quantity: 0, AveragePrice: 50, RealizedPnL: -20, CashDelta: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyTrade(tt.held, tt.avg, tt.rec)
			assert.InDelta(t, tt.expected.Quantity, got.Quantity, 1e-9)
			assert.InDelta(t, tt.expected.AveragePrice, got.AveragePrice, 1e-9)
			assert.InDelta(t, tt.expected.RealizedPnL, got.RealizedPnL, 1e-9)
			assert.InDelta(t, tt.expected.CashDelta, got.CashDelta, 1e-9)
		})
	}
}

func TestDSN(t *testing.T) {
	params := ConnectionParams{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "trader", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=trader sslmode=disable", params.DSN())
}

// openTestDB connects to TEST_DATABASE_URL or skips
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAppendTradeIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p, err := db.CreatePortfolio(ctx, "user-1", "integration", 10000, true)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, p.ID) })

	now := time.Now().UTC().Truncate(time.Microsecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, db.AppendTrade(ctx, models.TradeRecord{
				ID:          p.ID + "-" + string(rune('a'+i)),
				PortfolioID: p.ID,
				Symbol:      "AAPL",
				AssetType:   models.AssetStock,
				Action:      models.ActionBuy,
				Quantity:    1,
				Price:       100,
				OrderType:   models.OrderMarket,
				Status:      "executed",
				Timestamp:   now,
			}))
		}(i)
	}
	wg.Wait()

	positions, err := db.GetOpenPositions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 10.0, positions[0].Quantity)

	require.NoError(t, db.RecomputePerformance(ctx, p.ID))
	stored, err := db.GetPortfolio(ctx, "user-1", p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 9000.0, stored.CashBalance, 1e-9)
	assert.InDelta(t, 10000.0, stored.TotalValue, 1e-9)

	trades, err := db.GetTradesSince(ctx, p.ID, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, trades, 10)

	_, err = db.GetPortfolio(ctx, "someone-else", p.ID)
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestSignalsIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	signal := models.TradingSignal{
		ID:         "TEST_stock_" + now.Format("150405.000000"),
		Symbol:     "TEST",
		AssetType:  models.AssetStock,
		Action:     models.ActionBuy,
		Confidence: 0.91,
		Reasoning:  []string{"MACD bullish crossover"},
		Price:      10,
		StopLoss:   models.Float(9.8),
		Timestamp:  now,
		Strategies: []models.StrategyResult{{Name: "MACD", Action: models.ActionBuy, Confidence: 0.8, Weight: 0.25}},
	}
	require.NoError(t, db.InsertSignal(ctx, signal))
	t.Cleanup(func() { _, _ = db.ExecContext(ctx, `DELETE FROM trading_signals WHERE id = $1`, signal.ID) })

	signals, err := db.GetRecentSignals(ctx, now.Add(-time.Second), 0.9, models.ActionBuy)
	require.NoError(t, err)

	var found *models.TradingSignal
	for i := range signals {
		if signals[i].ID == signal.ID {
			found = &signals[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, signal.Reasoning, found.Reasoning)
	assert.Equal(t, 9.8, *found.StopLoss)
	assert.Nil(t, found.TakeProfit)
	assert.Equal(t, "MACD", found.Strategies[0].Name)
}
