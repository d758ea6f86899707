package models

import (
	"context"
	"time"
)

// MarketDataSource supplies bars and quotes for one asset class.
// Network or auth failures come back as *DataUnavailableError.
type MarketDataSource interface {
	GetHistoricalBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]PriceBar, error)
	GetLatestQuote(ctx context.Context, symbol string) (*Quote, error)
}
