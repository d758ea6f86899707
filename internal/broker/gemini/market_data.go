package gemini

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/SignalTrader/models"
)

type ticker struct {
	Bid  string `json:"bid" validate:"required,numeric"`
	Ask  string `json:"ask" validate:"required,numeric"`
	Last string `json:"last" validate:"required,numeric"`
	// volume also carries the base/quote volumes keyed by currency
	Volume struct {
		Timestamp int64 `json:"timestamp"`
	} `json:"volume"`
}

// candleTimeframe maps bar timeframes onto Gemini candle intervals
func candleTimeframe(timeframe string) (string, error) {
	switch timeframe {
	case "1Min", "1m":
		return "1m", nil
	case "5Min", "5m":
		return "5m", nil
	case "15Min", "15m":
		return "15m", nil
	case "30Min", "30m":
		return "30m", nil
	case "1Hour", "1hr", "1h":
		return "1hr", nil
	case "6Hour", "6hr":
		return "6hr", nil
	case "", "1Day", "1day":
		return "1day", nil
	}
	return "", fmt.Errorf("unsupported timeframe %q", timeframe)
}

// GetHistoricalBars returns candles between start and end in ascending
// order, keeping the newest limit bars.
func (c *Client) GetHistoricalBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]models.PriceBar, error) {
	symbol = normalizeSymbol(symbol)

	interval, err := candleTimeframe(timeframe)
	if err != nil {
		return nil, &models.DataUnavailableError{Source: gatewayName, Symbol: symbol, Err: err}
	}

	// each candle is [time ms, open, high, low, close, volume]
	var raw [][]float64
	if err := c.public(ctx, "get candles", fmt.Sprintf("/v2/candles/%s/%s", symbol, interval), &raw); err != nil {
		return nil, &models.DataUnavailableError{Source: gatewayName, Symbol: symbol, Err: err}
	}

	bars := make([]models.PriceBar, 0, len(raw))
	for _, candle := range raw {
		if len(candle) < 6 {
			continue
		}
		ts := time.UnixMilli(int64(candle[0])).UTC()
		if (!start.IsZero() && ts.Before(start)) || (!end.IsZero() && ts.After(end)) {
			continue
		}
		bars = append(bars, models.PriceBar{
			Timestamp: ts,
			Open:      candle[1],
			High:      candle[2],
			Low:       candle[3],
			Close:     candle[4],
			Volume:    candle[5],
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	c.logger.Debug().Str("symbol", symbol).Int("count", len(bars)).Msg("Fetched candles")
	return bars, nil
}

// GetLatestQuote returns the ticker; Price is the last trade
func (c *Client) GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = normalizeSymbol(symbol)

	var t ticker
	if err := c.public(ctx, "get ticker", "/v1/pubticker/"+symbol, &t); err != nil {
		return nil, &models.DataUnavailableError{Source: gatewayName, Symbol: symbol, Err: err}
	}
	if err := c.validate.Struct(t); err != nil {
		return nil, &models.DataUnavailableError{Source: gatewayName, Symbol: symbol, Err: fmt.Errorf("unexpected ticker: %w", err)}
	}

	ts := c.now().UTC()
	if t.Volume.Timestamp > 0 {
		ts = time.UnixMilli(t.Volume.Timestamp).UTC()
	}

	return &models.Quote{
		Symbol:    symbol,
		Bid:       decimal.RequireFromString(t.Bid).InexactFloat64(),
		Ask:       decimal.RequireFromString(t.Ask).InexactFloat64(),
		Price:     decimal.RequireFromString(t.Last).InexactFloat64(),
		Timestamp: ts,
	}, nil
}
