package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Alias1177/SignalTrader/models"
)

type alpacaBar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type barsResponse struct {
	Bars          []alpacaBar `json:"bars"`
	Symbol        string      `json:"symbol"`
	NextPageToken *string     `json:"next_page_token"`
}

type latestQuoteResponse struct {
	Symbol string `json:"symbol"`
	Quote  struct {
		AskPrice  float64   `json:"ap"`
		BidPrice  float64   `json:"bp"`
		Timestamp time.Time `json:"t"`
	} `json:"quote"`
}

// GetHistoricalBars fetches bars in ascending time order, following
// pagination until limit bars are collected.
func (c *Client) GetHistoricalBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int) ([]models.PriceBar, error) {
	symbol = strings.ToUpper(symbol)
	if timeframe == "" {
		timeframe = "1Day"
	}

	var bars []models.PriceBar
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("timeframe", timeframe)
		q.Set("start", start.UTC().Format(time.RFC3339))
		q.Set("end", end.UTC().Format(time.RFC3339))
		q.Set("adjustment", "raw")
		if limit > 0 {
			q.Set("limit", strconv.Itoa(limit))
		}
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}
		endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", c.dataURL, url.PathEscape(symbol), q.Encode())

		var page barsResponse
		if err := c.do(ctx, "get bars", http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, &models.DataUnavailableError{Source: gatewayName, Symbol: symbol, Err: err}
		}

		for _, b := range page.Bars {
			bars = append(bars, models.PriceBar{
				Timestamp: b.Timestamp,
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Volume,
			})
		}

		if page.NextPageToken == nil || *page.NextPageToken == "" || (limit > 0 && len(bars) >= limit) {
			break
		}
		pageToken = *page.NextPageToken
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	c.logger.Debug().Str("symbol", symbol).Int("count", len(bars)).Msg("Fetched bars")
	return bars, nil
}

// GetLatestQuote returns the latest NBBO quote; Price is the midpoint
func (c *Client) GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(symbol)
	endpoint := fmt.Sprintf("%s/v2/stocks/%s/quotes/latest", c.dataURL, url.PathEscape(symbol))

	var resp latestQuoteResponse
	if err := c.do(ctx, "get quote", http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, &models.DataUnavailableError{Source: gatewayName, Symbol: symbol, Err: err}
	}

	bid, ask := resp.Quote.BidPrice, resp.Quote.AskPrice
	price := (bid + ask) / 2
	if bid == 0 || ask == 0 {
		price = bid + ask
	}

	return &models.Quote{
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		Price:     price,
		Timestamp: resp.Quote.Timestamp,
	}, nil
}
