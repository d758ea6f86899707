package gemini

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalTrader/models"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientOptions{
		APIKey:            "account-key",
		APISecret:         "secret",
		BaseURL:           server.URL,
		RequestTimeout:    2 * time.Second,
		RequestsPerMinute: 6000,
		MaxRetryTimeout:   time.Second,
	})
	client.now = func() time.Time { return fixedNow }
	return client
}

// decodePayload verifies the signature headers and returns the payload
func decodePayload(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	encoded := r.Header.Get("X-GEMINI-PAYLOAD")
	mac := hmac.New(sha512.New384, []byte("secret"))
	mac.Write([]byte(encoded))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), r.Header.Get("X-GEMINI-SIGNATURE"))
	assert.Equal(t, "account-key", r.Header.Get("X-GEMINI-APIKEY"))

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestNonceStrictlyIncreases(t *testing.T) {
	client := NewClient(ClientOptions{APIKey: "k", APISecret: "s"})
	client.now = func() time.Time { return fixedNow }

	first := client.nextNonce()
	second := client.nextNonce()
	assert.Equal(t, fixedNow.UnixMilli(), first)
	assert.Equal(t, first+1, second)
}

func TestPlaceLimitOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/order/new", r.URL.Path)

		payload := decodePayload(t, r)
		assert.Equal(t, "/v1/order/new", payload["request"])
		assert.Equal(t, "1709294400000", payload["nonce"])
		assert.Equal(t, "btcusd", payload["symbol"])
		assert.Equal(t, "0.015", payload["amount"])
		assert.Equal(t, "42000.5", payload["price"])
		assert.Equal(t, "buy", payload["side"])
		assert.Equal(t, "exchange limit", payload["type"])
		assert.Equal(t, "client-7", payload["client_order_id"])

		_, _ = w.Write([]byte(`{"order_id":"106817811","symbol":"btcusd","side":"buy","type":"exchange limit",
			"avg_execution_price":"42000.25","executed_amount":"0.015","original_amount":"0.015",
			"is_live":false,"is_cancelled":false,"timestampms":1709294400123}`))
	})

	fill, err := client.PlaceOrder(context.Background(), models.OrderSpec{
		ClientOrderID: "client-7",
		Symbol:        "BTC/USD",
		Side:          models.ActionBuy,
		Type:          models.OrderLimit,
		Quantity:      0.015,
		LimitPrice:    models.Float(42000.5),
	})
	require.NoError(t, err)

	assert.Equal(t, "106817811", fill.OrderID)
	assert.Equal(t, 0.015, fill.FilledQty)
	assert.Equal(t, 42000.25, fill.FilledAvgPrice)
	assert.Equal(t, "filled", fill.Status)
	assert.Equal(t, time.UnixMilli(1709294400123).UTC(), fill.Timestamp)
}

func TestPlaceLimitOrderKeepsSubDollarPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		payload := decodePayload(t, r)
		assert.Equal(t, "dogeusd", payload["symbol"])
		assert.Equal(t, "0.12345", payload["price"])
		assert.Equal(t, "1500", payload["amount"])
		_, _ = w.Write([]byte(`{"order_id":"2","is_live":true,"timestampms":1709294400000}`))
	})

	_, err := client.PlaceOrder(context.Background(), models.OrderSpec{
		Symbol:     "DOGE-USD",
		Side:       models.ActionBuy,
		Type:       models.OrderLimit,
		Quantity:   1500,
		LimitPrice: models.Float(0.12345),
	})
	require.NoError(t, err)
}

func TestGetOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/order/status", r.URL.Path)
		payload := decodePayload(t, r)
		assert.Equal(t, float64(106817811), payload["order_id"])
		_, _ = w.Write([]byte(`{"order_id":"106817811","executed_amount":"0","is_live":false,"is_cancelled":true,"timestampms":1709294400000}`))
	})

	fill, err := client.GetOrder(context.Background(), "106817811")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", fill.Status)
	assert.Zero(t, fill.FilledQty)

	_, err = client.GetOrder(context.Background(), "abc")
	assert.Error(t, err)
}

func TestPlaceMarketSell(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		payload := decodePayload(t, r)
		assert.Equal(t, "market sell", payload["type"])
		assert.NotContains(t, payload, "price")
		_, _ = w.Write([]byte(`{"order_id":"1","is_live":true,"timestampms":1709294400000}`))
	})

	fill, err := client.PlaceOrder(context.Background(), models.OrderSpec{
		Symbol:   "ethusd",
		Side:     models.ActionSell,
		Type:     models.OrderMarket,
		Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "open", fill.Status)
}

func TestCancelOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/order/cancel", r.URL.Path)
		payload := decodePayload(t, r)
		assert.Equal(t, float64(106817811), payload["order_id"])
		_, _ = w.Write([]byte(`{"order_id":"106817811","is_cancelled":true}`))
	})

	require.NoError(t, client.CancelOrder(context.Background(), "106817811"))
	assert.Error(t, client.CancelOrder(context.Background(), "not-a-number"))
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient(ClientOptions{BaseURL: "http://127.0.0.1:1"})
	assert.False(t, client.IsConfigured())

	_, err := client.PlaceOrder(context.Background(), models.OrderSpec{
		Symbol: "btcusd", Side: models.ActionBuy, Type: models.OrderMarket, Quantity: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotConfigured))

	validation, err := client.ValidateOrder(context.Background(), models.OrderSpec{
		Symbol: "btcusd", Side: models.ActionBuy, Type: models.OrderMarket, Quantity: 1,
	})
	require.NoError(t, err)
	assert.False(t, validation.Valid)
	assert.Contains(t, validation.Errors, "Crypto trading not configured")
}

func TestValidateOrder(t *testing.T) {
	client := NewClient(ClientOptions{APIKey: "k", APISecret: "s"})

	tests := []struct {
		name   string
		spec   models.OrderSpec
		valid  bool
		reason string
	}{
		{
			name:  "market order",
			spec:  models.OrderSpec{Symbol: "BTC-USD", Side: models.ActionBuy, Type: models.OrderMarket, Quantity: 0.5},
			valid: true,
		},
		{
			name:   "limit without price",
			spec:   models.OrderSpec{Symbol: "btcusd", Side: models.ActionBuy, Type: models.OrderLimit, Quantity: 0.5},
			reason: "Price is required for exchange limit orders",
		},
		{
			name:   "too many decimals",
			spec:   models.OrderSpec{Symbol: "btcusd", Side: models.ActionSell, Type: models.OrderMarket, Quantity: 0.123456789},
			reason: "Amount supports at most 8 decimals",
		},
		{
			name:   "bad symbol",
			spec:   models.OrderSpec{Symbol: "BTC", Side: models.ActionBuy, Type: models.OrderMarket, Quantity: 1},
			reason: `Unsupported symbol "BTC"`,
		},
		{
			name:  "stop loss uses stop price",
			spec:  models.OrderSpec{Symbol: "ethusd", Side: models.ActionSell, Type: models.OrderStopLoss, Quantity: 1, StopPrice: models.Float(2900)},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := client.ValidateOrder(context.Background(), tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			if tt.reason != "" {
				assert.Contains(t, result.Errors, tt.reason)
			}
		})
	}
}

func TestGetLatestQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/pubticker/btcusd", r.URL.Path)
		_, _ = w.Write([]byte(`{"bid":"41990.00","ask":"42010.00","last":"42001.50",
			"volume":{"BTC":"2210.5","USD":"92000000.1","timestamp":1709294400000}}`))
	})

	quote, err := client.GetLatestQuote(context.Background(), "BTCUSD")
	require.NoError(t, err)

	assert.Equal(t, "btcusd", quote.Symbol)
	assert.Equal(t, 41990.0, quote.Bid)
	assert.Equal(t, 42010.0, quote.Ask)
	assert.Equal(t, 42001.5, quote.Price)
	assert.Equal(t, fixedNow, quote.Timestamp)
}

func TestGetHistoricalBars(t *testing.T) {
	day := 24 * time.Hour
	start := fixedNow.Add(-3 * day)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/candles/btcusd/1day", r.URL.Path)

		// newest first, one candle outside the window
		candles := [][]float64{}
		for i := 0; i <= 4; i++ {
			ts := fixedNow.Add(-time.Duration(i) * day).UnixMilli()
			price := 100.0 - float64(i)
			candles = append(candles, []float64{float64(ts), price, price + 1, price - 1, price, 10})
		}
		raw, _ := json.Marshal(candles)
		_, _ = w.Write(raw)
	})

	bars, err := client.GetHistoricalBars(context.Background(), "btcusd", "1Day", start, fixedNow, 3)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, fixedNow.Add(-2*day), bars[0].Timestamp)
	assert.Equal(t, 98.0, bars[0].Close)
	assert.Equal(t, fixedNow, bars[2].Timestamp)
	assert.Equal(t, 100.0, bars[2].Close)
}

func TestGetHistoricalBarsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetHistoricalBars(context.Background(), "btcusd", "1Day", time.Time{}, time.Time{}, 10)
	var unavailable *models.DataUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "btcusd", unavailable.Symbol)

	_, err = client.GetHistoricalBars(context.Background(), "btcusd", "2Week", time.Time{}, time.Time{}, 10)
	require.True(t, errors.As(err, &unavailable))
}
