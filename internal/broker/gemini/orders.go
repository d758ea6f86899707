package gemini

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/SignalTrader/models"
)

// amountPrecision is the number of decimal places Gemini accepts for amounts
const amountPrecision = 8

var symbolPattern = regexp.MustCompile(`^[a-z0-9]{6,12}$`)

// geminiOrder is the order status returned by /v1/order/new and /v1/order/status
type geminiOrder struct {
	OrderID           string `json:"order_id" validate:"required"`
	ClientOrderID     string `json:"client_order_id"`
	Symbol            string `json:"symbol"`
	Side              string `json:"side"`
	Type              string `json:"type"`
	AvgExecutionPrice string `json:"avg_execution_price" validate:"omitempty,numeric"`
	ExecutedAmount    string `json:"executed_amount" validate:"omitempty,numeric"`
	OriginalAmount    string `json:"original_amount" validate:"omitempty,numeric"`
	IsLive            bool   `json:"is_live"`
	IsCancelled       bool   `json:"is_cancelled"`
	TimestampMS       int64  `json:"timestampms"`
}

// orderType maps the caller-facing order type onto Gemini's. Anything that
// is not a market order rests on the book as an exchange limit.
func orderType(t models.OrderType, side models.Action) string {
	if t == models.OrderMarket {
		if side == models.ActionSell {
			return "market sell"
		}
		return "market buy"
	}
	return "exchange limit"
}

// normalizeSymbol turns BTC/USD, BTC-USD or BTCUSD into btcusd
func normalizeSymbol(symbol string) string {
	s := strings.ToLower(symbol)
	s = strings.NewReplacer("/", "", "-", "", "_", "").Replace(s)
	return s
}

// ValidateOrder checks the order against Gemini's rules without sending it
func (c *Client) ValidateOrder(_ context.Context, spec models.OrderSpec) (models.OrderValidation, error) {
	var errs []string

	if !c.IsConfigured() {
		errs = append(errs, "Crypto trading not configured")
	}
	if err := c.validate.Struct(spec); err != nil {
		errs = append(errs, fmt.Sprintf("invalid order: %v", err))
	}
	if !symbolPattern.MatchString(normalizeSymbol(spec.Symbol)) {
		errs = append(errs, fmt.Sprintf("Unsupported symbol %q", spec.Symbol))
	}

	amount := decimal.NewFromFloat(spec.Quantity)
	if !amount.Equal(amount.Truncate(amountPrecision)) {
		errs = append(errs, fmt.Sprintf("Amount supports at most %d decimals", amountPrecision))
	}
	if orderType(spec.Type, spec.Side) == "exchange limit" && limitPrice(spec) == nil {
		errs = append(errs, "Price is required for exchange limit orders")
	}

	return models.OrderValidation{Valid: len(errs) == 0, Errors: errs}, nil
}

func limitPrice(spec models.OrderSpec) *float64 {
	if spec.LimitPrice != nil && *spec.LimitPrice > 0 {
		return spec.LimitPrice
	}
	if spec.StopPrice != nil && *spec.StopPrice > 0 {
		return spec.StopPrice
	}
	return nil
}

// PlaceOrder submits a new order
func (c *Client) PlaceOrder(ctx context.Context, spec models.OrderSpec) (*models.OrderFill, error) {
	params := map[string]any{
		"symbol": normalizeSymbol(spec.Symbol),
		"amount": decimal.NewFromFloat(spec.Quantity).Truncate(amountPrecision).String(),
		"side":   string(spec.Side),
		"type":   orderType(spec.Type, spec.Side),
	}
	if price := limitPrice(spec); price != nil {
		params["price"] = decimal.NewFromFloat(*price).String()
	}
	if spec.ClientOrderID != "" {
		params["client_order_id"] = spec.ClientOrderID
	}

	var order geminiOrder
	if err := c.private(ctx, "place order", "/v1/order/new", params, &order); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(order); err != nil {
		return nil, &models.GatewayError{Gateway: gatewayName, Op: "place order", Err: fmt.Errorf("unexpected response: %w", err)}
	}

	c.logger.Info().
		Str("order_id", order.OrderID).
		Str("symbol", order.Symbol).
		Str("type", order.Type).
		Msg("Order placed")

	return toFill(order), nil
}

// GetOrder fetches the current state of an order
func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.OrderFill, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid Gemini order id %q: %w", orderID, err)
	}

	var order geminiOrder
	if err := c.private(ctx, "get order", "/v1/order/status", map[string]any{"order_id": id}, &order); err != nil {
		return nil, err
	}
	return toFill(order), nil
}

// CancelOrder cancels an open order
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid Gemini order id %q: %w", orderID, err)
	}
	return c.private(ctx, "cancel order", "/v1/order/cancel", map[string]any{"order_id": id}, nil)
}

func toFill(order geminiOrder) *models.OrderFill {
	status := "open"
	switch {
	case order.IsCancelled:
		status = "cancelled"
	case !order.IsLive:
		status = "filled"
	}

	return &models.OrderFill{
		OrderID:        order.OrderID,
		FilledQty:      parseDecimal(order.ExecutedAmount).InexactFloat64(),
		FilledAvgPrice: parseDecimal(order.AvgExecutionPrice).InexactFloat64(),
		Status:         status,
		Timestamp:      time.UnixMilli(order.TimestampMS).UTC(),
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
