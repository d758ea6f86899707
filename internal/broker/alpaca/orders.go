package alpaca

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/SignalTrader/models"
)

// alpacaAccount is the subset of GET /v2/account the engine uses
type alpacaAccount struct {
	ID          string `json:"id" validate:"required"`
	Status      string `json:"status" validate:"required"`
	Currency    string `json:"currency"`
	BuyingPower string `json:"buying_power" validate:"required,numeric"`
	Cash        string `json:"cash" validate:"omitempty,numeric"`
	Equity      string `json:"equity" validate:"omitempty,numeric"`
}

type orderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	LimitPrice    string `json:"limit_price,omitempty"`
	StopPrice     string `json:"stop_price,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type alpacaOrder struct {
	ID             string  `json:"id" validate:"required"`
	ClientOrderID  string  `json:"client_order_id"`
	Status         string  `json:"status" validate:"required"`
	Symbol         string  `json:"symbol"`
	FilledQty      string  `json:"filled_qty" validate:"omitempty,numeric"`
	FilledAvgPrice *string `json:"filled_avg_price" validate:"omitempty,numeric"`
	SubmittedAt    string  `json:"submitted_at"`
	FilledAt       *string `json:"filled_at"`
}

// GetAccount returns the brokerage account state
func (c *Client) GetAccount(ctx context.Context) (*models.Account, error) {
	var raw alpacaAccount
	if err := c.do(ctx, "get account", http.MethodGet, c.baseURL+"/v2/account", nil, &raw); err != nil {
		return nil, err
	}

	buyingPower, err := decimal.NewFromString(raw.BuyingPower)
	if err != nil {
		return nil, fmt.Errorf("parsing buying power: %w", err)
	}

	return &models.Account{
		ID:          raw.ID,
		Status:      raw.Status,
		Currency:    raw.Currency,
		BuyingPower: buyingPower.InexactFloat64(),
		Cash:        parseDecimal(raw.Cash).InexactFloat64(),
		Equity:      parseDecimal(raw.Equity).InexactFloat64(),
	}, nil
}

// orderType maps the caller-facing order type onto Alpaca's
func orderType(t models.OrderType) string {
	switch t {
	case models.OrderLimit, models.OrderTakeProfit:
		return "limit"
	case models.OrderStopLoss:
		return "stop"
	default:
		return "market"
	}
}

// ValidateOrder checks the order against Alpaca's rules without sending it
func (c *Client) ValidateOrder(_ context.Context, spec models.OrderSpec) (models.OrderValidation, error) {
	var errs []string

	if err := c.validate.Struct(spec); err != nil {
		errs = append(errs, fmt.Sprintf("invalid order: %v", err))
	}
	if !c.IsConfigured() {
		errs = append(errs, "Stock trading not configured")
	}

	kind := orderType(spec.Type)
	if kind == "limit" && (spec.LimitPrice == nil || *spec.LimitPrice <= 0) {
		errs = append(errs, "Limit price is required for limit orders")
	}
	if kind == "stop" && (spec.StopPrice == nil || *spec.StopPrice <= 0) {
		errs = append(errs, "Stop price is required for stop orders")
	}
	for _, price := range []*float64{spec.LimitPrice, spec.StopPrice} {
		if price != nil && *price > 0 && !validTick(*price) {
			errs = append(errs, fmt.Sprintf("Price %v exceeds tick size (2 decimals at or above $1, 4 below)", *price))
		}
	}
	// fractional shares are only accepted on market day orders
	if kind != "market" && spec.Quantity != math.Trunc(spec.Quantity) {
		errs = append(errs, "Fractional quantities are only allowed for market orders")
	}

	return models.OrderValidation{Valid: len(errs) == 0, Errors: errs}, nil
}

// PlaceOrder submits the order. Alpaca acknowledges asynchronously, so a
// fresh market order may report zero filled quantity.
func (c *Client) PlaceOrder(ctx context.Context, spec models.OrderSpec) (*models.OrderFill, error) {
	tif := spec.TimeInForce
	if tif == "" {
		tif = "day"
	}

	body := orderRequest{
		Symbol:        strings.ToUpper(spec.Symbol),
		Qty:           decimal.NewFromFloat(spec.Quantity).String(),
		Side:          string(spec.Side),
		Type:          orderType(spec.Type),
		TimeInForce:   tif,
		ClientOrderID: spec.ClientOrderID,
	}
	if spec.LimitPrice != nil {
		body.LimitPrice = decimal.NewFromFloat(*spec.LimitPrice).String()
	}
	if spec.StopPrice != nil {
		body.StopPrice = decimal.NewFromFloat(*spec.StopPrice).String()
	}

	var order alpacaOrder
	if err := c.do(ctx, "place order", http.MethodPost, c.baseURL+"/v2/orders", body, &order); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("order_id", order.ID).
		Str("symbol", body.Symbol).
		Str("status", order.Status).
		Msg("Order placed")

	return toFill(order), nil
}

// GetOrder fetches the current state of an order
func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.OrderFill, error) {
	var order alpacaOrder
	endpoint := c.baseURL + "/v2/orders/" + url.PathEscape(orderID)
	if err := c.do(ctx, "get order", http.MethodGet, endpoint, nil, &order); err != nil {
		return nil, err
	}
	return toFill(order), nil
}

// CancelOrder cancels an open order
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	endpoint := c.baseURL + "/v2/orders/" + url.PathEscape(orderID)
	return c.do(ctx, "cancel order", http.MethodDelete, endpoint, nil, nil)
}

// validTick reports whether Alpaca accepts the price as given: at most
// 2 decimals from $1 up and 4 decimals below.
func validTick(price float64) bool {
	d := decimal.NewFromFloat(price)
	places := int32(2)
	if d.LessThan(decimal.NewFromInt(1)) {
		places = 4
	}
	return d.Equal(d.Truncate(places))
}

func toFill(order alpacaOrder) *models.OrderFill {
	fill := &models.OrderFill{
		OrderID:   order.ID,
		FilledQty: parseDecimal(order.FilledQty).InexactFloat64(),
		Status:    order.Status,
	}
	if order.FilledAvgPrice != nil {
		fill.FilledAvgPrice = parseDecimal(*order.FilledAvgPrice).InexactFloat64()
	}

	ts := order.SubmittedAt
	if order.FilledAt != nil && *order.FilledAt != "" {
		ts = *order.FilledAt
	}
	if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		fill.Timestamp = parsed
	}
	return fill
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
