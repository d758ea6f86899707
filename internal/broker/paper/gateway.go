// Package paper is an execution gateway for paper portfolios. Orders fill
// immediately at the latest quote and only the simulated buying power moves.
package paper

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalTrader/models"
)

// DefaultBuyingPower is the starting balance of a new paper account
const DefaultBuyingPower = 100000.0

// Gateway simulates a broker. It satisfies both the stock and the crypto
// gateway contracts.
type Gateway struct {
	quotes   models.MarketDataSource
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time

	mu          sync.Mutex
	buyingPower float64
	nextID      int64
	orders      map[string]models.OrderFill
}

// NewGateway creates a paper gateway pricing fills off quotes
func NewGateway(quotes models.MarketDataSource, buyingPower float64) *Gateway {
	if buyingPower <= 0 {
		buyingPower = DefaultBuyingPower
	}
	return &Gateway{
		quotes:      quotes,
		validate:    validator.New(),
		logger:      log.With().Str("component", "paper_gateway").Logger(),
		now:         time.Now,
		buyingPower: buyingPower,
		orders:      make(map[string]models.OrderFill),
	}
}

// IsConfigured is true once a quote source is attached
func (g *Gateway) IsConfigured() bool {
	return g.quotes != nil
}

// GetAccount returns the simulated account
func (g *Gateway) GetAccount(_ context.Context) (*models.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return &models.Account{
		ID:          "paper",
		Status:      models.AccountActive,
		Currency:    "USD",
		BuyingPower: g.buyingPower,
		Cash:        g.buyingPower,
		Equity:      g.buyingPower,
	}, nil
}

// ValidateOrder checks the order shape and that a quote source is attached
func (g *Gateway) ValidateOrder(_ context.Context, spec models.OrderSpec) (models.OrderValidation, error) {
	var errs []string
	if !g.IsConfigured() {
		errs = append(errs, "Paper trading has no quote source")
	}
	if err := g.validate.Struct(spec); err != nil {
		errs = append(errs, fmt.Sprintf("invalid order: %v", err))
	}
	return models.OrderValidation{Valid: len(errs) == 0, Errors: errs}, nil
}

// PlaceOrder fills the whole quantity at the latest quote price. Limit
// prices are honoured only as a price cap for buys and floor for sells.
func (g *Gateway) PlaceOrder(ctx context.Context, spec models.OrderSpec) (*models.OrderFill, error) {
	if !g.IsConfigured() {
		return nil, &models.GatewayError{Gateway: "paper", Op: "place order", Err: models.ErrNotConfigured}
	}

	quote, err := g.quotes.GetLatestQuote(ctx, spec.Symbol)
	if err != nil {
		return nil, &models.GatewayError{Gateway: "paper", Op: "place order", Err: err}
	}

	price := quote.Price
	if spec.LimitPrice != nil {
		if spec.Side == models.ActionBuy && *spec.LimitPrice < price {
			return nil, &models.GatewayError{Gateway: "paper", Op: "place order",
				Err: fmt.Errorf("limit %.2f below market %.2f", *spec.LimitPrice, price)}
		}
		if spec.Side == models.ActionSell && *spec.LimitPrice > price {
			return nil, &models.GatewayError{Gateway: "paper", Op: "place order",
				Err: fmt.Errorf("limit %.2f above market %.2f", *spec.LimitPrice, price)}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	cost := price * spec.Quantity
	if spec.Side == models.ActionBuy {
		if cost > g.buyingPower {
			return nil, &models.GatewayError{Gateway: "paper", Op: "place order",
				Err: fmt.Errorf("insufficient buying power: need %.2f, have %.2f", cost, g.buyingPower)}
		}
		g.buyingPower -= cost
	} else {
		g.buyingPower += cost
	}

	g.nextID++
	fill := models.OrderFill{
		OrderID:        "paper-" + strconv.FormatInt(g.nextID, 10),
		FilledQty:      spec.Quantity,
		FilledAvgPrice: price,
		Status:         "filled",
		Timestamp:      g.now().UTC(),
	}
	g.orders[fill.OrderID] = fill

	g.logger.Info().
		Str("order_id", fill.OrderID).
		Str("symbol", spec.Symbol).
		Str("side", string(spec.Side)).
		Float64("quantity", spec.Quantity).
		Float64("price", price).
		Msg("Paper order filled")

	return &fill, nil
}

// CancelOrder always fails for known orders since paper orders fill at once
func (g *Gateway) CancelOrder(_ context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.orders[orderID]; !ok {
		return &models.GatewayError{Gateway: "paper", Op: "cancel order", StatusCode: 404, Err: fmt.Errorf("order %s not found", orderID)}
	}
	return &models.GatewayError{Gateway: "paper", Op: "cancel order", StatusCode: 422, Err: fmt.Errorf("order %s already filled", orderID)}
}

// GetOrder returns a previously placed order
func (g *Gateway) GetOrder(_ context.Context, orderID string) (*models.OrderFill, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fill, ok := g.orders[orderID]
	if !ok {
		return nil, &models.GatewayError{Gateway: "paper", Op: "get order", StatusCode: 404, Err: fmt.Errorf("order %s not found", orderID)}
	}
	return &fill, nil
}
