// Package trading validates, risk-checks and executes trades against the
// stock and crypto execution gateways, and runs the automated signal sweep.
package trading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalTrader/internal/trading/risk"
	"github.com/Alias1177/SignalTrader/models"
)

const (
	defaultGatewayTimeout    = 30 * time.Second
	defaultPostCommitTimeout = 15 * time.Second

	// cryptoFeeEstimate is charged when the crypto venue reports no fee
	cryptoFeeEstimate = 0.25
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Limits            risk.Limits
	GatewayTimeout    time.Duration
	PostCommitTimeout time.Duration
	// Quotes price market orders that carry no explicit price
	Quotes   map[models.AssetType]models.MarketDataSource
	Notifier FillNotifier
}

// Engine executes single trades. It keeps no per-portfolio state and holds
// no lock across collaborator calls, so concurrent ExecuteTrade calls are
// allowed.
type Engine struct {
	stocks   StockGateway
	crypto   CryptoGateway
	store    PortfolioStore
	quotes   map[models.AssetType]models.MarketDataSource
	notifier FillNotifier
	limits   risk.Limits

	gatewayTimeout    time.Duration
	postCommitTimeout time.Duration

	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewEngine wires the engine to its collaborators
func NewEngine(stocks StockGateway, crypto CryptoGateway, store PortfolioStore, opts Options) *Engine {
	if opts.Limits == (risk.Limits{}) {
		opts.Limits = risk.DefaultLimits()
	}
	if opts.GatewayTimeout == 0 {
		opts.GatewayTimeout = defaultGatewayTimeout
	}
	if opts.PostCommitTimeout == 0 {
		opts.PostCommitTimeout = defaultPostCommitTimeout
	}

	return &Engine{
		stocks:            stocks,
		crypto:            crypto,
		store:             store,
		quotes:            opts.Quotes,
		notifier:          opts.Notifier,
		limits:            opts.Limits,
		gatewayTimeout:    opts.GatewayTimeout,
		postCommitTimeout: opts.PostCommitTimeout,
		logger:            log.With().Str("component", "trading_engine").Logger(),
		now:               time.Now,
		newID:             func() string { return uuid.NewString() },
	}
}

// Limits returns the risk settings in force
func (e *Engine) Limits() risk.Limits { return e.limits }

// ExecuteTrade runs one trade through validation, account checks, risk
// gates and dispatch, in that order, stopping at the first failure. It
// never returns an error: every outcome is a TradeResult.
func (e *Engine) ExecuteTrade(ctx context.Context, params models.TradeParams) models.TradeResult {
	logger := e.logger.With().
		Str("symbol", params.Symbol).
		Str("asset_type", string(params.AssetType)).
		Str("action", string(params.Action)).
		Float64("quantity", params.Quantity).
		Str("portfolio_id", params.PortfolioID).
		Logger()

	if reasons := tradeParamErrors(params); len(reasons) > 0 {
		return e.reject(logger, "Trade validation failed: "+strings.Join(reasons, ", "))
	}

	account, msg := e.checkAccount(ctx, params)
	if msg != "" {
		return e.reject(logger, msg)
	}

	price, err := e.referencePrice(ctx, params)
	if err != nil {
		logger.Warn().Err(err).Msg("No reference price")
		return e.reject(logger, fmt.Sprintf("Unable to determine reference price for %s", params.Symbol))
	}

	if account != nil && params.Action == models.ActionBuy && params.Quantity*price > account.BuyingPower {
		return e.reject(logger, "Trade validation failed: Insufficient buying power for this trade")
	}

	metrics, err := e.store.GetMetrics(ctx, params.UserID, params.PortfolioID)
	if err == nil && metrics == nil {
		err = fmt.Errorf("no metrics for portfolio %s", params.PortfolioID)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load portfolio metrics")
		violation := &models.RiskViolationError{Reason: "Failed to evaluate risk management constraints"}
		return e.reject(logger, violation.Error())
	}
	if violation := e.limits.Check(*metrics, risk.Order{Action: params.Action, Quantity: params.Quantity, Price: price}); violation != nil {
		return e.reject(logger, violation.Error())
	}

	gateway := e.gateway(params.AssetType)
	spec := BuildOrderSpec(params, e.newID())

	result, ok := e.dispatch(ctx, logger, gateway, params, spec)
	if !ok {
		return result
	}

	logger.Info().Str("order_id", result.OrderID).Float64("executed_price", deref(result.ExecutedPrice)).Msg("Trade filled")
	return e.postCommit(ctx, logger, params, result, price)
}

func (e *Engine) reject(logger zerolog.Logger, msg string) models.TradeResult {
	logger.Info().Str("reason", msg).Msg("Trade rejected")
	return models.TradeResult{
		Success:   false,
		Status:    models.TradeRejected,
		Error:     msg,
		Timestamp: e.now(),
	}
}

// checkAccount returns the stock account for the buying-power check, or a
// rejection message. Crypto has no account snapshot.
func (e *Engine) checkAccount(ctx context.Context, params models.TradeParams) (*models.Account, string) {
	const prefix = "Failed to validate account status"

	if params.AssetType == models.AssetCrypto {
		if e.crypto == nil || !e.crypto.IsConfigured() {
			return nil, prefix + ": Crypto trading not configured"
		}
		return nil, ""
	}

	if e.stocks == nil {
		return nil, prefix + ": Stock trading not configured"
	}

	gctx, cancel := context.WithTimeout(ctx, e.gatewayTimeout)
	defer cancel()

	account, err := e.stocks.GetAccount(gctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("Account lookup failed")
		return nil, prefix
	}
	if account == nil || account.Status != models.AccountActive {
		return nil, prefix + ": Account not active"
	}
	return account, ""
}

// referencePrice is the per-unit price used for buying power and position
// sizing: the explicit price if given, otherwise the latest quote.
// Sells are never priced since no gate needs it.
func (e *Engine) referencePrice(ctx context.Context, params models.TradeParams) (float64, error) {
	if params.Price != nil && *params.Price > 0 {
		return *params.Price, nil
	}
	if params.Action != models.ActionBuy {
		return 0, nil
	}

	source, ok := e.quotes[params.AssetType]
	if !ok || source == nil {
		return 0, fmt.Errorf("no quote source for %s", params.AssetType)
	}

	qctx, cancel := context.WithTimeout(ctx, e.gatewayTimeout)
	defer cancel()

	quote, err := source.GetLatestQuote(qctx, params.Symbol)
	if err != nil {
		return 0, err
	}
	if quote == nil || quote.Price <= 0 {
		return 0, fmt.Errorf("quote for %s has no price", params.Symbol)
	}
	return quote.Price, nil
}

func (e *Engine) gateway(assetType models.AssetType) ExecutionGateway {
	if assetType == models.AssetCrypto {
		return e.crypto
	}
	return e.stocks
}

// dispatch runs the gateway's own validation and then places the order.
// The returned bool is false when the result is terminal.
func (e *Engine) dispatch(ctx context.Context, logger zerolog.Logger, gateway ExecutionGateway,
	params models.TradeParams, spec models.OrderSpec) (models.TradeResult, bool) {

	gctx, cancel := context.WithTimeout(ctx, e.gatewayTimeout)
	defer cancel()

	venue := "Stock"
	if params.AssetType == models.AssetCrypto {
		venue = "Crypto"
	}

	validation, err := gateway.ValidateOrder(gctx, spec)
	if err != nil {
		return e.gatewayFailure(logger, fmt.Sprintf("%s trade execution failed: %v", venue, err)), false
	}
	if !validation.Valid {
		return e.reject(logger, "Order validation failed: "+strings.Join(validation.Errors, ", ")), false
	}

	fill, err := gateway.PlaceOrder(gctx, spec)
	if err != nil {
		return e.gatewayFailure(logger, fmt.Sprintf("%s trade execution failed: %v", venue, err)), false
	}
	if fill == nil {
		return e.gatewayFailure(logger, fmt.Sprintf("%s trade execution failed: empty order response", venue)), false
	}
	if fill.FilledQty == 0 && !orderClosed(fill.Status) {
		fill = e.confirmFill(gctx, logger, gateway, fill)
	}
	if orderClosed(fill.Status) && fill.FilledQty == 0 {
		return e.gatewayFailure(logger, fmt.Sprintf("%s trade execution failed: order %s %s", venue, fill.OrderID, fill.Status)), false
	}

	fees := fill.Fees
	if fees == 0 && params.AssetType == models.AssetCrypto {
		fees = cryptoFeeEstimate
	}
	ts := fill.Timestamp
	if ts.IsZero() {
		ts = e.now()
	}

	return models.TradeResult{
		Success:          true,
		Status:           models.TradeFilled,
		OrderID:          fill.OrderID,
		ExecutedPrice:    models.Float(fill.FilledAvgPrice),
		ExecutedQuantity: models.Float(fill.FilledQty),
		Fees:             models.Float(fees),
		Timestamp:        ts,
	}, true
}

// confirmFill re-reads an order the venue acknowledged without a fill.
// A failed lookup keeps the acknowledgement.
func (e *Engine) confirmFill(ctx context.Context, logger zerolog.Logger, gateway ExecutionGateway, ack *models.OrderFill) *models.OrderFill {
	current, err := gateway.GetOrder(ctx, ack.OrderID)
	if err != nil || current == nil {
		logger.Warn().Err(err).Str("order_id", ack.OrderID).Msg("Could not confirm order state")
		return ack
	}
	if current.OrderID == "" {
		current.OrderID = ack.OrderID
	}
	return current
}

func (e *Engine) gatewayFailure(logger zerolog.Logger, msg string) models.TradeResult {
	logger.Error().Str("reason", msg).Msg("Gateway error")
	return models.TradeResult{
		Success:   false,
		Status:    models.TradeGatewayError,
		Error:     msg,
		Timestamp: e.now(),
	}
}

// postCommit records a filled trade. The order already executed, so a
// failure here downgrades the status to Filled instead of failing the trade.
// It runs detached from the caller's cancellation.
func (e *Engine) postCommit(ctx context.Context, logger zerolog.Logger, params models.TradeParams,
	result models.TradeResult, referencePrice float64) models.TradeResult {

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.postCommitTimeout)
	defer cancel()

	record := e.tradeRecord(params, result, referencePrice)

	var problems []string
	if err := e.store.AppendTrade(pctx, record); err != nil {
		logger.Warn().Err(err).Str("order_id", result.OrderID).Msg("Failed to log trade")
		problems = append(problems, "append trade: "+err.Error())
	}
	if err := e.store.RecomputePerformance(pctx, params.PortfolioID); err != nil {
		logger.Warn().Err(err).Str("order_id", result.OrderID).Msg("Failed to update portfolio")
		problems = append(problems, "recompute performance: "+err.Error())
	}

	if len(problems) == 0 {
		result.Status = models.TradeReconciled
	} else {
		result.ReconcileError = strings.Join(problems, "; ")
	}

	if e.notifier != nil {
		if err := e.notifier.NotifyFill(pctx, params, result); err != nil {
			logger.Warn().Err(err).Msg("Fill notification failed")
		}
	}

	return result
}

func (e *Engine) tradeRecord(params models.TradeParams, result models.TradeResult, referencePrice float64) models.TradeRecord {
	quantity := deref(result.ExecutedQuantity)
	if quantity == 0 {
		quantity = params.Quantity
	}
	price := deref(result.ExecutedPrice)
	if price == 0 {
		price = referencePrice
	}

	return models.TradeRecord{
		ID:              e.newID(),
		PortfolioID:     params.PortfolioID,
		SignalID:        params.SignalID,
		Symbol:          params.Symbol,
		AssetType:       params.AssetType,
		Action:          params.Action,
		Quantity:        quantity,
		Price:           price,
		OrderType:       params.OrderType,
		StopLoss:        params.StopLoss,
		TakeProfit:      params.TakeProfit,
		Fees:            deref(result.Fees),
		ExternalOrderID: result.OrderID,
		Status:          "executed",
		Timestamp:       result.Timestamp,
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
