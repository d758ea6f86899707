package trading

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Alias1177/SignalTrader/internal/trading/risk"
	"github.com/Alias1177/SignalTrader/models"
)

const (
	// SweepWindow is how far back the sweep looks for signals
	SweepWindow = 24 * time.Hour
	// SweepMinConfidence is the lowest signal confidence the sweep acts on
	SweepMinConfidence = 0.7
)

// PortfolioRef names one portfolio for a multi-portfolio sweep
type PortfolioRef struct {
	UserID      string
	PortfolioID string
}

// ProcessAutomatedTrading executes recent high-confidence buy signals for
// one portfolio. Signals run one after another, strongest first; a failed
// signal is recorded and the sweep moves on. Sizing uses the metrics read
// once at the start of the sweep while each trade is still risk-gated
// against live metrics inside ExecuteTrade.
func (e *Engine) ProcessAutomatedTrading(ctx context.Context, userID, portfolioID string) (*models.SweepResult, error) {
	logger := e.logger.With().Str("user_id", userID).Str("portfolio_id", portfolioID).Logger()

	signals, err := e.store.GetRecentHighConfidenceSignals(ctx, SweepWindow, SweepMinConfidence)
	if err != nil {
		return nil, fmt.Errorf("automated trading processing failed: %w", err)
	}

	metrics, err := e.store.GetMetrics(ctx, userID, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("automated trading processing failed: %w", err)
	}

	candidates := make([]models.TradingSignal, 0, len(signals))
	for _, s := range signals {
		if s.Action == models.ActionBuy && s.Confidence >= SweepMinConfidence {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	result := &models.SweepResult{Results: []models.SweepItem{}}
	for _, signal := range candidates {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Int("remaining", len(candidates)-result.Processed).Msg("Sweep interrupted")
			break
		}
		result.Processed++

		params, ok := e.sweepTrade(signal, metrics.TotalValue, userID, portfolioID)
		if !ok {
			result.Failed++
			result.Results = append(result.Results, models.SweepItem{
				SignalID: signal.ID,
				Symbol:   signal.Symbol,
				Success:  false,
				Error:    "Position size too small",
			})
			continue
		}

		trade := e.ExecuteTrade(ctx, params)
		if trade.Success {
			result.Executed++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, models.SweepItem{
			SignalID: signal.ID,
			Symbol:   signal.Symbol,
			Success:  trade.Success,
			Error:    trade.Error,
			OrderID:  trade.OrderID,
		})
	}

	logger.Info().
		Int("processed", result.Processed).
		Int("executed", result.Executed).
		Int("failed", result.Failed).
		Msg("Automated trading sweep finished")

	return result, nil
}

// sweepTrade sizes a limit buy for signal. Sizing divides by the target
// price, falling back to SMA20 and then the signal price.
func (e *Engine) sweepTrade(signal models.TradingSignal, totalValue float64, userID, portfolioID string) (models.TradeParams, bool) {
	sizingPrice := deref(signal.TargetPrice)
	if sizingPrice <= 0 && signal.Indicators.SMA20 != nil {
		sizingPrice = signal.Indicators.SMA20.Value
	}
	if sizingPrice <= 0 {
		sizingPrice = signal.Price
	}

	sizing := risk.CalculatePositionSize(totalValue, e.limits.RiskPerTrade, sizingPrice, signal.AssetType)
	if sizing.Quantity <= 0 || signal.Price <= 0 {
		return models.TradeParams{}, false
	}

	stopLoss := signal.StopLoss
	if stopLoss == nil {
		stopLoss = models.Float(risk.DetermineStopLoss(signal.Price, signal.Indicators.ATR, models.ActionBuy, e.limits.StopLossPercentage))
	}
	takeProfit := signal.TakeProfit
	if takeProfit == nil {
		takeProfit = models.Float(signal.Price * (1 + e.limits.TakeProfitPercentage/100))
	}

	return models.TradeParams{
		Symbol:      signal.Symbol,
		AssetType:   signal.AssetType,
		Action:      models.ActionBuy,
		Quantity:    sizing.Quantity,
		Price:       models.Float(signal.Price),
		OrderType:   models.OrderLimit,
		StopLoss:    stopLoss,
		TakeProfit:  takeProfit,
		UserID:      userID,
		PortfolioID: portfolioID,
		SignalID:    signal.ID,
	}, true
}

// SweepPortfolios runs ProcessAutomatedTrading for distinct portfolios in
// parallel, at most concurrency at a time. Each portfolio is still swept
// sequentially. Duplicate portfolio IDs are swept once.
func (e *Engine) SweepPortfolios(ctx context.Context, refs []PortfolioRef, concurrency int) (map[string]*models.SweepResult, map[string]error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]*models.SweepResult)
		errs    = make(map[string]error)
		seen    = make(map[string]bool)
		slots   = make(chan struct{}, concurrency)
	)

	for _, ref := range refs {
		if seen[ref.PortfolioID] {
			continue
		}
		seen[ref.PortfolioID] = true

		wg.Add(1)
		go func(ref PortfolioRef) {
			defer wg.Done()
			slots <- struct{}{}
			defer func() { <-slots }()

			res, err := e.ProcessAutomatedTrading(ctx, ref.UserID, ref.PortfolioID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[ref.PortfolioID] = err
				return
			}
			results[ref.PortfolioID] = res
		}(ref)
	}

	wg.Wait()
	return results, errs
}
