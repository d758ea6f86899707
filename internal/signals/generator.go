// Package signals turns an IndicatorSet into a weighted buy/sell/hold
// recommendation with risk levels and a suggested position size.
package signals

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Alias1177/SignalTrader/models"
)

// DefaultPortfolioValue sizes the suggestion when the caller gives none
const DefaultPortfolioValue = 100000

// Request is one GenerateSignal call. Weights and Risk override the
// generator defaults when set.
type Request struct {
	Symbol         string
	AssetType      models.AssetType
	Indicators     models.IndicatorSet
	Bars           []models.PriceBar
	CurrentPrice   float64
	PortfolioValue float64
	Weights        *models.StrategyWeights
	Risk           *models.RiskParameters
}

// Generator combines strategy votes into TradingSignals. It holds no
// mutable state and is safe for concurrent use.
type Generator struct {
	weights models.StrategyWeights
	risk    models.RiskParameters
	now     func() time.Time
}

// NewGenerator creates a generator with the given default profile
func NewGenerator(weights models.StrategyWeights, risk models.RiskParameters) *Generator {
	return &Generator{weights: weights, risk: risk, now: time.Now}
}

// NewDefaultGenerator uses DefaultStrategyWeights and DefaultRiskParameters
func NewDefaultGenerator() *Generator {
	return NewGenerator(models.DefaultStrategyWeights(), models.DefaultRiskParameters())
}

// Weights returns the default weights of the generator
func (g *Generator) Weights() models.StrategyWeights { return g.weights }

// Risk returns the default risk profile of the generator
func (g *Generator) Risk() models.RiskParameters { return g.risk }

// GenerateSignal evaluates all strategies and folds their weighted
// confidence into a single signal.
func (g *Generator) GenerateSignal(req Request) (*models.TradingSignal, error) {
	weights := g.weights
	if req.Weights != nil {
		weights = *req.Weights
	}
	risk := g.risk
	if req.Risk != nil {
		risk = *req.Risk
	}

	if err := validateRequest(req, weights); err != nil {
		return nil, err
	}

	portfolioValue := req.PortfolioValue
	if portfolioValue <= 0 {
		portfolioValue = DefaultPortfolioValue
	}

	results := Evaluate(Input{Indicators: req.Indicators, Bars: req.Bars, Price: req.CurrentPrice}, weights)

	var buyScore, sellScore float64
	reasoning := make([]string, 0, len(results)*2)
	for _, r := range results {
		switch r.Action {
		case models.ActionBuy:
			buyScore += r.Confidence * r.Weight
		case models.ActionSell:
			sellScore += r.Confidence * r.Weight
		}
		for _, line := range r.Reasoning {
			reasoning = append(reasoning, r.Name+": "+line)
		}
	}

	action := models.ActionHold
	var confidence float64
	switch {
	case buyScore > sellScore && buyScore > risk.MinConfidence:
		action = models.ActionBuy
		confidence = math.Min(buyScore, 1)
	case sellScore > buyScore && sellScore > risk.MinConfidence:
		action = models.ActionSell
		confidence = math.Min(sellScore, 1)
	default:
		confidence = math.Min(math.Abs(buyScore-sellScore), 1)
		reasoning = append(reasoning, "Signal confidence below minimum threshold")
	}

	now := g.now()
	signal := &models.TradingSignal{
		ID:         fmt.Sprintf("%s_%s_%d", req.Symbol, req.AssetType, now.UnixMilli()),
		Symbol:     req.Symbol,
		AssetType:  req.AssetType,
		Action:     action,
		Confidence: confidence,
		Reasoning:  reasoning,
		Price:      req.CurrentPrice,
		Timestamp:  now,
		Indicators: req.Indicators,
		Strategies: results,
	}

	if action != models.ActionHold {
		stopLoss, takeProfit := RiskLevels(req.CurrentPrice, action, risk)
		size := PositionSize(portfolioValue, req.CurrentPrice, stopLoss, risk)
		signal.StopLoss = models.Float(stopLoss)
		signal.TakeProfit = models.Float(takeProfit)
		signal.TargetPrice = models.Float(takeProfit)
		signal.PositionSize = models.Float(size)
	}

	return signal, nil
}

// RiskLevels returns the stop-loss and take-profit prices for an entry.
// A sell mirrors a buy around the entry price.
func RiskLevels(entryPrice float64, action models.Action, risk models.RiskParameters) (stopLoss, takeProfit float64) {
	stopDistance := entryPrice * (risk.StopLossPercentage / 100)
	profitDistance := stopDistance * risk.TakeProfitRatio

	if action == models.ActionSell {
		return entryPrice + stopDistance, entryPrice - profitDistance
	}
	return entryPrice - stopDistance, entryPrice + profitDistance
}

// PositionSize suggests whole units: the smaller of the portfolio-share cap
// and the amount that loses stopLossPercentage of the portfolio at the stop.
func PositionSize(portfolioValue, entryPrice, stopLoss float64, risk models.RiskParameters) float64 {
	if entryPrice <= 0 || portfolioValue <= 0 {
		return 0
	}

	maxShares := portfolioValue * (risk.MaxPositionSize / 100) / entryPrice

	riskPerShare := math.Abs(entryPrice - stopLoss)
	if riskPerShare > 0 {
		riskAmount := portfolioValue * (risk.StopLossPercentage / 100)
		maxShares = math.Min(maxShares, riskAmount/riskPerShare)
	}

	return math.Max(0, math.Floor(maxShares))
}

func validateRequest(req Request, weights models.StrategyWeights) error {
	var reasons []string

	if strings.TrimSpace(req.Symbol) == "" {
		reasons = append(reasons, "symbol is required")
	}
	if !req.AssetType.Valid() {
		reasons = append(reasons, fmt.Sprintf("invalid asset type %q", req.AssetType))
	}
	if req.CurrentPrice <= 0 || math.IsNaN(req.CurrentPrice) || math.IsInf(req.CurrentPrice, 0) {
		reasons = append(reasons, "current price must be positive")
	}

	named := []struct {
		name  string
		value float64
	}{
		{"macd", weights.MACD},
		{"rsi", weights.RSI},
		{"stochastic", weights.Stochastic},
		{"bollingerBands", weights.BollingerBands},
		{"movingAverages", weights.MovingAverages},
		{"volume", weights.Volume},
	}
	for _, w := range named {
		if w.value < 0 || w.value > 1 || math.IsNaN(w.value) {
			reasons = append(reasons, fmt.Sprintf("weight %s must be within [0,1]", w.name))
		}
	}

	if len(reasons) > 0 {
		return &models.ValidationError{Reasons: reasons}
	}
	return nil
}
