package signals

import (
	"fmt"
	"math"

	"github.com/Alias1177/SignalTrader/models"
)

// Strategy names as they appear in StrategyResult and reasoning prefixes
const (
	StrategyMACD           = "MACD"
	StrategyRSI            = "RSI"
	StrategyStochastic     = "Stochastic"
	StrategyBollingerBands = "Bollinger Bands"
	StrategyMovingAverages = "Moving Averages"
	StrategyVolume         = "Volume Analysis"
)

// volumeLookback is the window for the average-volume ratio
const volumeLookback = 20

// Input is everything a strategy may look at. Strategies never mutate it.
type Input struct {
	Indicators models.IndicatorSet
	Bars       []models.PriceBar
	Price      float64
}

// vote is a strategy's raw opinion before the weight is attached
type vote struct {
	action     models.Action
	confidence float64
	reasoning  []string
}

type strategy struct {
	name     string
	weight   func(models.StrategyWeights) float64
	evaluate func(Input) vote
}

// strategies is evaluated in order; the order is visible in TradingSignal.Strategies.
var strategies = [...]strategy{
	{StrategyMACD, func(w models.StrategyWeights) float64 { return w.MACD }, evaluateMACD},
	{StrategyRSI, func(w models.StrategyWeights) float64 { return w.RSI }, evaluateRSI},
	{StrategyStochastic, func(w models.StrategyWeights) float64 { return w.Stochastic }, evaluateStochastic},
	{StrategyBollingerBands, func(w models.StrategyWeights) float64 { return w.BollingerBands }, evaluateBollinger},
	{StrategyMovingAverages, func(w models.StrategyWeights) float64 { return w.MovingAverages }, evaluateMovingAverages},
	{StrategyVolume, func(w models.StrategyWeights) float64 { return w.Volume }, evaluateVolume},
}

// Evaluate runs all six strategies with the given weights.
func Evaluate(in Input, weights models.StrategyWeights) []models.StrategyResult {
	results := make([]models.StrategyResult, 0, len(strategies))
	for _, s := range strategies {
		v := s.evaluate(in)
		results = append(results, models.StrategyResult{
			Name:       s.name,
			Action:     v.action,
			Confidence: clampConfidence(v.confidence),
			Weight:     s.weight(weights),
			Reasoning:  v.reasoning,
		})
	}
	return results
}

func abstain(what string) vote {
	return vote{action: models.ActionHold, reasoning: []string{what + " data not available"}}
}

func evaluateMACD(in Input) vote {
	m := in.Indicators.MACD
	if m == nil {
		return abstain("MACD")
	}

	v := vote{action: models.ActionHold}
	switch {
	case m.MACD > m.Signal && m.Histogram > 0:
		v.action = models.ActionBuy
		v.confidence = 0.6
		v.reasoning = append(v.reasoning, "MACD line crossed above signal line")
		if math.Abs(m.Histogram) > 0.001 {
			v.confidence += 0.2
			v.reasoning = append(v.reasoning, "Strong positive histogram momentum")
		}
	case m.MACD < m.Signal && m.Histogram < 0:
		v.action = models.ActionSell
		v.confidence = 0.6
		v.reasoning = append(v.reasoning, "MACD line crossed below signal line")
		if math.Abs(m.Histogram) > 0.001 {
			v.confidence += 0.2
			v.reasoning = append(v.reasoning, "Strong negative histogram momentum")
		}
	}

	// the zero-line bonus only counts when it agrees with the crossover
	if v.action == models.ActionBuy && m.MACD > 0 && m.Signal > 0 {
		v.confidence += 0.1
		v.reasoning = append(v.reasoning, "MACD in positive territory")
	} else if v.action == models.ActionSell && m.MACD < 0 && m.Signal < 0 {
		v.confidence += 0.1
		v.reasoning = append(v.reasoning, "MACD in negative territory")
	}

	return v
}

func evaluateRSI(in Input) vote {
	r := in.Indicators.RSI
	if r == nil {
		return abstain("RSI")
	}

	rsi := r.RSI
	v := vote{action: models.ActionHold}
	switch {
	case rsi < 30:
		v.action = models.ActionBuy
		v.confidence = 0.8
		v.reasoning = append(v.reasoning, fmt.Sprintf("RSI oversold at %.2f", rsi))
		if rsi < 20 {
			v.confidence = 1.0
			v.reasoning = append(v.reasoning, "Extremely oversold condition")
		}
	case rsi > 70:
		v.action = models.ActionSell
		v.confidence = 0.8
		v.reasoning = append(v.reasoning, fmt.Sprintf("RSI overbought at %.2f", rsi))
		if rsi > 80 {
			v.confidence = 1.0
			v.reasoning = append(v.reasoning, "Extremely overbought condition")
		}
	case rsi >= 40 && rsi <= 60:
		v.confidence = 0.3
		v.reasoning = append(v.reasoning, fmt.Sprintf("RSI neutral at %.2f", rsi))
	}
	return v
}

func evaluateStochastic(in Input) vote {
	s := in.Indicators.Stochastic
	if s == nil {
		return abstain("Stochastic")
	}

	k, d := s.K, s.D
	kd := fmt.Sprintf("(K=%.2f, D=%.2f)", k, d)
	switch {
	case k < 20 && d < 20 && k > d:
		return vote{models.ActionBuy, 0.9, []string{"Stochastic oversold with bullish crossover " + kd}}
	case k > 80 && d > 80 && k < d:
		return vote{models.ActionSell, 0.9, []string{"Stochastic overbought with bearish crossover " + kd}}
	case k < 20 && d < 20:
		return vote{models.ActionBuy, 0.6, []string{"Stochastic oversold " + kd}}
	case k > 80 && d > 80:
		return vote{models.ActionSell, 0.6, []string{"Stochastic overbought " + kd}}
	}
	return vote{action: models.ActionHold}
}

func evaluateBollinger(in Input) vote {
	bb := in.Indicators.BollingerBands
	if bb == nil {
		return abstain("Bollinger Bands")
	}

	v := vote{action: models.ActionHold}
	bandWidth := bb.Upper - bb.Lower
	if bandWidth <= 0 {
		v.reasoning = append(v.reasoning, "Bollinger Bands collapsed to a single price")
		return v
	}

	position := (in.Price - bb.Lower) / bandWidth
	switch {
	case position < 0.1:
		v.action = models.ActionBuy
		v.confidence = 0.8
		v.reasoning = append(v.reasoning, "Price near lower Bollinger Band (oversold)")
	case position > 0.9:
		v.action = models.ActionSell
		v.confidence = 0.8
		v.reasoning = append(v.reasoning, "Price near upper Bollinger Band (overbought)")
	case position >= 0.4 && position <= 0.6:
		v.confidence = 0.5
		v.reasoning = append(v.reasoning, "Price in middle of Bollinger Bands")
	}

	avgPrice := (bb.Upper + bb.Lower) / 2
	if avgPrice > 0 && bandWidth/avgPrice*100 < 10 {
		v.confidence += 0.2
		v.reasoning = append(v.reasoning, "Bollinger Band squeeze detected - volatility breakout expected")
	}
	return v
}

func evaluateMovingAverages(in Input) vote {
	ind := in.Indicators
	if ind.SMA20 == nil || ind.SMA50 == nil || ind.EMA12 == nil || ind.EMA26 == nil {
		return abstain("Moving averages")
	}

	sma20, sma50 := ind.SMA20.Value, ind.SMA50.Value
	ema12, ema26 := ind.EMA12.Value, ind.EMA26.Value

	v := vote{action: models.ActionHold}
	if sma20 > sma50 {
		v.action = models.ActionBuy
		v.confidence = 0.4
		v.reasoning = append(v.reasoning, "Golden Cross: SMA20 above SMA50")
	} else if sma20 < sma50 {
		v.action = models.ActionSell
		v.confidence = 0.4
		v.reasoning = append(v.reasoning, "Death Cross: SMA20 below SMA50")
	}

	switch {
	case ema12 > ema26 && v.action == models.ActionBuy:
		v.confidence += 0.3
		v.reasoning = append(v.reasoning, "EMA12 above EMA26 confirms bullish momentum")
	case ema12 > ema26 && v.action == models.ActionHold:
		v.action = models.ActionBuy
		v.confidence = 0.3
		v.reasoning = append(v.reasoning, "EMA12 above EMA26 indicates bullish momentum")
	case ema12 < ema26 && v.action == models.ActionSell:
		v.confidence += 0.3
		v.reasoning = append(v.reasoning, "EMA12 below EMA26 confirms bearish momentum")
	case ema12 < ema26 && v.action == models.ActionHold:
		v.action = models.ActionSell
		v.confidence = 0.3
		v.reasoning = append(v.reasoning, "EMA12 below EMA26 indicates bearish momentum")
	}
	return v
}

func evaluateVolume(in Input) vote {
	if in.Indicators.VWAP == nil || len(in.Bars) < volumeLookback {
		return abstain("Volume")
	}

	vwap := in.Indicators.VWAP.VWAP
	recent := in.Bars[len(in.Bars)-volumeLookback:]
	var total float64
	for _, b := range recent {
		total += b.Volume
	}
	avgVolume := total / float64(len(recent))
	current := in.Bars[len(in.Bars)-1]

	v := vote{action: models.ActionHold}
	if avgVolume > 0 {
		ratio := current.Volume / avgVolume
		if ratio > 1.5 {
			v.confidence += 0.3
			v.reasoning = append(v.reasoning, fmt.Sprintf("High volume confirmation (%.2fx average)", ratio))
		} else if ratio < 0.5 {
			v.confidence -= 0.2
			v.reasoning = append(v.reasoning, fmt.Sprintf("Low volume warning (%.2fx average)", ratio))
		}
	}

	price := current.Close
	if price > vwap*1.02 {
		v.action = models.ActionSell
		v.confidence += 0.4
		v.reasoning = append(v.reasoning, "Price above VWAP indicates selling pressure")
	} else if price < vwap*0.98 {
		v.action = models.ActionBuy
		v.confidence += 0.4
		v.reasoning = append(v.reasoning, "Price below VWAP indicates buying opportunity")
	}
	return v
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
