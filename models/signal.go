package models

import "time"

// StrategyResult is the vote of one strategy evaluator
type StrategyResult struct {
	Name       string   `json:"name"`
	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"`
	Weight     float64  `json:"weight"`
	Reasoning  []string `json:"reasoning"`
}

// TradingSignal is the combined recommendation for one symbol.
// StopLoss, TakeProfit and TargetPrice are set only when Action is not hold.
type TradingSignal struct {
	ID           string           `json:"id"`
	Symbol       string           `json:"symbol"`
	AssetType    AssetType        `json:"assetType"`
	Action       Action           `json:"action"`
	Confidence   float64          `json:"confidence"`
	Reasoning    []string         `json:"reasoning"`
	Price        float64          `json:"price"`
	TargetPrice  *float64         `json:"targetPrice,omitempty"`
	StopLoss     *float64         `json:"stopLoss,omitempty"`
	TakeProfit   *float64         `json:"takeProfit,omitempty"`
	PositionSize *float64         `json:"positionSize,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
	Indicators   IndicatorSet     `json:"indicators"`
	Strategies   []StrategyResult `json:"strategies"`
}

// StrategyWeights are the static per-strategy voting weights.
// They are not renormalised; a custom set may sum to anything.
type StrategyWeights struct {
	MACD           float64 `json:"macd" yaml:"macd"`
	RSI            float64 `json:"rsi" yaml:"rsi"`
	Stochastic     float64 `json:"stochastic" yaml:"stochastic"`
	BollingerBands float64 `json:"bollingerBands" yaml:"bollinger_bands"`
	MovingAverages float64 `json:"movingAverages" yaml:"moving_averages"`
	Volume         float64 `json:"volume" yaml:"volume"`
}

// DefaultStrategyWeights sum to 1.0
func DefaultStrategyWeights() StrategyWeights {
	return StrategyWeights{
		MACD:           0.25,
		RSI:            0.20,
		Stochastic:     0.15,
		BollingerBands: 0.20,
		MovingAverages: 0.15,
		Volume:         0.05,
	}
}

// RiskParameters drive signal-level risk levels and sizing suggestions
type RiskParameters struct {
	MaxPositionSize    float64 `json:"maxPositionSize" yaml:"max_position_size"`       // percent of portfolio
	StopLossPercentage float64 `json:"stopLossPercentage" yaml:"stop_loss_percentage"` // percent of entry
	TakeProfitRatio    float64 `json:"takeProfitRatio" yaml:"take_profit_ratio"`       // multiple of stop distance
	MaxDailyLoss       float64 `json:"maxDailyLoss" yaml:"max_daily_loss"`
	MaxDrawdown        float64 `json:"maxDrawdown" yaml:"max_drawdown"`
	MinConfidence      float64 `json:"minConfidence" yaml:"min_confidence"`
}

// DefaultRiskParameters returns the signal generator defaults
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		MaxPositionSize:    5,
		StopLossPercentage: 2,
		TakeProfitRatio:    3,
		MaxDailyLoss:       10,
		MaxDrawdown:        20,
		MinConfidence:      0.65,
	}
}

// SignalValidation is the advisory quality report for a signal
type SignalValidation struct {
	Valid           bool     `json:"valid"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}
