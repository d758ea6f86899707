package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Alias1177/SignalTrader/models"
)

// strategyFile is the YAML profile. Nil fields keep the default.
type strategyFile struct {
	Weights struct {
		MACD           *float64 `yaml:"macd" validate:"omitempty,gte=0,lte=1"`
		RSI            *float64 `yaml:"rsi" validate:"omitempty,gte=0,lte=1"`
		Stochastic     *float64 `yaml:"stochastic" validate:"omitempty,gte=0,lte=1"`
		BollingerBands *float64 `yaml:"bollinger_bands" validate:"omitempty,gte=0,lte=1"`
		MovingAverages *float64 `yaml:"moving_averages" validate:"omitempty,gte=0,lte=1"`
		Volume         *float64 `yaml:"volume" validate:"omitempty,gte=0,lte=1"`
	} `yaml:"weights"`
	Risk struct {
		MaxPositionSize    *float64 `yaml:"max_position_size" validate:"omitempty,gt=0,lte=100"`
		StopLossPercentage *float64 `yaml:"stop_loss_percentage" validate:"omitempty,gt=0,lte=100"`
		TakeProfitRatio    *float64 `yaml:"take_profit_ratio" validate:"omitempty,gt=0"`
		MaxDailyLoss       *float64 `yaml:"max_daily_loss" validate:"omitempty,gt=0"`
		MaxDrawdown        *float64 `yaml:"max_drawdown" validate:"omitempty,gt=0"`
		MinConfidence      *float64 `yaml:"min_confidence" validate:"omitempty,gte=0,lte=1"`
	} `yaml:"risk"`
}

// StrategyProfile is the signal generator configuration
type StrategyProfile struct {
	Weights models.StrategyWeights
	Risk    models.RiskParameters
}

// LoadStrategyProfile builds the profile from the defaults, then the YAML
// file named by STRATEGY_FILE, then the MIN_CONFIDENCE, STOP_LOSS_PCT and
// TAKE_PROFIT_RATIO overrides.
func (c *Config) LoadStrategyProfile() (StrategyProfile, error) {
	profile := StrategyProfile{
		Weights: models.DefaultStrategyWeights(),
		Risk:    models.DefaultRiskParameters(),
	}

	if c.StrategyFile != "" {
		raw, err := os.ReadFile(c.StrategyFile)
		if err != nil {
			return profile, fmt.Errorf("reading strategy file: %w", err)
		}
		if err := applyStrategyYAML(&profile, raw); err != nil {
			return profile, fmt.Errorf("strategy file %s: %w", c.StrategyFile, err)
		}
	}

	if c.MinConfidence > 0 {
		profile.Risk.MinConfidence = c.MinConfidence
	}
	if c.StopLossPct > 0 {
		profile.Risk.StopLossPercentage = c.StopLossPct
	}
	if c.TakeProfitRatio > 0 {
		profile.Risk.TakeProfitRatio = c.TakeProfitRatio
	}

	return profile, nil
}

func applyStrategyYAML(profile *StrategyProfile, raw []byte) error {
	var file strategyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return err
	}
	if err := validator.New().Struct(file); err != nil {
		return err
	}

	w, r := file.Weights, file.Risk
	override(&profile.Weights.MACD, w.MACD)
	override(&profile.Weights.RSI, w.RSI)
	override(&profile.Weights.Stochastic, w.Stochastic)
	override(&profile.Weights.BollingerBands, w.BollingerBands)
	override(&profile.Weights.MovingAverages, w.MovingAverages)
	override(&profile.Weights.Volume, w.Volume)

	override(&profile.Risk.MaxPositionSize, r.MaxPositionSize)
	override(&profile.Risk.StopLossPercentage, r.StopLossPercentage)
	override(&profile.Risk.TakeProfitRatio, r.TakeProfitRatio)
	override(&profile.Risk.MaxDailyLoss, r.MaxDailyLoss)
	override(&profile.Risk.MaxDrawdown, r.MaxDrawdown)
	override(&profile.Risk.MinConfidence, r.MinConfidence)
	return nil
}

func override(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
