package analyze

import (
	"github.com/Alias1177/SignalTrader/internal/indicators"
	"github.com/Alias1177/SignalTrader/models"
)

// MarketContext is descriptive output next to a signal. It does not feed
// into the signal decision.
type MarketContext struct {
	OrderFlow        string  `json:"orderFlow"`
	VolumeWeighted   float64 `json:"volumeWeightedPrice"`
	VolatilityRegime string  `json:"volatilityRegime"`
	ExpectedMove     float64 `json:"expectedMove"`
	RangeHigh        float64 `json:"rangeHigh"`
	RangeLow         float64 `json:"rangeLow"`
}

func describeMarket(bars []models.PriceBar) MarketContext {
	var mc MarketContext
	mc.OrderFlow, mc.VolumeWeighted = analyzeOrderFlow(bars)
	mc.VolatilityRegime, mc.ExpectedMove = assessVolatilityConditions(bars)
	mc.RangeHigh, mc.RangeLow = recentRange(bars, 10)
	return mc
}

// analyzeOrderFlow classifies the last five bars by up and down volume
func analyzeOrderFlow(bars []models.PriceBar) (string, float64) {
	if len(bars) < 5 {
		return "NO_VOLUME_DATA", 0
	}

	// Check if we have volume data
	recent := bars[len(bars)-5:]
	for _, b := range recent {
		if b.Volume == 0 {
			return "NO_VOLUME_DATA", 0
		}
	}

	var totalVolume, volumeWeightedPrice, upVolume, downVolume float64
	for _, b := range recent {
		volumeWeightedPrice += b.Close * b.Volume
		totalVolume += b.Volume
		if b.Close > b.Open {
			upVolume += b.Volume
		} else {
			downVolume += b.Volume
		}
	}
	volumeWeightedPrice /= totalVolume

	volumeRatio := upVolume / (upVolume + downVolume)

	flowDirection := "NEUTRAL"
	if volumeRatio > 0.65 {
		flowDirection = "BULLISH"
	} else if volumeRatio < 0.35 {
		flowDirection = "BEARISH"
	}

	return flowDirection, volumeWeightedPrice
}

// assessVolatilityConditions compares short and long ATR
func assessVolatilityConditions(bars []models.PriceBar) (string, float64) {
	h, l, c := make([]float64, len(bars)), make([]float64, len(bars)), make([]float64, len(bars))
	for i, b := range bars {
		h[i], l[i], c[i] = b.High, b.Low, b.Close
	}

	atr5, ok5 := indicators.ATR(h, l, c, 5).Last()
	atr20, ok20 := indicators.ATR(h, l, c, 20).Last()
	if !ok5 || !ok20 || atr20 == 0 {
		return "UNKNOWN", atr5
	}

	volatilityRatio := atr5 / atr20

	volatilityRegime := "NORMAL"
	if volatilityRatio > 1.5 {
		volatilityRegime = "HIGH"
	} else if volatilityRatio < 0.7 {
		volatilityRegime = "LOW"
	}

	return volatilityRegime, atr5
}

func recentRange(bars []models.PriceBar, n int) (float64, float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	if n > len(bars) {
		n = len(bars)
	}

	window := bars[len(bars)-n:]
	highestHigh, lowestLow := window[0].High, window[0].Low
	for _, b := range window[1:] {
		if b.High > highestHigh {
			highestHigh = b.High
		}
		if b.Low < lowestLow {
			lowestLow = b.Low
		}
	}
	return highestHigh, lowestLow
}
