package risk

import (
	"math"

	"github.com/Alias1177/SignalTrader/models"
)

// cryptoPrecision is the number of decimals crypto venues accept for amounts
const cryptoPrecision = 8

// PositionSizingResult holds position sizing calculation results
type PositionSizingResult struct {
	PositionValue float64 `json:"position_value"`
	Quantity      float64 `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	AccountRisk   float64 `json:"account_risk"`
}

// CalculatePositionSize commits riskPerTrade percent of the portfolio at
// entryPrice. Stocks trade whole shares; crypto amounts are truncated to
// eight decimals. A zero quantity means the position is too small to place.
func CalculatePositionSize(totalValue, riskPerTrade, entryPrice float64, assetType models.AssetType) *PositionSizingResult {
	result := &PositionSizingResult{
		PositionValue: totalValue * (riskPerTrade / 100),
		EntryPrice:    entryPrice,
		AccountRisk:   riskPerTrade,
	}
	if entryPrice <= 0 || result.PositionValue <= 0 {
		return result
	}

	raw := result.PositionValue / entryPrice
	if assetType == models.AssetCrypto {
		scale := math.Pow(10, cryptoPrecision)
		result.Quantity = math.Floor(raw*scale) / scale
	} else {
		result.Quantity = math.Floor(raw)
	}
	return result
}

// DetermineStopLoss places a stop 1.5 ATR away from the entry, or falls
// back to a fixed percentage when no ATR is available.
func DetermineStopLoss(entryPrice float64, atr *models.ScalarValue, action models.Action, fallbackPct float64) float64 {
	distance := entryPrice * fallbackPct / 100
	if atr != nil && atr.Value > 0 {
		distance = atr.Value * 1.5
	}

	if action == models.ActionSell {
		return entryPrice + distance
	}
	return entryPrice - distance
}
