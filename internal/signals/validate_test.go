package signals

import (
	"testing"

	"github.com/Alias1177/SignalTrader/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSignal(t *testing.T) {
	strong, err := testGenerator().GenerateSignal(Request{
		Symbol:       "AAPL",
		AssetType:    models.AssetStock,
		Indicators:   bullishSet(),
		Bars:         flatBars(25, 90, 1000),
		CurrentPrice: 90,
	})
	require.NoError(t, err)

	empty, err := testGenerator().GenerateSignal(Request{
		Symbol:       "AAPL",
		AssetType:    models.AssetStock,
		CurrentPrice: 90,
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		signal *models.TradingSignal
		valid  bool
		issues []string
	}{
		{
			name:   "strong consensus",
			signal: strong,
			valid:  true,
			issues: []string{},
		},
		{
			name:   "everything abstains",
			signal: empty,
			valid:  false,
			issues: []string{"Low confidence signal", "Limited strategy consensus"},
		},
		{
			name: "missing risk levels",
			signal: &models.TradingSignal{
				Action:     models.ActionBuy,
				Confidence: 0.9,
				Strategies: strong.Strategies,
			},
			valid:  false,
			issues: []string{"Missing risk management levels"},
		},
		{
			name: "two active strategies",
			signal: &models.TradingSignal{
				Action:     models.ActionHold,
				Confidence: 0.6,
				Strategies: []models.StrategyResult{
					{Name: StrategyMACD, Confidence: 0.9},
					{Name: StrategyRSI, Confidence: 0.8},
					{Name: StrategyVolume, Confidence: 0.3},
				},
			},
			valid:  false,
			issues: []string{"Limited strategy consensus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateSignal(tt.signal)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.issues, got.Issues)
			assert.Len(t, got.Recommendations, len(tt.issues))
		})
	}
}
