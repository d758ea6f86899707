package signals

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Alias1177/SignalTrader/internal/indicators"
	"github.com/Alias1177/SignalTrader/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

func testGenerator() *Generator {
	g := NewDefaultGenerator()
	g.now = func() time.Time { return fixedNow }
	return g
}

func generateTestBars(n int, generator func(int) models.PriceBar) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := 0; i < n; i++ {
		bars[i] = generator(i)
		bars[i].Timestamp = fixedNow.Add(time.Duration(i-n) * 24 * time.Hour)
	}
	return bars
}

func flatBars(n int, price, volume float64) []models.PriceBar {
	return generateTestBars(n, func(int) models.PriceBar {
		return models.PriceBar{Open: price, High: price, Low: price, Close: price, Volume: volume}
	})
}

// bullishSet votes buy on every strategy when the price is 90
func bullishSet() models.IndicatorSet {
	return models.IndicatorSet{
		Symbol:         "AAPL",
		MACD:           &models.MACDValue{MACD: 1, Signal: 0.5, Histogram: 0.5},
		RSI:            &models.RSIValue{RSI: 25},
		Stochastic:     &models.StochasticValue{K: 15, D: 10},
		BollingerBands: &models.BollingerValue{Upper: 110, Middle: 99.5, Lower: 89},
		SMA20:          &models.ScalarValue{Value: 105},
		SMA50:          &models.ScalarValue{Value: 100},
		EMA12:          &models.ScalarValue{Value: 104},
		EMA26:          &models.ScalarValue{Value: 101},
		VWAP:           &models.VWAPValue{VWAP: 100},
	}
}

// bearishSet votes sell on every strategy when the price is 110
func bearishSet() models.IndicatorSet {
	return models.IndicatorSet{
		Symbol:         "AAPL",
		MACD:           &models.MACDValue{MACD: -1, Signal: -0.5, Histogram: -0.5},
		RSI:            &models.RSIValue{RSI: 75},
		Stochastic:     &models.StochasticValue{K: 85, D: 90},
		BollingerBands: &models.BollingerValue{Upper: 111, Middle: 100.5, Lower: 90},
		SMA20:          &models.ScalarValue{Value: 95},
		SMA50:          &models.ScalarValue{Value: 100},
		EMA12:          &models.ScalarValue{Value: 96},
		EMA26:          &models.ScalarValue{Value: 99},
		VWAP:           &models.VWAPValue{VWAP: 100},
	}
}

func strategyByName(t *testing.T, signal *models.TradingSignal, name string) models.StrategyResult {
	t.Helper()
	for _, s := range signal.Strategies {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("strategy %s not found", name)
	return models.StrategyResult{}
}

func TestGenerateSignalBuy(t *testing.T) {
	signal, err := testGenerator().GenerateSignal(Request{
		Symbol:       "AAPL",
		AssetType:    models.AssetStock,
		Indicators:   bullishSet(),
		Bars:         flatBars(25, 90, 1000),
		CurrentPrice: 90,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ActionBuy, signal.Action)
	assert.InDelta(t, 0.805, signal.Confidence, 1e-9)
	assert.Equal(t, "AAPL_stock_"+strconv.FormatInt(fixedNow.UnixMilli(), 10), signal.ID)
	assert.Equal(t, fixedNow, signal.Timestamp)
	assert.Len(t, signal.Strategies, 6)

	require.NotNil(t, signal.StopLoss)
	require.NotNil(t, signal.TakeProfit)
	require.NotNil(t, signal.TargetPrice)
	assert.InDelta(t, 88.2, *signal.StopLoss, 1e-9)
	assert.InDelta(t, 95.4, *signal.TakeProfit, 1e-9)
	assert.Equal(t, *signal.TakeProfit, *signal.TargetPrice)

	require.NotNil(t, signal.PositionSize)
	assert.Equal(t, 55.0, *signal.PositionSize)

	assert.Contains(t, signal.Reasoning, "RSI: RSI oversold at 25.00")
	assert.NotContains(t, signal.Reasoning, "Signal confidence below minimum threshold")
}

func TestGenerateSignalSell(t *testing.T) {
	signal, err := testGenerator().GenerateSignal(Request{
		Symbol:       "BTCUSD",
		AssetType:    models.AssetCrypto,
		Indicators:   bearishSet(),
		Bars:         flatBars(25, 110, 1000),
		CurrentPrice: 110,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ActionSell, signal.Action)
	assert.InDelta(t, 0.805, signal.Confidence, 1e-9)
	require.NotNil(t, signal.StopLoss)
	require.NotNil(t, signal.TakeProfit)
	assert.InDelta(t, 112.2, *signal.StopLoss, 1e-9)
	assert.InDelta(t, 103.4, *signal.TakeProfit, 1e-9)
	assert.Equal(t, 45.0, *signal.PositionSize)
}

func TestGenerateSignalAllAbstain(t *testing.T) {
	signal, err := testGenerator().GenerateSignal(Request{
		Symbol:       "AAPL",
		AssetType:    models.AssetStock,
		CurrentPrice: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ActionHold, signal.Action)
	assert.Equal(t, 0.0, signal.Confidence)
	assert.Nil(t, signal.StopLoss)
	assert.Nil(t, signal.TakeProfit)
	assert.Nil(t, signal.TargetPrice)
	assert.Nil(t, signal.PositionSize)

	require.Len(t, signal.Strategies, 6)
	for _, s := range signal.Strategies {
		assert.Equal(t, models.ActionHold, s.Action, s.Name)
		assert.Equal(t, 0.0, s.Confidence, s.Name)
	}
	assert.Contains(t, signal.Reasoning, "MACD: MACD data not available")
	assert.Equal(t, "Signal confidence below minimum threshold", signal.Reasoning[len(signal.Reasoning)-1])
}

func TestCustomWeightsAreNotRenormalised(t *testing.T) {
	set := models.IndicatorSet{RSI: &models.RSIValue{RSI: 25}}
	req := Request{Symbol: "AAPL", AssetType: models.AssetStock, Indicators: set, CurrentPrice: 100}

	signal, err := testGenerator().GenerateSignal(req)
	require.NoError(t, err)
	assert.Equal(t, models.ActionHold, signal.Action, "0.8 x 0.20 stays under the threshold")
	assert.InDelta(t, 0.16, signal.Confidence, 1e-9)

	req.Weights = &models.StrategyWeights{RSI: 1}
	signal, err = testGenerator().GenerateSignal(req)
	require.NoError(t, err)
	assert.Equal(t, models.ActionBuy, signal.Action)
	assert.InDelta(t, 0.8, signal.Confidence, 1e-9)
	assert.Equal(t, 1.0, strategyByName(t, signal, StrategyRSI).Weight)
	assert.Equal(t, 0.0, strategyByName(t, signal, StrategyMACD).Weight)
}

func TestCustomRiskOverridesThreshold(t *testing.T) {
	risk := models.DefaultRiskParameters()
	risk.MinConfidence = 0.1

	signal, err := testGenerator().GenerateSignal(Request{
		Symbol:       "AAPL",
		AssetType:    models.AssetStock,
		Indicators:   models.IndicatorSet{RSI: &models.RSIValue{RSI: 25}},
		CurrentPrice: 100,
		Risk:         &risk,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActionBuy, signal.Action)
	assert.NotNil(t, signal.StopLoss)
}

func TestGenerateSignalValidation(t *testing.T) {
	_, err := testGenerator().GenerateSignal(Request{
		AssetType:    "futures",
		CurrentPrice: 0,
		Weights:      &models.StrategyWeights{MACD: 1.5},
	})
	require.Error(t, err)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Reasons, 4)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "weight macd must be within [0,1]")
}

func TestRisingSeriesSignal(t *testing.T) {
	bars := generateTestBars(60, func(i int) models.PriceBar {
		c := 100 + float64(i) + 0.02*float64(i*i)
		return models.PriceBar{Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	})
	set, err := indicators.Latest("AAPL", bars)
	require.NoError(t, err)

	price := bars[len(bars)-1].Close
	signal, err := testGenerator().GenerateSignal(Request{
		Symbol:       "AAPL",
		AssetType:    models.AssetStock,
		Indicators:   *set,
		Bars:         bars,
		CurrentPrice: price,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ActionBuy, strategyByName(t, signal, StrategyMACD).Action)
	assert.Equal(t, models.ActionSell, strategyByName(t, signal, StrategyRSI).Action)
	assert.Equal(t, models.ActionSell, strategyByName(t, signal, StrategyBollingerBands).Action)
	assert.Equal(t, models.ActionBuy, strategyByName(t, signal, StrategyMovingAverages).Action)

	if signal.Action == models.ActionHold {
		assert.Nil(t, signal.StopLoss)
		assert.Nil(t, signal.TakeProfit)
	} else {
		assert.NotNil(t, signal.StopLoss)
		assert.NotNil(t, signal.TakeProfit)
	}
}

func TestGenerateSignalIsDeterministic(t *testing.T) {
	req := Request{
		Symbol:       "AAPL",
		AssetType:    models.AssetStock,
		Indicators:   bullishSet(),
		Bars:         flatBars(25, 90, 1000),
		CurrentPrice: 90,
	}

	first, err := testGenerator().GenerateSignal(req)
	require.NoError(t, err)
	second, err := testGenerator().GenerateSignal(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestConfidenceClamp(t *testing.T) {
	bars := flatBars(25, 100, 1000)
	bars[len(bars)-1].Volume = 10

	results := Evaluate(Input{
		Indicators: models.IndicatorSet{
			VWAP:           &models.VWAPValue{VWAP: 100},
			BollingerBands: &models.BollingerValue{Upper: 100.2, Middle: 100, Lower: 96},
		},
		Bars:  bars,
		Price: 100,
	}, models.DefaultStrategyWeights())

	for _, r := range results {
		assert.GreaterOrEqual(t, r.Confidence, 0.0, r.Name)
		assert.LessOrEqual(t, r.Confidence, 1.0, r.Name)
	}

	volume := results[5]
	assert.Equal(t, StrategyVolume, volume.Name)
	assert.Equal(t, models.ActionHold, volume.Action)
	assert.Equal(t, 0.0, volume.Confidence, "low volume penalty never goes negative")

	bollinger := results[3]
	assert.Equal(t, models.ActionSell, bollinger.Action)
	assert.Equal(t, 1.0, bollinger.Confidence, "squeeze bonus is capped at 1")
}

func TestRiskLevelsAndPositionSize(t *testing.T) {
	risk := models.DefaultRiskParameters()

	sl, tp := RiskLevels(150, models.ActionBuy, risk)
	assert.InDelta(t, 147, sl, 1e-9)
	assert.InDelta(t, 159, tp, 1e-9)

	sl, tp = RiskLevels(150, models.ActionSell, risk)
	assert.InDelta(t, 153, sl, 1e-9)
	assert.InDelta(t, 141, tp, 1e-9)

	assert.Equal(t, 33.0, PositionSize(100000, 150, 147, risk))
	assert.Equal(t, 0.0, PositionSize(100, 150, 147, risk))
	assert.Equal(t, 0.0, PositionSize(100000, 0, 0, risk))
}
