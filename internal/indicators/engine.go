package indicators

import (
	"fmt"
	"time"

	"github.com/Alias1177/SignalTrader/models"
)

// MinimumBars is the shortest series Generate accepts.
const MinimumBars = 50

// Params are the indicator periods. The zero value is not usable; start
// from DefaultParams.
type Params struct {
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	RSIPeriod       int
	StochKPeriod    int
	StochKSlowing   int
	StochDPeriod    int
	BollingerPeriod int
	BollingerStdDev float64
	ShortSMA        int
	LongSMA         int
	FastEMA         int
	SlowEMA         int
	WilliamsRPeriod int
	ATRPeriod       int
}

// DefaultParams returns the standard periods
func DefaultParams() Params {
	return Params{
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		RSIPeriod:       14,
		StochKPeriod:    14,
		StochKSlowing:   3,
		StochDPeriod:    3,
		BollingerPeriod: 20,
		BollingerStdDev: 2,
		ShortSMA:        20,
		LongSMA:         50,
		FastEMA:         12,
		SlowEMA:         26,
		WilliamsRPeriod: 14,
		ATRPeriod:       14,
	}
}

// Generate computes one IndicatorSet per bar, starting at the first bar
// where the slow EMA is defined. Fields with insufficient history at a
// bar are left nil.
func Generate(symbol string, bars []models.PriceBar) ([]models.IndicatorSet, error) {
	return DefaultParams().Generate(symbol, bars)
}

// Latest returns the IndicatorSet for the newest bar.
func Latest(symbol string, bars []models.PriceBar) (*models.IndicatorSet, error) {
	return DefaultParams().Latest(symbol, bars)
}

// Generate is the parameterised form of the package-level Generate.
func (p Params) Generate(symbol string, bars []models.PriceBar) ([]models.IndicatorSet, error) {
	if len(bars) < MinimumBars {
		return nil, &models.InsufficientDataError{Required: MinimumBars, Got: len(bars)}
	}

	c := closes(bars)
	h := highs(bars)
	l := lows(bars)

	macd := MACD(c, p.MACDFast, p.MACDSlow, p.MACDSignal)
	rsi := RSI(c, p.RSIPeriod)
	stoch := Stochastic(h, l, c, p.StochKPeriod, p.StochKSlowing, p.StochDPeriod)
	bb := Bollinger(c, p.BollingerPeriod, p.BollingerStdDev)
	sma20 := SMA(c, p.ShortSMA)
	sma50 := SMA(c, p.LongSMA)
	ema12 := EMA(c, p.FastEMA)
	ema26 := EMA(c, p.SlowEMA)
	vwap := VWAP(bars)
	willR := WilliamsR(h, l, c, p.WilliamsRPeriod)
	atr := ATR(h, l, c, p.ATRPeriod)

	start := ema26.Offset
	if start < 0 {
		start = 0
	}

	out := make([]models.IndicatorSet, 0, len(bars)-start)
	for i := start; i < len(bars); i++ {
		ts := bars[i].Timestamp
		set := models.IndicatorSet{Symbol: symbol, Timestamp: ts}

		if m, ok := macd.Line.At(i); ok {
			if sig, ok := macd.Signal.At(i); ok {
				hist, _ := macd.Histogram.At(i)
				set.MACD = &models.MACDValue{MACD: m, Signal: sig, Histogram: hist}
			}
		}
		if v, ok := rsi.At(i); ok {
			set.RSI = &models.RSIValue{RSI: v}
		}
		if k, ok := stoch.K.At(i); ok {
			if d, ok := stoch.D.At(i); ok {
				set.Stochastic = &models.StochasticValue{K: k, D: d}
			}
		}
		if mid, ok := bb.Middle.At(i); ok {
			up, _ := bb.Upper.At(i)
			lo, _ := bb.Lower.At(i)
			set.BollingerBands = &models.BollingerValue{Upper: up, Middle: mid, Lower: lo}
		}
		set.SMA20 = scalarAt(sma20, i, ts)
		set.SMA50 = scalarAt(sma50, i, ts)
		set.EMA12 = scalarAt(ema12, i, ts)
		set.EMA26 = scalarAt(ema26, i, ts)
		if v, ok := vwap.At(i); ok {
			set.VWAP = &models.VWAPValue{VWAP: v}
		}
		set.WilliamsR = scalarAt(willR, i, ts)
		set.ATR = scalarAt(atr, i, ts)

		out = append(out, set)
	}

	return out, nil
}

// Latest is the parameterised form of the package-level Latest.
func (p Params) Latest(symbol string, bars []models.PriceBar) (*models.IndicatorSet, error) {
	sets, err := p.Generate(symbol, bars)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	latest := sets[len(sets)-1]
	return &latest, nil
}

func scalarAt(s Series, i int, ts time.Time) *models.ScalarValue {
	v, ok := s.At(i)
	if !ok {
		return nil
	}
	return &models.ScalarValue{Value: v, Timestamp: ts}
}

// ValidateDataSufficiency reports which indicators the series cannot
// support yet. It never fails; the result is advisory.
func ValidateDataSufficiency(bars []models.PriceBar) models.DataSufficiency {
	n := len(bars)
	missing := []string{}
	recommendations := []string{}

	if n < 26 {
		missing = append(missing, "Insufficient data for MACD calculation (need 26+ periods)")
	}
	if n < 15 {
		missing = append(missing, "Insufficient data for RSI calculation (need 15+ periods)")
	}
	if n < 14 {
		missing = append(missing, "Insufficient data for Stochastic calculation (need 14+ periods)")
	}
	if n < 20 {
		missing = append(missing, "Insufficient data for Bollinger Bands (need 20+ periods)")
	}
	if n < MinimumBars {
		recommendations = append(recommendations, fmt.Sprintf("Recommend %d+ periods for reliable SMA50 calculation", MinimumBars))
	}
	if n < 100 {
		recommendations = append(recommendations, "Recommend 100+ periods for stable technical analysis")
	}

	return models.DataSufficiency{
		Valid:           len(missing) == 0,
		Missing:         missing,
		Recommendations: recommendations,
	}
}
