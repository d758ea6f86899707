package indicators

import "math"

// StochasticSeries holds the smoothed %K and %D lines.
type StochasticSeries struct {
	K Series
	D Series
}

// Stochastic computes raw %K over kPeriod, smooths it with SMA(kSlowing)
// and derives %D as SMA(dPeriod) of the smoothed %K. A flat window reads 50.
func Stochastic(highs, lows, closes []float64, kPeriod, kSlowing, dPeriod int) StochasticSeries {
	n := len(closes)
	if kPeriod <= 0 || len(highs) < kPeriod || len(lows) < kPeriod || n < kPeriod {
		return StochasticSeries{}
	}

	rawK := make([]float64, 0, n-kPeriod+1)
	for i := kPeriod - 1; i < n; i++ {
		periodHigh, periodLow := windowExtremes(highs, lows, i-kPeriod+1, i)
		if periodHigh == periodLow {
			rawK = append(rawK, 50)
			continue
		}
		rawK = append(rawK, clamp((closes[i]-periodLow)/(periodHigh-periodLow)*100, 0, 100))
	}

	k := SMA(rawK, kSlowing)
	k.Offset += kPeriod - 1

	d := SMA(k.Values, dPeriod)
	d.Offset += k.Offset

	return StochasticSeries{K: k, D: d}
}

// WilliamsR is ((high - close) / (high - low)) * -100 over the trailing
// period. A flat window reads -50.
func WilliamsR(highs, lows, closes []float64, period int) Series {
	n := len(closes)
	if period <= 0 || len(highs) < period || len(lows) < period || n < period {
		return Series{Offset: period - 1}
	}

	out := make([]float64, 0, n-period+1)
	for i := period - 1; i < n; i++ {
		periodHigh, periodLow := windowExtremes(highs, lows, i-period+1, i)
		if periodHigh == periodLow {
			out = append(out, -50)
			continue
		}
		out = append(out, clamp((periodHigh-closes[i])/(periodHigh-periodLow)*-100, -100, 0))
	}
	return Series{Offset: period - 1, Values: out}
}

// ATR is Wilder's average true range; the first value belongs to input index period.
func ATR(highs, lows, closes []float64, period int) Series {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) < n || len(lows) < n {
		return Series{Offset: period}
	}

	trueRanges := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		highLow := highs[i] - lows[i]
		highPrevClose := math.Abs(highs[i] - closes[i-1])
		lowPrevClose := math.Abs(lows[i] - closes[i-1])
		trueRanges = append(trueRanges, math.Max(highLow, math.Max(highPrevClose, lowPrevClose)))
	}

	var atr float64
	for _, tr := range trueRanges[:period] {
		atr += tr
	}
	atr /= float64(period)

	out := make([]float64, 0, len(trueRanges)-period+1)
	out = append(out, atr)
	for _, tr := range trueRanges[period:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
		out = append(out, atr)
	}
	return Series{Offset: period, Values: out}
}

func windowExtremes(highs, lows []float64, from, to int) (float64, float64) {
	periodHigh := highs[from]
	periodLow := lows[from]
	for i := from + 1; i <= to; i++ {
		if highs[i] > periodHigh {
			periodHigh = highs[i]
		}
		if lows[i] < periodLow {
			periodLow = lows[i]
		}
	}
	return periodHigh, periodLow
}
