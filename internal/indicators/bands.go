package indicators

import (
	"math"

	"github.com/Alias1177/SignalTrader/models"
)

// BollingerSeries holds the three bands, all sharing one offset.
type BollingerSeries struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// Bollinger computes SMA(period) ± mult × population standard deviation.
func Bollinger(prices []float64, period int, mult float64) BollingerSeries {
	middle := SMA(prices, period)
	upper := Series{Offset: middle.Offset, Values: make([]float64, 0, middle.Len())}
	lower := Series{Offset: middle.Offset, Values: make([]float64, 0, middle.Len())}

	for j, mean := range middle.Values {
		window := prices[j : j+period]

		var variance float64
		for _, v := range window {
			variance += math.Pow(v-mean, 2)
		}
		sd := math.Sqrt(variance / float64(period))

		upper.Values = append(upper.Values, mean+mult*sd)
		lower.Values = append(lower.Values, mean-mult*sd)
	}

	return BollingerSeries{Upper: upper, Middle: middle, Lower: lower}
}

// VWAP accumulates typical price × volume from the first bar of the series.
// There is no session reset; callers reset by passing a new series.
func VWAP(bars []models.PriceBar) Series {
	out := make([]float64, 0, len(bars))
	var cumVolume, cumVolumePrice float64

	for _, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		cumVolumePrice += typical * b.Volume
		cumVolume += b.Volume

		if cumVolume > 0 {
			out = append(out, cumVolumePrice/cumVolume)
		} else {
			out = append(out, typical)
		}
	}
	return Series{Offset: 0, Values: out}
}
