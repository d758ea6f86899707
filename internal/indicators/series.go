// Package indicators computes technical indicators over an ordered bar series.
//
// Every function is pure: the same input always yields bit-identical output.
// Lines are returned as Series values aligned to the index of the input they
// were computed from, so callers can look up the reading for a particular bar
// without re-deriving each indicator's warm-up length.
package indicators

import "github.com/Alias1177/SignalTrader/models"

// Series is an indicator line whose first value belongs to input index Offset.
type Series struct {
	Offset int
	Values []float64
}

// At returns the value for input index i and whether it is defined there.
func (s Series) At(i int) (float64, bool) {
	j := i - s.Offset
	if j < 0 || j >= len(s.Values) {
		return 0, false
	}
	return s.Values[j], true
}

// Last returns the newest value of the line.
func (s Series) Last() (float64, bool) {
	if len(s.Values) == 0 {
		return 0, false
	}
	return s.Values[len(s.Values)-1], true
}

// Len is the number of defined values
func (s Series) Len() int {
	return len(s.Values)
}

func closes(bars []models.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func highs(bars []models.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func lows(bars []models.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
