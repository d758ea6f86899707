package indicators

// MACDSeries holds the three MACD lines. Signal and Histogram share an offset.
type MACDSeries struct {
	Line      Series
	Signal    Series
	Histogram Series
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and the difference.
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) MACDSeries {
	fast := EMA(prices, fastPeriod)
	slow := EMA(prices, slowPeriod)

	start := fast.Offset
	if slow.Offset > start {
		start = slow.Offset
	}

	line := Series{Offset: start}
	for i := start; i < len(prices); i++ {
		f, okFast := fast.At(i)
		s, okSlow := slow.At(i)
		if !okFast || !okSlow {
			break
		}
		line.Values = append(line.Values, f-s)
	}

	signal := EMA(line.Values, signalPeriod)
	signal.Offset += line.Offset

	hist := Series{Offset: signal.Offset, Values: make([]float64, 0, signal.Len())}
	for j, sig := range signal.Values {
		m, _ := line.At(signal.Offset + j)
		hist.Values = append(hist.Values, m-sig)
	}

	return MACDSeries{Line: line, Signal: signal, Histogram: hist}
}
