package indicators

// SMA is the arithmetic mean of the trailing period values.
func SMA(values []float64, period int) Series {
	if period <= 0 || len(values) < period {
		return Series{Offset: period - 1}
	}

	out := make([]float64, 0, len(values)-period+1)
	for i := period - 1; i < len(values); i++ {
		var sum float64
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}
		out = append(out, sum/float64(period))
	}
	return Series{Offset: period - 1, Values: out}
}

// EMA seeds with the SMA of the first period values, then applies
// ema[i] = (v[i] - ema[i-1]) * 2/(period+1) + ema[i-1].
func EMA(values []float64, period int) Series {
	if period <= 0 || len(values) < period {
		return Series{Offset: period - 1}
	}

	multiplier := 2.0 / float64(period+1)

	var sum float64
	for _, v := range values[:period] {
		sum += v
	}

	out := make([]float64, 0, len(values)-period+1)
	ema := sum / float64(period)
	out = append(out, ema)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out = append(out, ema)
	}
	return Series{Offset: period - 1, Values: out}
}
