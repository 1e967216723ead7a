package indicator

// EMA computes the exponential moving average with smoothing factor
// alpha = 2/(period+1), seeded by the first value. There is no warm-up
// prefix: every index is defined, though early values lean heavily on the
// seed.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}
