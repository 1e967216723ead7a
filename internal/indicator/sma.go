package indicator

// SMA computes the simple moving average of values over the given period.
// Indices before the first full window are NaN.
func SMA(values []float64, period int) []float64 {
	return rollingMean(values, period)
}
