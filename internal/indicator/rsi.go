package indicator

// RSI computes the relative strength index over the given period, using
// plain trailing averages of gains and losses rather than Wilder smoothing.
// The undefined price delta at index 0 contributes a zero gain and a zero
// loss, so the first defined value appears at index period-1 like every
// other rolling-window series.
//
// When the average loss is zero the ratio saturates and RSI is 100; when both
// averages are zero the value is NaN. Both fall out of ordinary float
// arithmetic and are intentional.
func RSI(values []float64, period int) []float64 {
	delta := diff(values)

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := range values {
		if delta[i] > 0 {
			gains[i] = delta[i]
		} else if delta[i] < 0 {
			losses[i] = -delta[i]
		}
	}

	avgGain := rollingMean(gains, period)
	avgLoss := rollingMean(losses, period)

	out := make([]float64, len(values))
	for i := range values {
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
