package indicator

// Bands holds the three Bollinger band series.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands computes Bollinger bands over values: the middle band is the
// period SMA and the upper/lower bands sit stdDev sample standard deviations
// above/below it.
func BollingerBands(values []float64, period int, stdDev float64) Bands {
	middle := SMA(values, period)
	sigma := rollingStd(values, period)

	upper := make([]float64, len(values))
	lower := make([]float64, len(values))
	for i := range values {
		upper[i] = middle[i] + sigma[i]*stdDev
		lower[i] = middle[i] - sigma[i]*stdDev
	}
	return Bands{Upper: upper, Middle: middle, Lower: lower}
}

// BollingerWidth computes the normalized band width (upper-lower)/middle, a
// volatility measure: narrow widths suggest ranging markets, wide widths
// trending ones.
func BollingerWidth(values []float64, period int, stdDev float64) []float64 {
	b := BollingerBands(values, period, stdDev)
	out := make([]float64, len(values))
	for i := range values {
		out[i] = (b.Upper[i] - b.Lower[i]) / b.Middle[i]
	}
	return out
}
