package indicator

// MACDResult holds the MACD line, its signal line, and the histogram.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes moving average convergence/divergence: the difference of a
// fast and a slow EMA, an EMA of that difference as the signal line, and
// their spread as the histogram. Like EMA, every index is defined.
func MACD(values []float64, fast, slow, signal int) MACDResult {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := EMA(line, signal)

	hist := make([]float64, len(values))
	for i := range values {
		hist[i] = line[i] - signalLine[i]
	}
	return MACDResult{MACD: line, Signal: signalLine, Histogram: hist}
}
