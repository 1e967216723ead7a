package indicator

import "coinrich/internal/domain"

// StochasticResult holds the %K and %D oscillator lines.
type StochasticResult struct {
	K []float64
	D []float64
}

// Stochastic computes the stochastic oscillator:
// %K = 100 * (close - lowestLow(kPeriod)) / (highestHigh(kPeriod) - lowestLow(kPeriod))
// and %D as the dPeriod trailing mean of %K.
func Stochastic(bars []domain.Bar, kPeriod, dPeriod int) StochasticResult {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}

	highMax := rollingMax(highs, kPeriod)
	lowMin := rollingMin(lows, kPeriod)

	k := make([]float64, n)
	for i := 0; i < n; i++ {
		k[i] = 100 * (closes[i] - lowMin[i]) / (highMax[i] - lowMin[i])
	}
	return StochasticResult{K: k, D: rollingMean(k, dPeriod)}
}
