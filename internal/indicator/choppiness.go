package indicator

import (
	"math"

	"coinrich/internal/domain"
)

// Choppiness computes the Choppiness Index over the given period:
//
//	100 * log10(sum(TR, period) / (max(high, period) - min(low, period))) / log10(period)
//
// Values are theoretically bounded to [0, 100]; low values indicate strong
// directional movement, high values a sideways market.
func Choppiness(bars []domain.Bar, period int) []float64 {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	trSum := rollingSum(TrueRange(bars), period)
	highMax := rollingMax(highs, period)
	lowMin := rollingMin(lows, period)

	logPeriod := math.Log10(float64(period))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = 100 * math.Log10(trSum[i]/(highMax[i]-lowMin[i])) / logPeriod
	}
	return out
}
