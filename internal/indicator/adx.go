package indicator

import (
	"math"

	"coinrich/internal/domain"
)

// DirectionalResult holds the trend-strength oscillator and its directional
// components.
type DirectionalResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX computes the average directional index and the +DI/-DI lines.
//
// Directional movement and true range are *summed* over the period window
// (not EMA-smoothed, unlike Wilder's original formulation), and DX is
// averaged with a plain trailing mean. The first defined +DI/-DI appears at
// index period-1 and the first defined ADX at index 2*(period-1).
func ADX(bars []domain.Bar, period int) DirectionalResult {
	n := len(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		highDiff := bars[i].High - bars[i-1].High
		lowDiff := bars[i-1].Low - bars[i].Low

		if highDiff > lowDiff && highDiff > 0 {
			plusDM[i] = highDiff
		}
		if lowDiff > highDiff && lowDiff > 0 {
			minusDM[i] = lowDiff
		}
	}

	tr := TrueRange(bars)
	sumPlusDM := rollingSum(plusDM, period)
	sumMinusDM := rollingSum(minusDM, period)
	sumTR := rollingSum(tr, period)

	plusDI := make([]float64, n)
	minusDI := make([]float64, n)
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		// Zero summed true range leaves DI undefined; that happens only on
		// degenerate flat windows and propagates as NaN.
		plusDI[i] = 100 * sumPlusDM[i] / sumTR[i]
		minusDI[i] = 100 * sumMinusDM[i] / sumTR[i]
		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / math.Abs(plusDI[i]+minusDI[i])
	}

	return DirectionalResult{
		ADX:     rollingMean(dx, period),
		PlusDI:  plusDI,
		MinusDI: minusDI,
	}
}
