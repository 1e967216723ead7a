package indicator

import (
	"math"

	"coinrich/internal/domain"
)

// TrueRange computes the per-bar true range:
// max(high-low, |high-prevClose|, |low-prevClose|). The first bar has no
// previous close, so its true range degrades to high-low.
func TrueRange(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			tr = math.Max(tr, math.Abs(b.High-prevClose))
			tr = math.Max(tr, math.Abs(b.Low-prevClose))
		}
		out[i] = tr
	}
	return out
}

// ATR computes the average true range as a plain trailing mean of the true
// range over the given period.
func ATR(bars []domain.Bar, period int) []float64 {
	return rollingMean(TrueRange(bars), period)
}
