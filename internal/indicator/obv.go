package indicator

import "coinrich/internal/domain"

// OBV computes on-balance volume: the running sum of volume signed by the
// direction of the close-to-close change. The first bar contributes zero.
func OBV(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	total := 0.0
	for i := range bars {
		if i > 0 {
			switch {
			case bars[i].Close > bars[i-1].Close:
				total += bars[i].Volume
			case bars[i].Close < bars[i-1].Close:
				total -= bars[i].Volume
			}
		}
		out[i] = total
	}
	return out
}
