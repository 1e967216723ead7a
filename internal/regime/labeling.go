package regime

import (
	"math"

	"coinrich/internal/domain"
)

// LabelingConfig controls the objective price-action labeling used as ground
// truth when evaluating the indicator-based classifier.
type LabelingConfig struct {
	Window                   int
	DirectionalThreshold     float64 // minimum N-bar absolute return
	VolatilityRatioThreshold float64 // minimum directionality-to-volatility ratio
}

// DefaultLabelingConfig returns the stock labeling parameters.
func DefaultLabelingConfig() LabelingConfig {
	return LabelingConfig{
		Window:                   20,
		DirectionalThreshold:     0.15,
		VolatilityRatioThreshold: 2.0,
	}
}

// ObjectiveLabels holds price-action-based regime labels and the measures
// they derive from.
type ObjectiveLabels struct {
	Trending        []bool
	AbsReturn       []float64
	Volatility      []float64
	EfficiencyRatio []float64
}

// LabelObjective labels each bar trending when the window's absolute return
// clears DirectionalThreshold and the return is large relative to the summed
// bar ranges over the window (an efficient, directional move). Bars inside
// the warm-up window are labeled ranging with NaN measures.
func LabelObjective(bars []domain.Bar, cfg LabelingConfig) *ObjectiveLabels {
	n := len(bars)
	out := &ObjectiveLabels{
		Trending:        make([]bool, n),
		AbsReturn:       make([]float64, n),
		Volatility:      make([]float64, n),
		EfficiencyRatio: make([]float64, n),
	}

	rangeSum := 0.0
	for i := 0; i < n; i++ {
		rangeSum += bars[i].High - bars[i].Low
		if i >= cfg.Window {
			rangeSum -= bars[i-cfg.Window].High - bars[i-cfg.Window].Low
		}

		if i < cfg.Window {
			out.AbsReturn[i] = math.NaN()
			out.Volatility[i] = math.NaN()
			out.EfficiencyRatio[i] = math.NaN()
			continue
		}

		prev := bars[i-cfg.Window].Close
		out.AbsReturn[i] = math.Abs(bars[i].Close/prev - 1)
		out.Volatility[i] = rangeSum / prev
		out.EfficiencyRatio[i] = out.AbsReturn[i] / out.Volatility[i]

		out.Trending[i] = out.AbsReturn[i] > cfg.DirectionalThreshold &&
			out.EfficiencyRatio[i] > cfg.VolatilityRatioThreshold
	}
	return out
}
