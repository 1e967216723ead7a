package regime

import (
	"math"

	"coinrich/internal/domain"
)

// GridResult records the detection score for one threshold combination.
type GridResult struct {
	ADXThreshold  float64
	ChopThreshold float64
	Metrics       DetectionMetrics
}

// OptimizeResult is the outcome of a threshold grid search.
type OptimizeResult struct {
	Best    Config
	BestF1  DetectionMetrics
	Results []GridResult
}

// OptimizeThresholds grid-searches ADX and Choppiness thresholds against the
// objective price-action labels, maximizing F1. Threshold pairs are evaluated
// in the order given, and ties keep the earlier pair, so the result is
// deterministic.
func OptimizeThresholds(bars []domain.Bar, adxRange, chopRange []float64, base Config, labeling LabelingConfig) OptimizeResult {
	objective := LabelObjective(bars, labeling)

	// Warm-up indices of either side are excluded from scoring.
	valid := make([]bool, len(bars))
	probe := Classify(bars, base)
	for i := range valid {
		valid[i] = i >= labeling.Window &&
			!math.IsNaN(probe.ADX[i]) && !math.IsNaN(probe.Chop[i])
	}

	out := OptimizeResult{Best: base}
	for _, adxT := range adxRange {
		for _, chopT := range chopRange {
			cfg := base
			cfg.ADXThreshold = adxT
			cfg.ChopThreshold = chopT

			predicted := Classify(bars, cfg)
			m := Evaluate(objective.Trending, predicted.Trending, valid)
			out.Results = append(out.Results, GridResult{
				ADXThreshold:  adxT,
				ChopThreshold: chopT,
				Metrics:       m,
			})

			if m.F1 > out.BestF1.F1 {
				out.BestF1 = m
				out.Best = cfg
			}
		}
	}
	return out
}
