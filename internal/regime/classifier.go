// Package regime classifies each bar of a market as trending or ranging by
// combining a trend-strength oscillator (ADX) with the Choppiness Index, and
// provides tooling to detect regime changes, label regimes objectively from
// raw price action, and tune the classifier thresholds against those labels.
package regime

import (
	"coinrich/internal/domain"
	"coinrich/internal/indicator"
)

// Config holds the classifier thresholds and lookback periods.
type Config struct {
	ADXThreshold  float64
	ChopThreshold float64
	ADXPeriod     int
	ChopPeriod    int
}

// DefaultConfig returns the stock classifier parameters. The 38.2 choppiness
// threshold is the Fibonacci retracement level conventionally used to split
// directional from sideways price action.
func DefaultConfig() Config {
	return Config{
		ADXThreshold:  25,
		ChopThreshold: 38.2,
		ADXPeriod:     14,
		ChopPeriod:    14,
	}
}

// Labels holds per-bar regime classifications, aligned with the input bars.
type Labels struct {
	// Trending is true where ADX >= ADXThreshold and Chop <= ChopThreshold.
	// NaN indicator values (warm-up) compare false, so warm-up bars are
	// labeled ranging.
	Trending []bool

	// Direction is +1 where +DI > -DI, -1 where +DI < -DI, and 0 where the
	// comparison is undefined or tied.
	Direction []int

	// ADX and Chop are the underlying oscillator series, kept for reporting.
	ADX  []float64
	Chop []float64
}

// State returns the market-state label for bar i.
func (l *Labels) State(i int) domain.MarketState {
	if l.Trending[i] {
		return domain.StateTrending
	}
	return domain.StateRanging
}

// Classify labels every bar of the sequence.
func Classify(bars []domain.Bar, cfg Config) *Labels {
	d := indicator.ADX(bars, cfg.ADXPeriod)
	chop := indicator.Choppiness(bars, cfg.ChopPeriod)
	return classify(d, chop, cfg)
}

// ClassifyFrame labels every bar using the ADX, DI, and Choppiness series
// already present in the frame, avoiding a recomputation.
func ClassifyFrame(f *indicator.Frame, cfg Config) *Labels {
	d := indicator.DirectionalResult{ADX: f.ADX, PlusDI: f.PlusDI, MinusDI: f.MinusDI}
	return classify(d, f.Chop, cfg)
}

func classify(d indicator.DirectionalResult, chop []float64, cfg Config) *Labels {
	n := len(d.ADX)
	labels := &Labels{
		Trending:  make([]bool, n),
		Direction: make([]int, n),
		ADX:       d.ADX,
		Chop:      chop,
	}
	for i := 0; i < n; i++ {
		// NaN comparisons are false, so undefined warm-up values never
		// produce a trending label.
		labels.Trending[i] = d.ADX[i] >= cfg.ADXThreshold && chop[i] <= cfg.ChopThreshold

		switch {
		case d.PlusDI[i] > d.MinusDI[i]:
			labels.Direction[i] = 1
		case d.PlusDI[i] < d.MinusDI[i]:
			labels.Direction[i] = -1
		}
	}
	return labels
}

// Changes flags bar i when the trending label differs from the label
// lookback bars earlier. The first lookback bars are never flagged.
func (l *Labels) Changes(lookback int) []bool {
	out := make([]bool, len(l.Trending))
	for i := lookback; i < len(l.Trending); i++ {
		out[i] = l.Trending[i] != l.Trending[i-lookback]
	}
	return out
}
