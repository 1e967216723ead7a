package strategy

import (
	"coinrich/internal/domain"
	"coinrich/internal/indicator"
	"coinrich/internal/regime"
)

// Compile-time interface check.
var _ Strategy = (*Adaptive)(nil)

// AdaptiveParams tunes the regime-conditioned policy.
type AdaptiveParams struct {
	Regime regime.Config

	MAShortPeriod int
	MALongPeriod  int

	BBPeriod int
	BBStdDev float64

	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64

	// TakeProfit and StopLoss are fractional thresholds on unrealized return
	// (0.05 = 5%).
	TakeProfit float64
	StopLoss   float64

	// RegimeLookback is how many bars back the regime-change detector
	// compares against.
	RegimeLookback int
}

// DefaultAdaptiveParams returns the stock parameters.
func DefaultAdaptiveParams() AdaptiveParams {
	return AdaptiveParams{
		Regime:         regime.DefaultConfig(),
		MAShortPeriod:  20,
		MALongPeriod:   50,
		BBPeriod:       20,
		BBStdDev:       2.0,
		RSIPeriod:      14,
		RSIOversold:    30,
		RSIOverbought:  70,
		TakeProfit:     0.05,
		StopLoss:       0.02,
		RegimeLookback: 1,
	}
}

// Adaptive is the regime-conditioned policy: in a trending market it trades
// moving-average and DI crossovers, in a ranging market it fades the
// Bollinger bands and RSI extremes. Any detected regime change forces an
// exit, as do fixed take-profit and stop-loss bands around the entry price.
type Adaptive struct {
	params AdaptiveParams
}

// NewAdaptive creates the regime-conditioned strategy.
func NewAdaptive(params AdaptiveParams) *Adaptive {
	return &Adaptive{params: params}
}

// Name returns "adaptive".
func (s *Adaptive) Name() string { return "adaptive" }

// Frame computes the indicator series the adaptive policy consults.
func (s *Adaptive) Frame(bars []domain.Bar) *indicator.Frame {
	cfg := indicator.DefaultFrameConfig()
	cfg.MAShortPeriod = s.params.MAShortPeriod
	cfg.MALongPeriod = s.params.MALongPeriod
	cfg.BBPeriod = s.params.BBPeriod
	cfg.BBStdDev = s.params.BBStdDev
	cfg.RSIPeriod = s.params.RSIPeriod
	cfg.ADXPeriod = s.params.Regime.ADXPeriod
	cfg.ChopPeriod = s.params.Regime.ChopPeriod
	return indicator.ComputeFrame(bars, cfg)
}

// Regime classifies bars with the policy's thresholds.
func (s *Adaptive) Regime(f *indicator.Frame) *regime.Labels {
	return regime.ClassifyFrame(f, s.params.Regime)
}

// EntrySignals fires a buy in trending markets on a golden cross of the
// moving averages or a +DI/-DI crossover, and in ranging markets on a touch
// of the lower Bollinger band or an oversold RSI. Bar 0 never signals: the
// crossover conditions need a previous bar, and NaN warm-up comparisons are
// false.
func (s *Adaptive) EntrySignals(f *indicator.Frame, labels *regime.Labels) []bool {
	out := make([]bool, f.Len())
	for i := 1; i < f.Len(); i++ {
		if labels.Trending[i] {
			goldenCross := f.MAShort[i] > f.MALong[i] && f.MAShort[i-1] <= f.MALong[i-1]
			diCross := f.PlusDI[i] > f.MinusDI[i] && f.PlusDI[i-1] <= f.MinusDI[i-1]
			out[i] = goldenCross || diCross
		} else {
			bbBottom := f.Bars[i].Close <= f.BBLower[i]
			oversold := f.RSI[i] < s.params.RSIOversold
			out[i] = bbBottom || oversold
		}
	}
	return out
}

// ExitSignal fires on a detected regime change, on the inverse of the entry
// conditions for the current regime, or when unrealized return crosses the
// take-profit or stop-loss band.
func (s *Adaptive) ExitSignal(f *indicator.Frame, labels *regime.Labels, i int, pos Position) bool {
	if i < 1 {
		return false
	}

	lookback := s.params.RegimeLookback
	if i >= lookback && labels.Trending[i] != labels.Trending[i-lookback] {
		return true
	}

	if labels.Trending[i] {
		deadCross := f.MAShort[i] < f.MALong[i] && f.MAShort[i-1] >= f.MALong[i-1]
		diCross := f.PlusDI[i] < f.MinusDI[i] && f.PlusDI[i-1] >= f.MinusDI[i-1]
		if deadCross || diCross {
			return true
		}
	} else {
		if f.Bars[i].Close >= f.BBUpper[i] || f.RSI[i] > s.params.RSIOverbought {
			return true
		}
	}

	profit := f.Bars[i].Close/pos.EntryPrice - 1
	return profit >= s.params.TakeProfit || profit <= -s.params.StopLoss
}
