package strategy

import (
	"coinrich/internal/domain"
	"coinrich/internal/indicator"
	"coinrich/internal/regime"
)

// Compile-time interface check.
var _ Strategy = (*Weighted)(nil)

// WeightedParams tunes the weighted-vote policy.
type WeightedParams struct {
	Regime regime.Config

	EMAPeriod int

	BBPeriod int
	BBStdDev float64

	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64

	MACDFast   int
	MACDSlow   int
	MACDSignal int

	ATRPeriod    int
	VolumePeriod int

	// MinScore is the weighted sum required for a buy.
	MinScore int

	// StrongVolumeMult qualifies a MACD histogram turn as a "strong" signal
	// that fires alone: volume must exceed this multiple of average volume.
	StrongVolumeMult float64

	// ATRTakeProfit and ATRStop scale the ATR at entry into exit bands
	// around the entry price.
	ATRTakeProfit float64
	ATRStop       float64

	// TrailingStop is the fractional giveback from the peak close that
	// closes the position (0.05 = 5%).
	TrailingStop float64
}

// DefaultWeightedParams returns the stock parameters.
func DefaultWeightedParams() WeightedParams {
	return WeightedParams{
		Regime:           regime.DefaultConfig(),
		EMAPeriod:        20,
		BBPeriod:         20,
		BBStdDev:         2.0,
		RSIPeriod:        14,
		RSIOversold:      30,
		RSIOverbought:    70,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		ATRPeriod:        14,
		VolumePeriod:     20,
		MinScore:         2,
		StrongVolumeMult: 2.0,
		ATRTakeProfit:    3.0,
		ATRStop:          1.5,
		TrailingStop:     0.05,
	}
}

// Weighted is the regime-agnostic vote-based policy. Four independent
// sub-signals contribute points (the volume-confirmed MACD turn counts
// double); a buy fires when the weighted sum reaches MinScore, or
// immediately on a high-volume MACD turn. Exits combine an ATR band around
// the entry, a MACD histogram sign flip, an RSI reversal from overbought,
// and a trailing stop; any one closes the position.
type Weighted struct {
	params WeightedParams
}

// NewWeighted creates the weighted-vote strategy.
func NewWeighted(params WeightedParams) *Weighted {
	return &Weighted{params: params}
}

// Name returns "weighted".
func (s *Weighted) Name() string { return "weighted" }

// Frame computes the indicator series the weighted policy consults.
func (s *Weighted) Frame(bars []domain.Bar) *indicator.Frame {
	cfg := indicator.DefaultFrameConfig()
	cfg.EMAPeriod = s.params.EMAPeriod
	cfg.BBPeriod = s.params.BBPeriod
	cfg.BBStdDev = s.params.BBStdDev
	cfg.RSIPeriod = s.params.RSIPeriod
	cfg.ADXPeriod = s.params.Regime.ADXPeriod
	cfg.ChopPeriod = s.params.Regime.ChopPeriod
	cfg.MACDFast = s.params.MACDFast
	cfg.MACDSlow = s.params.MACDSlow
	cfg.MACDSignal = s.params.MACDSignal
	cfg.ATRPeriod = s.params.ATRPeriod
	cfg.VolumePeriod = s.params.VolumePeriod
	return indicator.ComputeFrame(bars, cfg)
}

// Regime classifies bars for reporting; the entry logic does not branch on
// it.
func (s *Weighted) Regime(f *indicator.Frame) *regime.Labels {
	return regime.ClassifyFrame(f, s.params.Regime)
}

// macdTurnPositive reports whether the MACD histogram crossed from
// non-positive to positive at bar i.
func (s *Weighted) macdTurnPositive(f *indicator.Frame, i int) bool {
	return f.MACDHist[i] > 0 && f.MACDHist[i-1] <= 0
}

// EntrySignals scores the four sub-signals at each bar and fires when the
// weighted sum reaches MinScore, or when a high-volume MACD turn fires
// alone.
func (s *Weighted) EntrySignals(f *indicator.Frame, labels *regime.Labels) []bool {
	_ = labels
	out := make([]bool, f.Len())
	for i := 1; i < f.Len(); i++ {
		bar := f.Bars[i]
		prev := f.Bars[i-1]
		score := 0

		// Oversold price at the lower band.
		if f.RSI[i] < s.params.RSIOversold && bar.Close <= f.BBLower[i] {
			score++
		}

		// MACD histogram turning positive on above-average volume counts
		// double.
		macdTurn := s.macdTurnPositive(f, i)
		if macdTurn && bar.Volume > f.VolumeMA[i] {
			score += 2
		}

		// Bullish reversal candle closing above the short EMA.
		if prev.Close < prev.Open && bar.Close > bar.Open && bar.Close > f.EMAShort[i] {
			score++
		}

		// Pullback to a rising EMA that closes back above it.
		if bar.Low <= f.EMAShort[i] && bar.Close > f.EMAShort[i] && f.EMAShort[i] > f.EMAShort[i-1] {
			score++
		}

		strong := macdTurn && bar.Volume > s.params.StrongVolumeMult*f.VolumeMA[i]
		out[i] = score >= s.params.MinScore || strong
	}
	return out
}

// ExitSignal closes the position on any of: the ATR-scaled stop or
// take-profit band around the entry price, a MACD histogram sign flip, an
// RSI rolling over from overbought, or the trailing stop from the peak
// close.
func (s *Weighted) ExitSignal(f *indicator.Frame, labels *regime.Labels, i int, pos Position) bool {
	_ = labels
	if i < 1 {
		return false
	}
	price := f.Bars[i].Close

	// ATR band anchored at entry. NaN ATR (warm-up at entry) disables the
	// band rather than firing it.
	atr := f.ATR[pos.EntryIndex]
	if price >= pos.EntryPrice+s.params.ATRTakeProfit*atr {
		return true
	}
	if price <= pos.EntryPrice-s.params.ATRStop*atr {
		return true
	}

	// Momentum rolled over.
	if f.MACDHist[i] < 0 && f.MACDHist[i-1] >= 0 {
		return true
	}

	// Overbought and turning down.
	if f.RSI[i-1] > s.params.RSIOverbought && f.RSI[i] < f.RSI[i-1] {
		return true
	}

	// Trailing stop from the peak close since entry.
	return price <= pos.PeakClose*(1-s.params.TrailingStop)
}
