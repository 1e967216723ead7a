package indicator

import (
	"sync"

	"coinrich/internal/domain"
)

// FrameConfig carries the lookback periods for every series a Frame holds.
type FrameConfig struct {
	MAShortPeriod int
	MALongPeriod  int
	EMAPeriod     int
	BBPeriod      int
	BBStdDev      float64
	RSIPeriod     int
	ADXPeriod     int
	ChopPeriod    int
	MACDFast      int
	MACDSlow      int
	MACDSignal    int
	ATRPeriod     int
	VolumePeriod  int
}

// DefaultFrameConfig returns the stock lookback periods.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		MAShortPeriod: 20,
		MALongPeriod:  50,
		EMAPeriod:     20,
		BBPeriod:      20,
		BBStdDev:      2.0,
		RSIPeriod:     14,
		ADXPeriod:     14,
		ChopPeriod:    14,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		ATRPeriod:     14,
		VolumePeriod:  20,
	}
}

// Frame is a per-bar aligned set of derived series for one bar sequence.
// All slices have the same length as Bars; warm-up prefixes are NaN.
type Frame struct {
	Bars   []domain.Bar
	Config FrameConfig

	MAShort  []float64
	MALong   []float64
	EMAShort []float64

	BBUpper  []float64
	BBMiddle []float64
	BBLower  []float64

	RSI []float64

	ADX     []float64
	PlusDI  []float64
	MinusDI []float64

	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64

	ATR  []float64
	Chop []float64

	// VolumeMA is the trailing mean volume, used by volume-confirmation
	// signals.
	VolumeMA []float64
}

// ComputeFrame derives every series of the frame from the bar sequence.
// Distinct indicators are independent pure functions of the whole input, so
// they are computed concurrently and joined before returning. Correctness
// does not depend on the parallelism.
func ComputeFrame(bars []domain.Bar, cfg FrameConfig) *Frame {
	f := &Frame{Bars: bars, Config: cfg}
	closes := domain.Closes(bars)
	volumes := domain.Volumes(bars)

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { f.MAShort = SMA(closes, cfg.MAShortPeriod) })
	run(func() { f.MALong = SMA(closes, cfg.MALongPeriod) })
	run(func() { f.EMAShort = EMA(closes, cfg.EMAPeriod) })
	run(func() {
		b := BollingerBands(closes, cfg.BBPeriod, cfg.BBStdDev)
		f.BBUpper, f.BBMiddle, f.BBLower = b.Upper, b.Middle, b.Lower
	})
	run(func() { f.RSI = RSI(closes, cfg.RSIPeriod) })
	run(func() {
		d := ADX(bars, cfg.ADXPeriod)
		f.ADX, f.PlusDI, f.MinusDI = d.ADX, d.PlusDI, d.MinusDI
	})
	run(func() {
		m := MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
		f.MACD, f.MACDSignal, f.MACDHist = m.MACD, m.Signal, m.Histogram
	})
	run(func() { f.ATR = ATR(bars, cfg.ATRPeriod) })
	run(func() { f.Chop = Choppiness(bars, cfg.ChopPeriod) })
	run(func() { f.VolumeMA = SMA(volumes, cfg.VolumePeriod) })

	wg.Wait()
	return f
}

// Len returns the number of bars in the frame.
func (f *Frame) Len() int { return len(f.Bars) }
