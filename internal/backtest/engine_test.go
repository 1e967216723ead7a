package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"coinrich/internal/domain"
	"coinrich/internal/indicator"
	"coinrich/internal/regime"
	"coinrich/internal/strategy"
)

// scripted is a strategy whose signals are fixed in advance, so trade
// arithmetic can be checked exactly.
type scripted struct {
	entries []bool
	exits   map[int]bool
}

var _ strategy.Strategy = (*scripted)(nil)

func (s *scripted) Name() string { return "scripted" }
func (s *scripted) Frame(bars []domain.Bar) *indicator.Frame {
	return indicator.ComputeFrame(bars, indicator.DefaultFrameConfig())
}
func (s *scripted) Regime(f *indicator.Frame) *regime.Labels {
	return regime.ClassifyFrame(f, regime.DefaultConfig())
}
func (s *scripted) EntrySignals(f *indicator.Frame, labels *regime.Labels) []bool {
	out := make([]bool, f.Len())
	copy(out, s.entries)
	return out
}
func (s *scripted) ExitSignal(f *indicator.Frame, labels *regime.Labels, i int, pos strategy.Position) bool {
	return s.exits[i]
}

func barsWithCloses(closes []float64) []domain.Bar {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Market:    "KRW-BTC",
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1,
		}
	}
	return bars
}

func within(t *testing.T, got, want, eps float64, name string) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestEngineTradeArithmetic(t *testing.T) {
	cfg := Config{
		InitialCapital: 1000,
		PositionSize:   1.0,
		Commission:     0.001,
		BarsPerYear:    252,
		AnnualRiskFree: 0.02,
	}
	strat := &scripted{
		entries: []bool{false, false, true, false, false, false},
		exits:   map[int]bool{4: true},
	}
	eng := NewEngine(cfg, strat, nil)

	res, err := eng.Run(context.Background(), barsWithCloses([]float64{100, 100, 100, 102, 105, 105}))
	if err != nil {
		t.Fatal(err)
	}

	if res.NumTrades != 1 {
		t.Fatalf("NumTrades = %d, want 1", res.NumTrades)
	}
	tr := res.Trades[0]

	// Buy 1000 at 100 with 0.1% fee: quantity (1000-1)/100 = 9.99.
	within(t, tr.Quantity, 9.99, 1e-12, "Quantity")
	within(t, tr.FeePaid, 1.0, 1e-12, "FeePaid")

	// Sell 9.99 at 105: gross 1048.95, fee 1.04895, net 1047.90105.
	within(t, tr.ExitValue, 1048.95, 1e-9, "ExitValue")
	within(t, tr.ExitFee, 1.04895, 1e-9, "ExitFee")
	within(t, tr.PnL, 47.90105, 1e-9, "PnL")
	within(t, tr.PnLPct, 0.04790105, 1e-9, "PnLPct")
	within(t, tr.TotalFee, 2.04895, 1e-9, "TotalFee")

	within(t, res.FinalEquity, 1047.90105, 1e-9, "FinalEquity")
	within(t, res.TotalReturn, 0.04790105, 1e-9, "TotalReturn")
	within(t, res.TotalFees, 2.04895, 1e-9, "TotalFees")
	if !math.IsInf(res.ProfitFactor, 1) {
		t.Errorf("ProfitFactor = %v, want +Inf with a single winning trade", res.ProfitFactor)
	}
	within(t, res.AvgHoldingMinutes, 30, 1e-12, "AvgHoldingMinutes")
}

func TestEngineEquityIsCapitalPlusCoinValue(t *testing.T) {
	strat := &scripted{
		entries: []bool{false, true, false, false, true, false, false, false},
		exits:   map[int]bool{3: true, 6: true},
	}
	eng := NewEngine(DefaultConfig(), strat, nil)

	res, err := eng.Run(context.Background(), barsWithCloses([]float64{100, 101, 99, 104, 103, 108, 97, 100}))
	if err != nil {
		t.Fatal(err)
	}
	for i, pt := range res.Equity {
		if pt.Equity != pt.Capital+pt.CoinValue {
			t.Errorf("bar %d: equity %v != capital %v + coin value %v", i, pt.Equity, pt.Capital, pt.CoinValue)
		}
		held := pt.Position == 1
		wantHeld := (i >= 1 && i < 3) || (i >= 4 && i < 6)
		if held != wantHeld {
			t.Errorf("bar %d: position flag %v, want %v", i, held, wantHeld)
		}
	}
	if res.NumTrades != 2 {
		t.Errorf("NumTrades = %d, want 2", res.NumTrades)
	}
}

func TestEngineNoSameBarRoundTrip(t *testing.T) {
	// Entry and exit both signal at bar 2; the position opens there and can
	// only close from bar 3 on.
	strat := &scripted{
		entries: []bool{false, false, true, false, false},
		exits:   map[int]bool{2: true, 3: true},
	}
	eng := NewEngine(DefaultConfig(), strat, nil)

	res, err := eng.Run(context.Background(), barsWithCloses([]float64{100, 100, 100, 100, 100}))
	if err != nil {
		t.Fatal(err)
	}
	if res.Equity[2].Position != 1 {
		t.Error("position not open at the entry bar")
	}
	if res.NumTrades != 1 || res.Trades[0].ExitIndex != 3 {
		t.Fatalf("trades = %+v, want one trade exiting at bar 3", res.Trades)
	}
}

func TestEngineOpenPositionStaysOpen(t *testing.T) {
	strat := &scripted{
		entries: []bool{false, true, false, false},
		exits:   map[int]bool{},
	}
	eng := NewEngine(DefaultConfig(), strat, nil)

	res, err := eng.Run(context.Background(), barsWithCloses([]float64{100, 100, 110, 120}))
	if err != nil {
		t.Fatal(err)
	}
	if res.NumTrades != 0 {
		t.Errorf("NumTrades = %d, want 0 for a never-closed position", res.NumTrades)
	}
	last := res.Equity[len(res.Equity)-1]
	if last.Position != 1 {
		t.Error("open position missing from the final equity point")
	}
	// Full-size entry leaves zero cash; final equity is the marked position.
	qty := (DefaultConfig().InitialCapital * (1 - DefaultConfig().Commission)) / 100
	within(t, last.Equity, qty*120, 1e-6, "final equity")
}

func TestEngineZeroTrades(t *testing.T) {
	strat := &scripted{entries: make([]bool, 10), exits: map[int]bool{}}
	eng := NewEngine(DefaultConfig(), strat, nil)

	res, err := eng.Run(context.Background(), barsWithCloses([]float64{100, 101, 102, 101, 100, 99, 100, 101, 102, 103}))
	if err != nil {
		t.Fatal(err)
	}
	if res.NumTrades != 0 || res.TotalReturn != 0 || res.MaxDrawdown != 0 {
		t.Errorf("flat run: trades=%d return=%v drawdown=%v", res.NumTrades, res.TotalReturn, res.MaxDrawdown)
	}
	if res.WinRate != 0 || res.ProfitFactor != 0 {
		t.Errorf("flat run: win rate=%v profit factor=%v, want zeros", res.WinRate, res.ProfitFactor)
	}
}

func TestEngineDeterministic(t *testing.T) {
	bars := barsWithCloses([]float64{100, 101, 99, 104, 103, 108, 97, 100})
	strat := &scripted{
		entries: []bool{false, true, false, false, true, false, false, false},
		exits:   map[int]bool{3: true, 6: true},
	}
	eng := NewEngine(DefaultConfig(), strat, nil)

	first, err := eng.Run(context.Background(), bars)
	if err != nil {
		t.Fatal(err)
	}
	second, err := eng.Run(context.Background(), bars)
	if err != nil {
		t.Fatal(err)
	}
	if first.FinalEquity != second.FinalEquity || first.NumTrades != second.NumTrades ||
		first.Sharpe != second.Sharpe || first.MaxDrawdown != second.MaxDrawdown {
		t.Errorf("repeated runs differ: %+v vs %+v", first.Statistics(), second.Statistics())
	}
}

func TestEngineRejectsInvalidBars(t *testing.T) {
	eng := NewEngine(DefaultConfig(), &scripted{}, nil)
	if _, err := eng.Run(context.Background(), nil); !errors.Is(err, domain.ErrNoBars) {
		t.Errorf("Run(nil) error = %v, want ErrNoBars", err)
	}
}

func TestEngineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng := NewEngine(DefaultConfig(), &scripted{entries: make([]bool, 5), exits: map[int]bool{}}, nil)
	if _, err := eng.Run(ctx, barsWithCloses([]float64{100, 100, 100, 100, 100})); !errors.Is(err, context.Canceled) {
		t.Errorf("Run on a cancelled context = %v, want context.Canceled", err)
	}
}

// ---

func TestMaxDrawdown(t *testing.T) {
	// Path 1.0 -> 2.0 -> 1.0 -> 1.5: trough is half the peak.
	within(t, maxDrawdown([]float64{1.0, -0.5, 0.5}), 0.5, 1e-12, "maxDrawdown")
	within(t, maxDrawdown([]float64{0.1, 0.1}), 0, 1e-12, "maxDrawdown (monotone)")
	within(t, maxDrawdown(nil), 0, 1e-12, "maxDrawdown (empty)")
}

func TestSampleStd(t *testing.T) {
	within(t, sampleStd([]float64{1, 2, 3}), 1, 1e-12, "sampleStd")
	if !math.IsNaN(sampleStd([]float64{1})) {
		t.Error("sampleStd of one sample should be NaN")
	}
}

func TestAnnualReturnCompounding(t *testing.T) {
	cfg := DefaultConfig()
	equity := make([]EquityPoint, 504)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range equity {
		equity[i] = EquityPoint{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Capital:   cfg.InitialCapital,
			Equity:    cfg.InitialCapital,
		}
	}
	// 21% over two 252-bar years annualizes to 10% per year.
	equity[len(equity)-1].Equity = cfg.InitialCapital * 1.21
	equity[len(equity)-1].Capital = cfg.InitialCapital * 1.21

	res := newResult(cfg, "scripted", "KRW-BTC", equity, nil)
	within(t, res.AnnualReturn, 0.1, 1e-9, "AnnualReturn")
}

func TestSharpeUsesCompoundedRiskFree(t *testing.T) {
	cfg := DefaultConfig()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	returns := []float64{0.01, 0.02, -0.01, 0.015}

	equity := []EquityPoint{{Timestamp: base, Capital: cfg.InitialCapital, Equity: cfg.InitialCapital}}
	for i, r := range returns {
		next := equity[len(equity)-1].Equity * (1 + r)
		equity = append(equity, EquityPoint{
			Timestamp: base.Add(time.Duration(i+1) * 24 * time.Hour),
			Capital:   next,
			Equity:    next,
		})
	}

	res := newResult(cfg, "scripted", "KRW-BTC", equity, nil)

	// The annual risk-free rate compounds down to the bar interval:
	// 1.02^(1/252)-1, not 0.02/252.
	barRF := math.Pow(1+cfg.AnnualRiskFree, 1/cfg.BarsPerYear) - 1
	want := (mean(returns) - barRF) / sampleStd(returns) * math.Sqrt(cfg.BarsPerYear)
	within(t, res.Sharpe, want, 1e-9, "Sharpe")
}

func TestTradeReturnMetrics(t *testing.T) {
	cfg := DefaultConfig()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Equity returns 1% then 3%: sample std sqrt(2e-4), annualized by
	// sqrt(252).
	equity := []EquityPoint{
		{Timestamp: base, Capital: 1000, Equity: 1000},
		{Timestamp: base.Add(15 * time.Minute), Capital: 1010, Equity: 1010},
		{Timestamp: base.Add(30 * time.Minute), Capital: 1040.3, Equity: 1040.3},
	}
	trades := []Trade{
		{EntryTime: base, ExitTime: base.Add(15 * time.Minute), PnL: 40, PnLPct: 0.04, EntryMarket: domain.StateTrending},
		{EntryTime: base, ExitTime: base.Add(15 * time.Minute), PnL: -10, PnLPct: -0.01, EntryMarket: domain.StateTrending},
		{EntryTime: base, ExitTime: base.Add(15 * time.Minute), PnL: 30, PnLPct: 0.03, EntryMarket: domain.StateRanging},
	}

	res := newResult(cfg, "scripted", "KRW-BTC", equity, trades)

	within(t, res.AvgReturn, 0.02, 1e-12, "AvgReturn")
	within(t, res.TrendingAvgReturn, 0.015, 1e-12, "TrendingAvgReturn")
	within(t, res.RangingAvgReturn, 0.03, 1e-12, "RangingAvgReturn")
	within(t, res.AnnualizedVolatility, math.Sqrt(0.0504), 1e-9, "AnnualizedVolatility")

	stats := res.Statistics()
	for _, key := range []string{"avg_return", "annualized_volatility", "trending_avg_return", "ranging_avg_return"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("Statistics() missing %q", key)
		}
	}
	within(t, stats["avg_return"], 0.02, 1e-12, "stats avg_return")
	within(t, stats["trending_avg_return"], 0.015, 1e-12, "stats trending_avg_return")
}
