package backtest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"coinrich/internal/domain"
)

// Result holds the equity path, trade ledger, and derived performance
// metrics of one backtest run. All metrics are computed once at
// construction; running the same input twice yields identical results.
type Result struct {
	Strategy string
	Market   string
	Config   Config

	Equity []EquityPoint
	Trades []Trade

	FinalEquity  float64
	TotalReturn  float64
	AnnualReturn float64
	MeanReturn   float64
	Volatility   float64
	// AnnualizedVolatility is Volatility scaled by sqrt(BarsPerYear).
	AnnualizedVolatility float64
	Sharpe               float64
	MaxDrawdown          float64

	NumTrades int
	WinRate   float64
	// AvgReturn is the mean fractional return across all trades.
	AvgReturn float64
	// AvgWin and AvgLoss are mean fractional returns of winning (PnL > 0)
	// and losing (PnL <= 0) trades.
	AvgWin  float64
	AvgLoss float64
	// ProfitFactor is |AvgWin / AvgLoss|; +Inf when every trade won, 0 when
	// there were no trades.
	ProfitFactor      float64
	AvgHoldingMinutes float64
	TotalFees         float64

	TrendingTrades    int
	TrendingWinRate   float64
	TrendingAvgReturn float64
	RangingTrades     int
	RangingWinRate    float64
	RangingAvgReturn  float64
}

func newResult(cfg Config, strategyName, market string, equity []EquityPoint, trades []Trade) *Result {
	r := &Result{
		Strategy: strategyName,
		Market:   market,
		Config:   cfg,
		Equity:   equity,
		Trades:   trades,
	}

	final := equity[len(equity)-1].Equity
	r.FinalEquity = final
	r.TotalReturn = final/cfg.InitialCapital - 1
	r.AnnualReturn = math.Pow(1+r.TotalReturn, cfg.BarsPerYear/float64(len(equity))) - 1

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		returns = append(returns, equity[i].Equity/equity[i-1].Equity-1)
	}
	r.MeanReturn = mean(returns)
	r.Volatility = sampleStd(returns)
	r.AnnualizedVolatility = r.Volatility * math.Sqrt(cfg.BarsPerYear)
	r.MaxDrawdown = maxDrawdown(returns)

	if r.Volatility > 0 {
		// The annual risk-free rate compounds down to the bar interval.
		barRF := math.Pow(1+cfg.AnnualRiskFree, 1/cfg.BarsPerYear) - 1
		r.Sharpe = (r.MeanReturn - barRF) / r.Volatility * math.Sqrt(cfg.BarsPerYear)
	}

	r.NumTrades = len(trades)
	if r.NumTrades == 0 {
		return r
	}

	var wins, losses []float64
	var holding time.Duration
	var returnSum float64
	for _, t := range trades {
		if t.PnL > 0 {
			wins = append(wins, t.PnLPct)
		} else {
			losses = append(losses, t.PnLPct)
		}
		holding += t.ExitTime.Sub(t.EntryTime)
		r.TotalFees += t.TotalFee
		returnSum += t.PnLPct

		won := t.PnL > 0
		switch t.EntryMarket {
		case domain.StateTrending:
			r.TrendingTrades++
			r.TrendingAvgReturn += t.PnLPct
			if won {
				r.TrendingWinRate++
			}
		case domain.StateRanging:
			r.RangingTrades++
			r.RangingAvgReturn += t.PnLPct
			if won {
				r.RangingWinRate++
			}
		}
	}
	r.WinRate = float64(len(wins)) / float64(r.NumTrades)
	r.AvgReturn = returnSum / float64(r.NumTrades)
	r.AvgWin = mean(wins)
	r.AvgLoss = mean(losses)
	r.AvgHoldingMinutes = holding.Minutes() / float64(r.NumTrades)
	if r.TrendingTrades > 0 {
		r.TrendingWinRate /= float64(r.TrendingTrades)
		r.TrendingAvgReturn /= float64(r.TrendingTrades)
	}
	if r.RangingTrades > 0 {
		r.RangingWinRate /= float64(r.RangingTrades)
		r.RangingAvgReturn /= float64(r.RangingTrades)
	}

	switch {
	case r.AvgLoss != 0:
		r.ProfitFactor = math.Abs(r.AvgWin / r.AvgLoss)
	case len(wins) > 0:
		r.ProfitFactor = math.Inf(1)
	}

	return r
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 standard deviation; NaN for fewer than two samples.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// maxDrawdown is the largest peak-to-trough decline of the compounded
// return path, as a positive fraction.
func maxDrawdown(returns []float64) float64 {
	cum := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		if dd := 1 - cum/peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Statistics returns the metrics as a flat map, keyed the way downstream
// reporting and persistence expect.
func (r *Result) Statistics() map[string]float64 {
	return map[string]float64{
		"initial_capital":       r.Config.InitialCapital,
		"final_equity":          r.FinalEquity,
		"total_return":          r.TotalReturn,
		"annual_return":         r.AnnualReturn,
		"volatility":            r.Volatility,
		"annualized_volatility": r.AnnualizedVolatility,
		"sharpe_ratio":          r.Sharpe,
		"max_drawdown":          r.MaxDrawdown,
		"num_trades":            float64(r.NumTrades),
		"win_rate":              r.WinRate,
		"avg_return":            r.AvgReturn,
		"avg_win":               r.AvgWin,
		"avg_loss":              r.AvgLoss,
		"profit_factor":         r.ProfitFactor,
		"avg_holding_minutes":   r.AvgHoldingMinutes,
		"total_fees":            r.TotalFees,
		"trending_trades":       float64(r.TrendingTrades),
		"trending_win_rate":     r.TrendingWinRate,
		"trending_avg_return":   r.TrendingAvgReturn,
		"ranging_trades":        float64(r.RangingTrades),
		"ranging_win_rate":      r.RangingWinRate,
		"ranging_avg_return":    r.RangingAvgReturn,
	}
}

// Summary renders a human-readable report of the run.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Backtest Result: %s / %s ===\n", r.Market, r.Strategy)
	fmt.Fprintf(&b, "Initial capital:  %14.2f\n", r.Config.InitialCapital)
	fmt.Fprintf(&b, "Final equity:     %14.2f\n", r.FinalEquity)
	fmt.Fprintf(&b, "Total return:     %13.2f%%\n", r.TotalReturn*100)
	fmt.Fprintf(&b, "Annual return:    %13.2f%%\n", r.AnnualReturn*100)
	fmt.Fprintf(&b, "Volatility:       %13.4f\n", r.Volatility)
	fmt.Fprintf(&b, "Ann. volatility:  %13.4f\n", r.AnnualizedVolatility)
	fmt.Fprintf(&b, "Sharpe ratio:     %13.2f\n", r.Sharpe)
	fmt.Fprintf(&b, "Max drawdown:     %13.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(&b, "Trades:           %10d\n", r.NumTrades)
	fmt.Fprintf(&b, "Win rate:         %13.2f%%\n", r.WinRate*100)
	fmt.Fprintf(&b, "Average return:   %13.2f%%\n", r.AvgReturn*100)
	fmt.Fprintf(&b, "Avg win:          %13.2f%%\n", r.AvgWin*100)
	fmt.Fprintf(&b, "Avg loss:         %13.2f%%\n", r.AvgLoss*100)
	fmt.Fprintf(&b, "Profit factor:    %13.2f\n", r.ProfitFactor)
	fmt.Fprintf(&b, "Avg holding:      %11.1f min\n", r.AvgHoldingMinutes)
	fmt.Fprintf(&b, "Total fees:       %14.2f\n", r.TotalFees)
	fmt.Fprintf(&b, "Trending trades:  %10d (win rate %.2f%%, avg return %.2f%%)\n",
		r.TrendingTrades, r.TrendingWinRate*100, r.TrendingAvgReturn*100)
	fmt.Fprintf(&b, "Ranging trades:   %10d (win rate %.2f%%, avg return %.2f%%)\n",
		r.RangingTrades, r.RangingWinRate*100, r.RangingAvgReturn*100)
	return b.String()
}

// TradeTable renders the trade ledger as a text table.
func (r *Result) TradeTable() string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.Header("#", "Entry", "Exit", "Entry Px", "Exit Px", "PnL", "PnL %", "Hold", "Regime")
	for i, t := range r.Trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			t.EntryTime.Format("2006-01-02 15:04"),
			t.ExitTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", t.EntryPrice),
			fmt.Sprintf("%.2f", t.ExitPrice),
			fmt.Sprintf("%.2f", t.PnL),
			fmt.Sprintf("%.2f%%", t.PnLPct*100),
			fmt.Sprintf("%.0fm", t.ExitTime.Sub(t.EntryTime).Minutes()),
			string(t.EntryMarket),
		)
	}
	table.Render()
	return b.String()
}
