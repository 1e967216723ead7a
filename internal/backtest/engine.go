package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"coinrich/internal/domain"
	"coinrich/internal/strategy"
)

// Engine runs a strategy over historical bars.
type Engine struct {
	cfg    Config
	strat  strategy.Strategy
	logger *slog.Logger
}

// NewEngine creates a backtest engine for one strategy.
func NewEngine(cfg Config, strat strategy.Strategy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, strat: strat, logger: logger}
}

// Run validates the bars, computes indicators, regime labels and entry
// signals, then folds the position machine over the series.
//
// The fold starts at bar 1: bar 0 carries the initial capital and no
// position. While flat, a true entry signal buys at that bar's close; while
// long, the position is marked to market and the strategy's exit test is
// evaluated, selling at the close when it fires. A buy and a sell never
// happen on the same bar. A position still open after the last bar stays
// open; its value is in the final equity point but no trade is recorded.
func (e *Engine) Run(ctx context.Context, bars []domain.Bar) (*Result, error) {
	if err := domain.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("backtest input: %w", err)
	}

	frame := e.strat.Frame(bars)
	labels := e.strat.Regime(frame)
	entries := e.strat.EntrySignals(frame, labels)
	if len(entries) != len(bars) {
		return nil, fmt.Errorf("strategy %s: %d entry signals for %d bars",
			e.strat.Name(), len(entries), len(bars))
	}

	e.logger.Info("backtest start",
		"strategy", e.strat.Name(),
		"market", bars[0].Market,
		"bars", len(bars),
		"initial_capital", e.cfg.InitialCapital)

	capital := e.cfg.InitialCapital
	coinValue := 0.0
	var open *openPosition

	equity := make([]EquityPoint, len(bars))
	equity[0] = EquityPoint{
		Timestamp: bars[0].Timestamp,
		Capital:   capital,
		Equity:    capital,
	}
	var trades []Trade

	for i := 1; i < len(bars); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		price := bars[i].Close

		if open == nil {
			if entries[i] {
				investment := capital * e.cfg.PositionSize
				fee := investment * e.cfg.Commission
				quantity := (investment - fee) / price
				capital -= investment
				coinValue = quantity * price
				open = &openPosition{
					entryIndex:  i,
					entryTime:   bars[i].Timestamp,
					entryPrice:  price,
					quantity:    quantity,
					investment:  investment,
					feePaid:     fee,
					marketState: labels.State(i),
					peakClose:   price,
				}
			}
		} else {
			coinValue = open.quantity * price
			if price > open.peakClose {
				open.peakClose = price
			}
			pos := strategy.Position{
				EntryIndex: open.entryIndex,
				EntryPrice: open.entryPrice,
				PeakClose:  open.peakClose,
			}
			if e.strat.ExitSignal(frame, labels, i, pos) {
				sellValue := open.quantity * price
				exitFee := sellValue * e.cfg.Commission
				proceeds := sellValue - exitFee
				capital += proceeds
				coinValue = 0

				trades = append(trades, Trade{
					EntryIndex:  open.entryIndex,
					EntryTime:   open.entryTime,
					EntryPrice:  open.entryPrice,
					Quantity:    open.quantity,
					Investment:  open.investment,
					FeePaid:     open.feePaid,
					EntryMarket: open.marketState,
					ExitIndex:   i,
					ExitTime:    bars[i].Timestamp,
					ExitPrice:   price,
					ExitValue:   sellValue,
					ExitFee:     exitFee,
					TotalFee:    open.feePaid + exitFee,
					PnL:         proceeds - open.investment,
					PnLPct:      proceeds/open.investment - 1,
					ExitMarket:  labels.State(i),
				})
				open = nil
			}
		}

		pt := EquityPoint{
			Timestamp: bars[i].Timestamp,
			Capital:   capital,
			CoinValue: coinValue,
			Equity:    capital + coinValue,
		}
		if open != nil {
			pt.Position = 1
		}
		equity[i] = pt
	}

	result := newResult(e.cfg, e.strat.Name(), bars[0].Market, equity, trades)

	e.logger.Info("backtest done",
		"strategy", e.strat.Name(),
		"trades", len(trades),
		"total_return", result.TotalReturn,
		"max_drawdown", result.MaxDrawdown)

	return result, nil
}
