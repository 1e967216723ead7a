// Package backtest replays historical bar data through a trading strategy
// and computes performance metrics. The simulator is a sequential fold over
// bars with a two-state position machine (flat/long); analytics are derived
// once from the resulting equity path and trade ledger.
package backtest

import (
	"time"

	"coinrich/internal/domain"
)

// Config holds the simulation parameters.
type Config struct {
	// InitialCapital is the starting cash value.
	InitialCapital float64

	// PositionSize is the fraction of available capital committed per entry,
	// in (0, 1].
	PositionSize float64

	// Commission is the fee rate applied to each transaction (entry and exit
	// separately).
	Commission float64

	// BarsPerYear is the annualization constant for return, volatility, and
	// Sharpe. The conventional 252 trading days is the default even for
	// sub-daily bars; set it to the actual bar count per year for an honest
	// annualized figure.
	BarsPerYear float64

	// AnnualRiskFree is the annual risk-free rate used in the Sharpe ratio.
	AnnualRiskFree float64
}

// DefaultConfig returns the stock simulation parameters.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 1_000_000,
		PositionSize:   1.0,
		Commission:     0.0005,
		BarsPerYear:    252,
		AnnualRiskFree: 0.02,
	}
}

// openPosition is the simulator's record of the one live position.
type openPosition struct {
	entryIndex  int
	entryTime   time.Time
	entryPrice  float64
	quantity    float64
	investment  float64
	feePaid     float64
	marketState domain.MarketState
	peakClose   float64
}

// Trade is the immutable record of one completed round trip.
type Trade struct {
	EntryIndex  int
	EntryTime   time.Time
	EntryPrice  float64
	Quantity    float64
	Investment  float64
	FeePaid     float64
	EntryMarket domain.MarketState

	ExitIndex  int
	ExitTime   time.Time
	ExitPrice  float64
	ExitValue  float64
	ExitFee    float64
	TotalFee   float64
	PnL        float64
	PnLPct     float64
	ExitMarket domain.MarketState
}

// EquityPoint is the per-bar snapshot of the portfolio.
type EquityPoint struct {
	Timestamp time.Time
	// Position is 1 while a position is held, 0 otherwise.
	Position  int
	Capital   float64
	CoinValue float64
	// Equity is Capital + CoinValue at every bar, by construction.
	Equity float64
}
