// Package store defines storage interfaces for candle data and backtest
// results, with SQLite and Parquet implementations.
package store

import (
	"context"
	"time"

	"coinrich/internal/domain"
)

// BarStore persists and retrieves OHLCV candle data.
type BarStore interface {
	// WriteBars persists a batch of bars under the given timeframe
	// (e.g. "minute15"). Bars already present are left untouched.
	WriteBars(ctx context.Context, timeframe string, bars []domain.Bar) error

	// ReadBars returns bars for the market and timeframe within [start, end],
	// ordered by timestamp.
	ReadBars(ctx context.Context, market, timeframe string, start, end time.Time) ([]domain.Bar, error)

	// ListMarkets returns all distinct markets stored under the timeframe.
	ListMarkets(ctx context.Context, timeframe string) ([]string, error)
}

// RunRecord is one backtest run to persist: identifying fields, the metric
// map, and the closed trades.
type RunRecord struct {
	Market   string
	Strategy string
	Bars     int
	Stats    map[string]float64
	Trades   []RunTrade
}

// RunTrade is the persisted form of one closed trade.
type RunTrade struct {
	EntryTime   time.Time
	ExitTime    time.Time
	EntryPrice  float64
	ExitPrice   float64
	Quantity    float64
	PnL         float64
	PnLPct      float64
	EntryMarket string
	ExitMarket  string
}

// RunInfo is the summary row of one persisted backtest run.
type RunInfo struct {
	ID          string
	CreatedAt   time.Time
	Market      string
	Strategy    string
	Bars        int
	TotalReturn float64
	NumTrades   int
}

// ResultStore persists backtest runs for later comparison.
type ResultStore interface {
	// SaveResult persists a run and returns its generated id.
	SaveResult(ctx context.Context, rec RunRecord) (string, error)

	// GetStatistics returns the metric map of a saved run.
	GetStatistics(ctx context.Context, runID string) (map[string]float64, error)

	// ListRuns returns the most recent runs, newest first, optionally
	// filtered by market ("" matches all), up to limit.
	ListRuns(ctx context.Context, market string, limit int) ([]RunInfo, error)
}
