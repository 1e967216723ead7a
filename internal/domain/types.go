// Package domain defines the core market-data types shared across the
// coinrich engine: OHLCV bars and the validation rules the backtester
// requires of its input.
package domain

import "time"

// Market identifiers follow the Upbit convention, e.g. "KRW-BTC".
type Market = string

// Bar is a single immutable OHLCV sample for a fixed time interval.
type Bar struct {
	Market    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// MarketState labels a bar as belonging to a trending or ranging market.
type MarketState string

const (
	StateTrending MarketState = "trending"
	StateRanging  MarketState = "ranging"
)

// Closes extracts the close series from a bar sequence.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume series from a bar sequence.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
