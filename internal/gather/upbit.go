package gather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coinrich/internal/domain"
	"coinrich/internal/store"
	"coinrich/internal/upbit"
)

// Compile-time interface check.
var _ Gatherer = (*UpbitGatherer)(nil)

// CandleSource is the slice of the Upbit client the gatherer needs.
type CandleSource interface {
	MinuteCandles(ctx context.Context, market string, unit, count int, to time.Time) ([]domain.Bar, error)
}

// UpbitGatherer backfills minute candle history for a set of markets from
// the Upbit API. It pages backwards from now until the configured start,
// writing each page to the candle cache and, when configured, to the
// Parquet archive.
type UpbitGatherer struct {
	api     CandleSource
	cache   store.BarStore
	archive store.BarStore // optional
	markets []string
	unit    int
	start   time.Time
	log     *slog.Logger
}

// NewUpbitGatherer creates a backfill gatherer. archive may be nil.
func NewUpbitGatherer(api CandleSource, cache, archive store.BarStore, markets []string, unit int, start time.Time) *UpbitGatherer {
	return &UpbitGatherer{
		api:     api,
		cache:   cache,
		archive: archive,
		markets: markets,
		unit:    unit,
		start:   start,
		log:     slog.Default().With("gatherer", "upbit"),
	}
}

// Name returns the gatherer identifier.
func (g *UpbitGatherer) Name() string { return "upbit" }

// Run backfills every configured market. Each page request ends just before
// the oldest candle of the previous page; the walk stops at the configured
// start or when the API has no older data.
func (g *UpbitGatherer) Run(ctx context.Context) error {
	timeframe := upbit.Timeframe(g.unit)

	for _, market := range g.markets {
		if err := g.backfillMarket(ctx, market, timeframe); err != nil {
			return fmt.Errorf("backfilling %s: %w", market, err)
		}
	}
	return nil
}

func (g *UpbitGatherer) backfillMarket(ctx context.Context, market, timeframe string) error {
	var (
		cursor   time.Time // zero means "now"
		total    int
		runStart = time.Now()
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		bars, err := g.api.MinuteCandles(ctx, market, g.unit, upbit.MaxCandlesPerRequest, cursor)
		if err != nil {
			return err
		}
		if len(bars) == 0 {
			break
		}

		// Drop candles older than the configured start.
		kept := bars
		for len(kept) > 0 && kept[0].Timestamp.Before(g.start) {
			kept = kept[1:]
		}

		if len(kept) > 0 {
			if err := g.cache.WriteBars(ctx, timeframe, kept); err != nil {
				return err
			}
			if g.archive != nil {
				if err := g.archive.WriteBars(ctx, timeframe, kept); err != nil {
					return err
				}
			}
			total += len(kept)
		}

		oldest := bars[0].Timestamp
		if !oldest.After(g.start) || len(kept) < len(bars) {
			break
		}
		cursor = oldest
	}

	g.log.Info("backfill done",
		"market", market,
		"timeframe", timeframe,
		"candles", total,
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}
