package gather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"coinrich/internal/domain"
	"coinrich/internal/store"
	"coinrich/internal/upbit"
	"coinrich/internal/util"
)

// Compile-time interface check.
var _ Gatherer = (*CryptoBarGatherer)(nil)

// CryptoBarGatherer gathers crypto minute bars from the Alpaca market-data
// API as a secondary source for USD-quoted pairs (e.g. "BTC/USD") that
// Upbit does not carry.
type CryptoBarGatherer struct {
	client  *marketdata.Client
	archive store.BarStore
	limiter *util.RateLimiter
	symbols []string
	unit    int
	span    DateRange
	log     *slog.Logger
}

// NewCryptoBarGatherer creates a gatherer for the given Alpaca credentials
// and symbols. rateLimitPerMin paces the per-symbol history requests.
func NewCryptoBarGatherer(apiKey, apiSecret, dataURL string, archive store.BarStore, symbols []string, unit, rateLimitPerMin int, span DateRange) *CryptoBarGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &CryptoBarGatherer{
		client:  marketdata.NewClient(opts),
		archive: archive,
		limiter: util.NewRateLimiter(rateLimitPerMin),
		symbols: symbols,
		unit:    unit,
		span:    span,
		log:     slog.Default().With("gatherer", "alpaca-crypto"),
	}
}

// Name returns the gatherer identifier.
func (g *CryptoBarGatherer) Name() string { return "alpaca-crypto" }

// Run fetches the configured span of bars for every symbol and writes them
// to the archive store.
func (g *CryptoBarGatherer) Run(ctx context.Context) error {
	timeframe := upbit.Timeframe(g.unit)
	runStart := time.Now()

	for _, symbol := range g.symbols {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		cryptoBars, err := g.client.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
			TimeFrame: marketdata.NewTimeFrame(g.unit, marketdata.Min),
			Start:     g.span.Start,
			End:       g.span.End,
		})
		if err != nil {
			return fmt.Errorf("GetCryptoBars %s: %w", symbol, err)
		}

		bars := make([]domain.Bar, 0, len(cryptoBars))
		for _, cb := range cryptoBars {
			bars = append(bars, domain.Bar{
				Market:    symbol,
				Timestamp: cb.Timestamp.UTC(),
				Open:      cb.Open,
				High:      cb.High,
				Low:       cb.Low,
				Close:     cb.Close,
				Volume:    cb.Volume,
			})
		}
		if err := g.archive.WriteBars(ctx, timeframe, bars); err != nil {
			return fmt.Errorf("writing bars for %s: %w", symbol, err)
		}

		g.log.Info("symbol done", "symbol", symbol, "bars", len(bars))
	}

	g.log.Info("complete",
		"symbols", len(g.symbols),
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}
