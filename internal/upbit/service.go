package upbit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coinrich/internal/domain"
	"coinrich/internal/store"
)

// CandleFetcher is the slice of the API client the candle service needs.
type CandleFetcher interface {
	MinuteCandles(ctx context.Context, market string, unit, count int, to time.Time) ([]domain.Bar, error)
}

var _ CandleFetcher = (*Client)(nil)

// CandleService serves minute candles with a local cache in front of the
// API. A request is answered from the cache only when every requested candle
// is present; otherwise the API is queried and the cache refreshed.
type CandleService struct {
	api    CandleFetcher
	store  store.BarStore
	logger *slog.Logger
}

// NewCandleService creates a candle service over the given fetcher and store.
func NewCandleService(api CandleFetcher, barStore store.BarStore, logger *slog.Logger) *CandleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CandleService{api: api, store: barStore, logger: logger}
}

// Timeframe returns the storage timeframe name for a minute unit,
// e.g. 15 -> "minute15".
func Timeframe(unit int) string {
	return fmt.Sprintf("minute%d", unit)
}

// MinuteCandles returns count candles of the given minute unit ending just
// before `to` (zero means now), ascending by time. With useCache the cache
// is consulted first and only a full hit skips the API.
func (s *CandleService) MinuteCandles(ctx context.Context, market string, unit, count int, to time.Time, useCache bool) ([]domain.Bar, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}

	if useCache {
		span := time.Duration(unit*count) * time.Minute
		cached, err := s.store.ReadBars(ctx, market, Timeframe(unit), to.Add(-span), to)
		if err != nil {
			return nil, fmt.Errorf("candle cache read: %w", err)
		}
		if len(cached) >= count {
			s.logger.Debug("candle cache hit", "market", market, "unit", unit, "count", count)
			return cached[len(cached)-count:], nil
		}
	}

	bars, err := s.fetchPaged(ctx, market, unit, count, to)
	if err != nil {
		return nil, err
	}
	if err := s.store.WriteBars(ctx, Timeframe(unit), bars); err != nil {
		return nil, fmt.Errorf("candle cache write: %w", err)
	}
	s.logger.Debug("candle cache refresh", "market", market, "unit", unit, "fetched", len(bars))
	return bars, nil
}

// fetchPaged pulls count candles from the API, walking backwards one page at
// a time when count exceeds the page cap. Pages are prepended so the result
// stays ascending.
func (s *CandleService) fetchPaged(ctx context.Context, market string, unit, count int, to time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	cursor := to
	for len(bars) < count {
		page := count - len(bars)
		if page > MaxCandlesPerRequest {
			page = MaxCandlesPerRequest
		}
		got, err := s.api.MinuteCandles(ctx, market, unit, page, cursor)
		if err != nil {
			return nil, err
		}
		if len(got) == 0 {
			break
		}
		bars = append(got, bars...)
		cursor = got[0].Timestamp
	}
	return bars, nil
}
