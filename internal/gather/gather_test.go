package gather

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"coinrich/internal/domain"
	"coinrich/internal/store"
)

// pagedSource serves a fixed ascending history the way the Upbit API does:
// newest page first, `to` exclusive.
type pagedSource struct {
	history []domain.Bar
	calls   int
}

func (s *pagedSource) MinuteCandles(_ context.Context, _ string, _, count int, to time.Time) ([]domain.Bar, error) {
	s.calls++
	end := len(s.history)
	if !to.IsZero() {
		for end > 0 && !s.history[end-1].Timestamp.Before(to) {
			end--
		}
	}
	start := end - count
	if start < 0 {
		start = 0
	}
	page := make([]domain.Bar, end-start)
	copy(page, s.history[start:end])
	return page, nil
}

func history(n int, end time.Time) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		ts := end.Add(-time.Duration(n-i) * 15 * time.Minute)
		price := 100 + float64(i)*0.1
		bars[i] = domain.Bar{
			Market: "KRW-BTC", Timestamp: ts,
			Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1,
		}
	}
	return bars
}

func TestUpbitGathererBackfill(t *testing.T) {
	ctx := context.Background()
	cache, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "candles.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()
	archive := store.NewParquetStore(t.TempDir())

	end := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	src := &pagedSource{history: history(450, end)}
	start := end.Add(-450 * 15 * time.Minute)

	g := NewUpbitGatherer(src, cache, archive, []string{"KRW-BTC"}, 15, start)
	if err := g.Run(ctx); err != nil {
		t.Fatal(err)
	}

	// 450 candles at 200 per page: three pages.
	if src.calls != 3 {
		t.Errorf("made %d page requests, want 3", src.calls)
	}

	cached, err := cache.ReadBars(ctx, "KRW-BTC", "minute15", start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 450 {
		t.Errorf("cache holds %d candles, want 450", len(cached))
	}

	archived, err := archive.ReadBars(ctx, "KRW-BTC", "minute15", start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 450 {
		t.Errorf("archive holds %d candles, want 450", len(archived))
	}
}

func TestUpbitGathererStopsAtStart(t *testing.T) {
	ctx := context.Background()
	cache, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "candles.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	end := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	src := &pagedSource{history: history(450, end)}
	// Only want the newest 100 candles.
	start := end.Add(-100 * 15 * time.Minute)

	g := NewUpbitGatherer(src, cache, nil, []string{"KRW-BTC"}, 15, start)
	if err := g.Run(ctx); err != nil {
		t.Fatal(err)
	}

	cached, err := cache.ReadBars(ctx, "KRW-BTC", "minute15", start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 100 {
		t.Errorf("cache holds %d candles, want 100", len(cached))
	}
	if src.calls != 1 {
		t.Errorf("made %d page requests, want 1", src.calls)
	}
}

func TestUpbitGathererCancelled(t *testing.T) {
	cache, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "candles.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	end := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	g := NewUpbitGatherer(&pagedSource{history: history(10, end)}, cache, nil,
		[]string{"KRW-BTC"}, 15, end.Add(-time.Hour))
	if err := g.Run(ctx); err == nil {
		t.Error("cancelled backfill did not fail")
	}
}
