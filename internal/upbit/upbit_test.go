package upbit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"coinrich/internal/domain"
	"coinrich/internal/store"
)

func TestClientMinuteCandles(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		// Upbit returns newest first.
		w.Write([]byte(`[
			{"market":"KRW-BTC","candle_date_time_utc":"2024-06-01T00:15:00",
			 "opening_price":101,"high_price":103,"low_price":100,"trade_price":102,
			 "timestamp":1717201800000,"candle_acc_trade_price":5.0,
			 "candle_acc_trade_volume":1.5,"unit":15},
			{"market":"KRW-BTC","candle_date_time_utc":"2024-06-01T00:00:00",
			 "opening_price":100,"high_price":102,"low_price":99,"trade_price":101,
			 "timestamp":1717200900000,"candle_acc_trade_price":4.0,
			 "candle_acc_trade_volume":1.2,"unit":15}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	to := time.Date(2024, 6, 1, 0, 30, 0, 0, time.UTC)
	bars, err := c.MinuteCandles(context.Background(), "KRW-BTC", 15, 2, to)
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/candles/minutes/15" {
		t.Errorf("path = %q", gotPath)
	}
	if want := "count=2&market=KRW-BTC&to=2024-06-01T00%3A30%3A00Z"; gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}

	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if !bars[0].Timestamp.Before(bars[1].Timestamp) {
		t.Error("bars not re-sorted ascending")
	}
	first := bars[0]
	if first.Open != 100 || first.High != 102 || first.Low != 99 || first.Close != 101 || first.Volume != 1.2 {
		t.Errorf("field mapping wrong: %+v", first)
	}
	if !first.Timestamp.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", first.Timestamp)
	}
}

func TestClientMinuteCandlesCountRange(t *testing.T) {
	c := NewClient("http://localhost:0")
	if _, err := c.MinuteCandles(context.Background(), "KRW-BTC", 15, 0, time.Time{}); err == nil {
		t.Error("count 0 accepted")
	}
	if _, err := c.MinuteCandles(context.Background(), "KRW-BTC", 15, MaxCandlesPerRequest+1, time.Time{}); err == nil {
		t.Error("count above the page cap accepted")
	}
}

func TestClientMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"market":"KRW-BTC","korean_name":"비트코인","english_name":"Bitcoin"},
			{"market":"KRW-ETH","korean_name":"이더리움","english_name":"Ethereum"}
		]`))
	}))
	defer srv.Close()

	markets, err := NewClient(srv.URL).Markets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(markets) != 2 || markets[0].Name != "KRW-BTC" || markets[1].EnglishName != "Ethereum" {
		t.Errorf("Markets = %+v", markets)
	}
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Markets(context.Background()); err == nil {
		t.Error("persistent 429 did not surface as an error")
	}
}

// ---

type stubFetcher struct {
	calls int
	bars  []domain.Bar
}

func (f *stubFetcher) MinuteCandles(_ context.Context, _ string, _, count int, _ time.Time) ([]domain.Bar, error) {
	f.calls++
	return f.bars[:count], nil
}

func TestCandleServiceCacheThrough(t *testing.T) {
	ctx := context.Background()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "candles.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	to := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, 20)
	for i := range bars {
		ts := to.Add(-time.Duration(len(bars)-i) * 15 * time.Minute)
		price := 100 + float64(i)
		bars[i] = domain.Bar{
			Market: "KRW-BTC", Timestamp: ts,
			Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1,
		}
	}
	fetcher := &stubFetcher{bars: bars}
	svc := NewCandleService(fetcher, db, nil)

	got, err := svc.MinuteCandles(ctx, "KRW-BTC", 15, 20, to, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 20 || fetcher.calls != 1 {
		t.Fatalf("cold read: %d bars, %d api calls", len(got), fetcher.calls)
	}

	// Same request again is a full cache hit.
	got, err = svc.MinuteCandles(ctx, "KRW-BTC", 15, 20, to, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 20 || fetcher.calls != 1 {
		t.Errorf("warm read: %d bars, %d api calls, want cache hit", len(got), fetcher.calls)
	}

	// A smaller window is served from cache too, trimmed to the tail.
	got, err = svc.MinuteCandles(ctx, "KRW-BTC", 15, 5, to, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 || fetcher.calls != 1 {
		t.Errorf("partial read: %d bars, %d api calls", len(got), fetcher.calls)
	}
	if got[4].Close != bars[19].Close {
		t.Errorf("partial read did not return the newest candles: %+v", got[4])
	}

	// Bypassing the cache always hits the API.
	if _, err := svc.MinuteCandles(ctx, "KRW-BTC", 15, 20, to, false); err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 2 {
		t.Errorf("cache bypass made %d api calls, want 2", fetcher.calls)
	}
}
