package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"coinrich/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*ParquetStore)(nil)

// ParquetStore implements BarStore using Parquet files on disk. It is the
// cold archive for gathered candle history; the SQLite cache remains the
// working copy for backtests.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// BarRecord is the Parquet schema for candle data.
type BarRecord struct {
	Market    string  `parquet:"market"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// WriteBars writes candles to Parquet files grouped by market and year:
//
//	<DataDir>/<MARKET>/<timeframe>/<YYYY>.parquet
//
// Existing records for the same timestamp are replaced by incoming ones.
func (s *ParquetStore) WriteBars(_ context.Context, timeframe string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		market string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, b := range bars {
		k := key{market: b.Market, year: b.Timestamp.UTC().Year()}
		groups[k] = append(groups[k], BarRecord{
			Market:    b.Market,
			Timestamp: b.Timestamp.UTC().UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	for k, records := range groups {
		path := s.barPath(k.market, timeframe, k.year)

		existing, _ := readParquetFile[BarRecord](path)
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("store: writing bars for %s/%d: %w", k.market, k.year, err)
		}
	}
	return nil
}

// ReadBars reads candles from the year files spanned by [start, end].
func (s *ParquetStore) ReadBars(_ context.Context, market, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	for year := start.UTC().Year(); year <= end.UTC().Year(); year++ {
		records, err := readParquetFile[BarRecord](s.barPath(market, timeframe, year))
		if err != nil {
			// No file for this year.
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if ts.Before(start) || ts.After(end) {
				continue
			}
			bars = append(bars, domain.Bar{
				Market:    r.Market,
				Timestamp: ts,
				Open:      r.Open,
				High:      r.High,
				Low:       r.Low,
				Close:     r.Close,
				Volume:    r.Volume,
			})
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

// ListMarkets lists all markets that have archive files for the timeframe.
func (s *ParquetStore) ListMarkets(_ context.Context, timeframe string) ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var markets []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.DataDir, e.Name(), timeframe)); err == nil {
			markets = append(markets, e.Name())
		}
	}
	sort.Strings(markets)
	return markets, nil
}

// barPath returns the filesystem path for a candle Parquet file.
func (s *ParquetStore) barPath(market, timeframe string, year int) string {
	return filepath.Join(s.DataDir, market, timeframe, fmt.Sprintf("%d.parquet", year))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates records by (market, timestamp), preferring
// incoming over existing. Results are sorted by timestamp.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		market string
		ts     int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Market, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Market, r.Timestamp}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
