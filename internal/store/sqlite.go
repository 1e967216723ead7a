package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"coinrich/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ BarStore = (*SQLiteStore)(nil)
var _ ResultStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS candles (
    market    TEXT    NOT NULL,
    timeframe TEXT    NOT NULL,
    timestamp INTEGER NOT NULL,
    open      REAL    NOT NULL,
    high      REAL    NOT NULL,
    low       REAL    NOT NULL,
    close     REAL    NOT NULL,
    volume    REAL    NOT NULL,
    PRIMARY KEY (market, timeframe, timestamp)
);

CREATE TABLE IF NOT EXISTS runs (
    id         TEXT    PRIMARY KEY,
    created_at INTEGER NOT NULL,
    market     TEXT     NOT NULL,
    strategy   TEXT     NOT NULL,
    bars       INTEGER  NOT NULL
);

CREATE TABLE IF NOT EXISTS run_stats (
    run_id TEXT NOT NULL REFERENCES runs(id),
    name   TEXT NOT NULL,
    value  REAL NOT NULL,
    PRIMARY KEY (run_id, name)
);

CREATE TABLE IF NOT EXISTS run_trades (
    run_id       TEXT    NOT NULL REFERENCES runs(id),
    seq          INTEGER NOT NULL,
    entry_time   INTEGER NOT NULL,
    exit_time    INTEGER NOT NULL,
    entry_price  REAL    NOT NULL,
    exit_price   REAL    NOT NULL,
    quantity     REAL    NOT NULL,
    pnl          REAL    NOT NULL,
    pnl_pct      REAL    NOT NULL,
    entry_market TEXT    NOT NULL,
    exit_market  TEXT    NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_candles_range ON candles(market, timeframe, timestamp);
CREATE INDEX IF NOT EXISTS idx_runs_created  ON runs(created_at DESC);
`

// SQLiteStore implements BarStore and ResultStore backed by a single SQLite
// database. Candles are the local cache in front of the exchange API;
// completed backtest runs are kept for comparison across parameter changes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and applies
// the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", dbPath, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars inserts bars, skipping any (market, timeframe, timestamp) rows
// that already exist. Cached candles are immutable once written.
func (s *SQLiteStore) WriteBars(ctx context.Context, timeframe string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO candles
			(market, timeframe, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			b.Market, timeframe, b.Timestamp.UTC().UnixMilli(),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return fmt.Errorf("store: insert candle %s@%s: %w", b.Market, b.Timestamp, err)
		}
	}
	return tx.Commit()
}

// ReadBars returns cached bars in [start, end], ordered by timestamp.
func (s *SQLiteStore) ReadBars(ctx context.Context, market, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, volume
		FROM candles
		WHERE market = ? AND timeframe = ? AND timestamp BETWEEN ? AND ?
		ORDER BY timestamp
	`, market, timeframe, start.UTC().UnixMilli(), end.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("store: query candles: %w", err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var ts int64
		b := domain.Bar{Market: market}
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("store: scan candle: %w", err)
		}
		b.Timestamp = time.UnixMilli(ts).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ListMarkets returns the distinct markets cached under the timeframe.
func (s *SQLiteStore) ListMarkets(ctx context.Context, timeframe string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT market FROM candles WHERE timeframe = ? ORDER BY market`, timeframe)
	if err != nil {
		return nil, fmt.Errorf("store: query markets: %w", err)
	}
	defer rows.Close()

	var markets []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("store: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// ---------------------------------------------------------------------------
// ResultStore implementation
// ---------------------------------------------------------------------------

// SaveResult persists the run, its metric map, and its trades in one
// transaction, returning the generated run id.
func (s *SQLiteStore) SaveResult(ctx context.Context, rec RunRecord) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, market, strategy, bars) VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().UTC().UnixMilli(), rec.Market, rec.Strategy, rec.Bars,
	); err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}

	for name, value := range rec.Stats {
		// REAL columns cannot hold +Inf; clamp to the float64 maximum.
		if math.IsInf(value, 1) {
			value = math.MaxFloat64
		}
		if math.IsNaN(value) || math.IsInf(value, -1) {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_stats (run_id, name, value) VALUES (?, ?, ?)`,
			id, name, value,
		); err != nil {
			return "", fmt.Errorf("store: insert stat %s: %w", name, err)
		}
	}

	for i, t := range rec.Trades {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_trades
				(run_id, seq, entry_time, exit_time, entry_price, exit_price,
				 quantity, pnl, pnl_pct, entry_market, exit_market)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, i,
			t.EntryTime.UTC().UnixMilli(), t.ExitTime.UTC().UnixMilli(),
			t.EntryPrice, t.ExitPrice, t.Quantity, t.PnL, t.PnLPct,
			t.EntryMarket, t.ExitMarket,
		); err != nil {
			return "", fmt.Errorf("store: insert trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

// GetStatistics returns the metric map of a saved run.
func (s *SQLiteStore) GetStatistics(ctx context.Context, runID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM run_stats WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("store: scan stat: %w", err)
		}
		stats[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("store: run %s not found", runID)
	}
	return stats, nil
}

// ListRuns returns recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, market string, limit int) ([]RunInfo, error) {
	query := `
		SELECT r.id, r.created_at, r.market, r.strategy, r.bars,
		       COALESCE(tr.value, 0),
		       COALESCE(nt.value, 0)
		FROM runs r
		LEFT JOIN run_stats tr ON tr.run_id = r.id AND tr.name = 'total_return'
		LEFT JOIN run_stats nt ON nt.run_id = r.id AND nt.name = 'num_trades'
	`
	args := []any{}
	if market != "" {
		query += ` WHERE r.market = ?`
		args = append(args, market)
	}
	query += ` ORDER BY r.created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		var createdAt int64
		var numTrades float64
		if err := rows.Scan(&info.ID, &createdAt, &info.Market, &info.Strategy,
			&info.Bars, &info.TotalReturn, &numTrades); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		info.CreatedAt = time.UnixMilli(createdAt).UTC()
		info.NumTrades = int(numTrades)
		runs = append(runs, info)
	}
	return runs, rows.Err()
}
