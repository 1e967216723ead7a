// coinrich-gather backfills candle history into the local cache and the
// Parquet archive.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"coinrich/internal/config"
	"coinrich/internal/gather"
	"coinrich/internal/store"
	"coinrich/internal/upbit"
	"coinrich/internal/util"
)

func main() {
	var (
		markets = flag.String("markets", "", "comma-separated markets to backfill (overrides config)")
		source  = flag.String("source", "upbit", "data source: upbit or alpaca")
		start   = flag.String("start", "", "backfill start date YYYY-MM-DD (overrides config)")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("COINRICH_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *markets != "" {
		cfg.Gather.Markets = strings.Split(*markets, ",")
	}
	if *start != "" {
		cfg.Gather.StartDate = *start
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	startDate, err := time.Parse("2006-01-02", cfg.Gather.StartDate)
	if err != nil {
		log.Fatalf("bad start date %q: %v", cfg.Gather.StartDate, err)
	}

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	var archive store.BarStore
	if cfg.Gather.Archive {
		archive = store.NewParquetStore(cfg.Storage.DataDir)
	}

	var gatherer gather.Gatherer
	switch *source {
	case "upbit":
		gatherer = gather.NewUpbitGatherer(
			upbit.NewClient(cfg.Upbit.BaseURL),
			db, archive,
			cfg.Gather.Markets, cfg.Gather.Unit, startDate,
		)
	case "alpaca":
		if archive == nil {
			archive = store.NewParquetStore(cfg.Storage.DataDir)
		}
		gatherer = gather.NewCryptoBarGatherer(
			cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
			archive,
			cfg.Gather.AlpacaSymbols, cfg.Gather.Unit, cfg.Gather.RateLimitPerMin,
			gather.DateRange{Start: startDate, End: time.Now().UTC()},
		)
	default:
		log.Fatalf("unknown source %q", *source)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting gather", "gatherer", gatherer.Name(), "start", cfg.Gather.StartDate)
	if err := gatherer.Run(ctx); err != nil {
		log.Fatalf("gather error: %v", err)
	}
}
