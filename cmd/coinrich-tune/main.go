// coinrich-tune grid-searches the regime classifier thresholds against
// objective price-action labels and reports the best pair.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"coinrich/internal/config"
	"coinrich/internal/regime"
	"coinrich/internal/store"
	"coinrich/internal/upbit"
	"coinrich/internal/util"
)

func main() {
	var (
		market   = flag.String("market", "", "market to tune on (overrides config)")
		candles  = flag.Int("candles", 1000, "number of candles to load")
		adxList  = flag.String("adx", "20,22.5,25,27.5,30", "comma-separated ADX thresholds")
		chopList = flag.String("chop", "35,38.2,42,45,50", "comma-separated Choppiness thresholds")
		showAll  = flag.Bool("all", false, "print every grid combination, not just the best")
		useCache = flag.Bool("cache", true, "serve candles from the local cache when possible")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("COINRICH_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *market != "" {
		cfg.Backtest.Market = *market
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	adxRange, err := parseFloats(*adxList)
	if err != nil {
		log.Fatalf("bad -adx list: %v", err)
	}
	chopRange, err := parseFloats(*chopList)
	if err != nil {
		log.Fatalf("bad -chop list: %v", err)
	}

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := upbit.NewCandleService(upbit.NewClient(cfg.Upbit.BaseURL), db, logger)
	bars, err := svc.MinuteCandles(ctx, cfg.Backtest.Market, cfg.Backtest.Unit,
		*candles, time.Time{}, *useCache)
	if err != nil {
		log.Fatalf("failed to load candles: %v", err)
	}

	base := regime.DefaultConfig()
	base.ADXThreshold = cfg.Backtest.ADXThreshold
	base.ChopThreshold = cfg.Backtest.ChopThreshold

	result := regime.OptimizeThresholds(bars, adxRange, chopRange, base, regime.DefaultLabelingConfig())

	fmt.Printf("=== Threshold tuning: %s over %d candles ===\n", cfg.Backtest.Market, len(bars))
	fmt.Printf("Best: ADX > %.1f, Chop < %.1f (F1 %.4f, precision %.4f, recall %.4f)\n",
		result.Best.ADXThreshold, result.Best.ChopThreshold,
		result.BestF1.F1, result.BestF1.Precision, result.BestF1.Recall)

	if *showAll {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ADX", "Chop", "F1", "Precision", "Recall", "Accuracy")
		for _, r := range result.Results {
			table.Append(
				fmt.Sprintf("%.1f", r.ADXThreshold),
				fmt.Sprintf("%.1f", r.ChopThreshold),
				fmt.Sprintf("%.4f", r.Metrics.F1),
				fmt.Sprintf("%.4f", r.Metrics.Precision),
				fmt.Sprintf("%.4f", r.Metrics.Recall),
				fmt.Sprintf("%.4f", r.Metrics.Accuracy),
			)
		}
		table.Render()
	}
}

func parseFloats(list string) ([]float64, error) {
	parts := strings.Split(list, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
