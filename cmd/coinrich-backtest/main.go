// coinrich-backtest runs a strategy over cached (or freshly fetched) Upbit
// candles and prints the performance report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"coinrich/internal/backtest"
	"coinrich/internal/config"
	"coinrich/internal/store"
	"coinrich/internal/strategy"
	"coinrich/internal/upbit"
	"coinrich/internal/util"
)

func main() {
	var (
		strategyName = flag.String("strategy", "", "strategy to run (overrides config)")
		market       = flag.String("market", "", "market to backtest, e.g. KRW-BTC (overrides config)")
		candles      = flag.Int("candles", 0, "number of candles to load (overrides config)")
		noCache      = flag.Bool("no-cache", false, "bypass the candle cache and refetch from the API")
		listTrades   = flag.Bool("trades", false, "print the trade ledger")
		save         = flag.Bool("save", false, "persist the run to the result store")
	)
	flag.Parse()

	// Credentials may live in a local .env file.
	_ = godotenv.Load()

	cfgPath := os.Getenv("COINRICH_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *strategyName != "" {
		cfg.Backtest.Strategy = *strategyName
	}
	if *market != "" {
		cfg.Backtest.Market = *market
	}
	if *candles > 0 {
		cfg.Backtest.Candles = *candles
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	strat, ok := strategy.DefaultRegistry().Get(cfg.Backtest.Strategy)
	if !ok {
		log.Fatalf("unknown strategy %q (have: %v)",
			cfg.Backtest.Strategy, strategy.DefaultRegistry().List())
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
		cfg.Backtest.Candles, time.Time{}, !*noCache)
	if err != nil {
		log.Fatalf("failed to load candles: %v", err)
	}

	engine := backtest.NewEngine(backtest.Config{
		InitialCapital: cfg.Backtest.InitialCapital,
		PositionSize:   cfg.Backtest.PositionSize,
		Commission:     cfg.Backtest.Commission,
		BarsPerYear:    cfg.Backtest.BarsPerYear,
		AnnualRiskFree: cfg.Backtest.AnnualRiskFree,
	}, strat, logger)

	result, err := engine.Run(ctx, bars)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	fmt.Print(result.Summary())
	if *listTrades {
		fmt.Print(result.TradeTable())
	}

	if *save {
		id, err := db.SaveResult(ctx, runRecord(result))
		if err != nil {
			log.Fatalf("failed to save result: %v", err)
		}
		fmt.Printf("saved run %s\n", id)
	}
}

func runRecord(res *backtest.Result) store.RunRecord {
	trades := make([]store.RunTrade, len(res.Trades))
	for i, t := range res.Trades {
		trades[i] = store.RunTrade{
			EntryTime:   t.EntryTime,
			ExitTime:    t.ExitTime,
			EntryPrice:  t.EntryPrice,
			ExitPrice:   t.ExitPrice,
			Quantity:    t.Quantity,
			PnL:         t.PnL,
			PnLPct:      t.PnLPct,
			EntryMarket: string(t.EntryMarket),
			ExitMarket:  string(t.ExitMarket),
		}
	}
	return store.RunRecord{
		Market:   res.Market,
		Strategy: res.Strategy,
		Bars:     len(res.Equity),
		Stats:    res.Statistics(),
		Trades:   trades,
	}
}
