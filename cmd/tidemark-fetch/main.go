package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tidemark/internal/config"
	"tidemark/internal/fetch"
	"tidemark/internal/store"
	"tidemark/internal/util"
)

func main() {
	cfgPath := "config/tidemark.yaml"
	if p := os.Getenv("TIDEMARK_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	codes, err := util.ReadStockList(cfg.Backtest.StockFiles)
	if err != nil {
		log.Fatalf("failed to read stock lists: %v", err)
	}
	if len(codes) == 0 {
		log.Fatal("no instruments to fetch")
	}

	startDate, err := time.ParseInLocation("2006-01-02", cfg.Fetch.StartDate, time.UTC)
	if err != nil {
		log.Fatalf("bad fetch start_date: %v", err)
	}

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	client := fetch.NewQuoteClient(cfg.Fetch.BaseURL)
	gatherer := fetch.NewDailyBarGatherer(
		client,
		bars,
		startDate,
		cfg.Fetch.RateLimitPerMin,
		cfg.Fetch.MaxRetries,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting gatherer", "name", gatherer.Name(), "instruments", len(codes))
	stored, err := gatherer.Run(ctx, codes)
	if err != nil {
		log.Fatalf("gatherer error: %v", err)
	}
	logger.Info("fetch complete", "stored", stored, "requested", len(codes))
}
