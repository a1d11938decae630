package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tidemark/internal/config"
	"tidemark/internal/engine"
	"tidemark/internal/report"
	"tidemark/internal/sizer"
	"tidemark/internal/store"
	"tidemark/internal/strategy"
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
		log.Fatal("no instruments to backtest")
	}

	start, err := time.ParseInLocation("2006-01-02", cfg.Backtest.StartDate, time.UTC)
	if err != nil {
		log.Fatalf("bad start_date: %v", err)
	}
	end, err := time.ParseInLocation("2006-01-02", cfg.Backtest.EndDate, time.UTC)
	if err != nil {
		log.Fatalf("bad end_date: %v", err)
	}

	policy, err := engine.ParseFillPolicy(cfg.Backtest.FillPolicy)
	if err != nil {
		log.Fatalf("bad fill_policy: %v", err)
	}

	bars := store.NewParquetStore(cfg.Storage.DataDir)
	runs, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}
	defer runs.Close()

	writers := report.MultiWriter{report.NewLogWriter(logger)}
	if cfg.Storage.ReportDir != "" {
		if err := os.MkdirAll(cfg.Storage.ReportDir, 0o755); err != nil {
			log.Fatalf("failed to create report dir: %v", err)
		}
		name := fmt.Sprintf("backtest-%s.xlsx", time.Now().Format("20060102-150405"))
		xw, err := report.NewExcelWriter(filepath.Join(cfg.Storage.ReportDir, name))
		if err != nil {
			log.Fatalf("failed to create excel writer: %v", err)
		}
		writers = append(writers, xw)
	}

	batch := engine.NewBatch(bars, strategy.DefaultRegistry(), engine.BatchOptions{
		Strategy: cfg.Backtest.Strategy,
		Params:   strategy.Params(cfg.Backtest.Params),
		Policy:   policy,
		Sizing: sizer.Policy{
			Kind:    sizer.PolicyKind(cfg.Backtest.Sizing.Policy),
			Percent: cfg.Backtest.Sizing.Percent,
			Amount:  cfg.Backtest.Sizing.Amount,
			Lot:     cfg.Backtest.Sizing.LotSize,
			RoundUp: cfg.Backtest.Sizing.RoundUp,
		},
		IsFund:      cfg.Backtest.Commission.IsFund,
		InitialCash: cfg.Backtest.InitialCash,
		Start:       start,
		End:         end,
		MaxWorkers:  cfg.Backtest.MaxWorkers,
	}, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	results, err := batch.Run(ctx, codes)
	if err != nil {
		log.Fatalf("batch failed: %v", err)
	}

	for _, res := range results {
		if err := runs.SaveResult(ctx, res); err != nil {
			log.Fatalf("failed to save result for %s: %v", res.Symbol, err)
		}
		if err := writers.WriteResult(res); err != nil {
			log.Fatalf("failed to write result for %s: %v", res.Symbol, err)
		}
	}
	if err := writers.Close(); err != nil {
		log.Fatalf("failed to close report writers: %v", err)
	}

	logger.Info("backtest complete", "instruments", len(results), "strategy", cfg.Backtest.Strategy)
}
