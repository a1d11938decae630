// Package store defines storage interfaces for persisting and retrieving
// daily bars and backtest run results.
package store

import (
	"context"
	"time"

	"tidemark/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars under the given market.
	WriteBars(ctx context.Context, market domain.Market, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol and market within
	// [start, end], sorted by timestamp.
	ReadBars(ctx context.Context, symbol string, market domain.Market, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market domain.Market) ([]string, error)
}

// RunStore persists completed backtest results and their trade records.
type RunStore interface {
	// SaveResult inserts a run and its trades, setting result.RunID.
	SaveResult(ctx context.Context, result *domain.Result) error

	// ListResults returns the most recent runs, newest first, up to limit.
	// Trade and equity details are not populated.
	ListResults(ctx context.Context, limit int) ([]domain.Result, error)

	// ListTrades returns the trade records of one run.
	ListTrades(ctx context.Context, runID int64) ([]domain.TradeRecord, error)

	// Close releases the underlying storage.
	Close() error
}
