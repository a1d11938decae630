// Package report renders completed backtest results to their output
// destinations: the structured log, an Excel workbook, or several at once.
// Writers follow an init, write, close lifecycle and are owned by whoever
// created them; no package-level state.
package report

import (
	"errors"
	"log/slog"

	"tidemark/internal/domain"
)

// Writer consumes completed run results.
type Writer interface {
	// WriteResult records one run result.
	WriteResult(res *domain.Result) error
	// Close flushes and releases the destination.
	Close() error
}

// ---------------------------------------------------------------------------
// Log writer
// ---------------------------------------------------------------------------

var _ Writer = (*LogWriter)(nil)

// LogWriter emits one summary log record per result.
type LogWriter struct {
	log *slog.Logger
}

// NewLogWriter creates a LogWriter on the given logger.
func NewLogWriter(log *slog.Logger) *LogWriter {
	return &LogWriter{log: log}
}

// WriteResult logs the result summary.
func (w *LogWriter) WriteResult(res *domain.Result) error {
	w.log.Info("backtest result",
		"symbol", res.Symbol,
		"name", res.Name,
		"strategy", res.Strategy,
		"start", res.StartTime.Format("2006-01-02"),
		"end", res.EndTime.Format("2006-01-02"),
		"final_equity", res.FinalEquity,
		"return_pct", res.ReturnPct,
		"annualized_pct", res.AnnualizedPct,
		"max_drawdown_pct", res.MaxDrawdownPct,
		"sharpe", res.SharpeRatio,
		"trades", res.TradeCount,
		"win_rate", res.WinRate,
		"profit_factor", res.ProfitFactor,
		"buys", res.BuyCount,
		"sells", res.SellCount,
	)
	return nil
}

// Close is a no-op; the logger outlives the writer.
func (w *LogWriter) Close() error { return nil }

// ---------------------------------------------------------------------------
// Multi writer
// ---------------------------------------------------------------------------

var _ Writer = (MultiWriter)(nil)

// MultiWriter fans every result out to several writers.
type MultiWriter []Writer

// WriteResult writes the result to every writer, stopping at the first
// error.
func (m MultiWriter) WriteResult(res *domain.Result) error {
	for _, w := range m {
		if err := w.WriteResult(res); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and returns the combined errors.
func (m MultiWriter) Close() error {
	var errs []error
	for _, w := range m {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
