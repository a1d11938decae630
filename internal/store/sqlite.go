package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"tidemark/internal/domain"
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol           TEXT NOT NULL,
	name             TEXT NOT NULL DEFAULT '',
	strategy         TEXT NOT NULL,
	fill_policy      TEXT NOT NULL,
	start_time       INTEGER NOT NULL,
	end_time         INTEGER NOT NULL,
	initial_cash     REAL NOT NULL,
	final_equity     REAL NOT NULL,
	return_pct       REAL NOT NULL,
	annualized_pct   REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL,
	sharpe_ratio     REAL NOT NULL,
	trade_count      INTEGER NOT NULL,
	win_rate         REAL NOT NULL,
	profit_factor    REAL NOT NULL,
	buy_count        INTEGER NOT NULL,
	sell_count       INTEGER NOT NULL,
	created_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     INTEGER NOT NULL REFERENCES runs(id),
	symbol     TEXT NOT NULL,
	entry_time INTEGER NOT NULL,
	exit_time  INTEGER NOT NULL,
	max_size   INTEGER NOT NULL,
	gross_pnl  REAL NOT NULL,
	net_pnl    REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult inserts a run and its trades in one transaction and records the
// generated run ID on the result.
func (s *SQLiteStore) SaveResult(ctx context.Context, result *domain.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			symbol, name, strategy, fill_policy, start_time, end_time,
			initial_cash, final_equity, return_pct, annualized_pct,
			max_drawdown_pct, sharpe_ratio, trade_count, win_rate,
			profit_factor, buy_count, sell_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Symbol, result.Name, result.Strategy, result.FillPolicy,
		result.StartTime.UnixMilli(), result.EndTime.UnixMilli(),
		result.InitialCash, result.FinalEquity, result.ReturnPct,
		result.AnnualizedPct, result.MaxDrawdownPct, result.SharpeRatio,
		result.TradeCount, result.WinRate, result.ProfitFactor,
		result.BuyCount, result.SellCount, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting run for %s: %w", result.Symbol, err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, tr := range result.Trades {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trades (run_id, symbol, entry_time, exit_time, max_size, gross_pnl, net_pnl)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, tr.Symbol, tr.EntryTime.UnixMilli(), tr.ExitTime.UnixMilli(),
			tr.MaxSize, tr.GrossPnL, tr.NetPnL,
		); err != nil {
			return fmt.Errorf("inserting trade for run %d: %w", runID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	result.RunID = runID
	return nil
}

// ListResults returns the most recent runs, newest first.
func (s *SQLiteStore) ListResults(ctx context.Context, limit int) ([]domain.Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, name, strategy, fill_policy, start_time, end_time,
		       initial_cash, final_equity, return_pct, annualized_pct,
		       max_drawdown_pct, sharpe_ratio, trade_count, win_rate,
		       profit_factor, buy_count, sell_count
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var r domain.Result
		var startMs, endMs int64
		if err := rows.Scan(
			&r.RunID, &r.Symbol, &r.Name, &r.Strategy, &r.FillPolicy,
			&startMs, &endMs, &r.InitialCash, &r.FinalEquity, &r.ReturnPct,
			&r.AnnualizedPct, &r.MaxDrawdownPct, &r.SharpeRatio,
			&r.TradeCount, &r.WinRate, &r.ProfitFactor,
			&r.BuyCount, &r.SellCount,
		); err != nil {
			return nil, err
		}
		r.StartTime = time.UnixMilli(startMs).UTC()
		r.EndTime = time.UnixMilli(endMs).UTC()
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListTrades returns the trade records of one run, in entry order.
func (s *SQLiteStore) ListTrades(ctx context.Context, runID int64) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, entry_time, exit_time, max_size, gross_pnl, net_pnl
		FROM trades WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var tr domain.TradeRecord
		var entryMs, exitMs int64
		if err := rows.Scan(&tr.Symbol, &entryMs, &exitMs, &tr.MaxSize, &tr.GrossPnL, &tr.NetPnL); err != nil {
			return nil, err
		}
		tr.EntryTime = time.UnixMilli(entryMs).UTC()
		tr.ExitTime = time.UnixMilli(exitMs).UTC()
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}
