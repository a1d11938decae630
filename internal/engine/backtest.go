package engine

import (
	"context"
	"errors"
	"log/slog"

	"tidemark/internal/broker"
	"tidemark/internal/domain"
	"tidemark/internal/feed"
	"tidemark/internal/sizer"
	"tidemark/internal/strategy"
)

// Driver runs one strategy over one bar feed and produces a Result. A Driver
// is stateless across runs; per-run state lives in the executor and ledger
// it creates for each Run call.
type Driver struct {
	policy     FillPolicy
	commission broker.CommissionModel
	sizing     sizer.Policy
	log        *slog.Logger
}

// NewDriver creates a Driver with the given fill policy, commission model,
// and sizing policy.
func NewDriver(policy FillPolicy, cm broker.CommissionModel, sp sizer.Policy, log *slog.Logger) *Driver {
	return &Driver{
		policy:     policy,
		commission: cm,
		sizing:     sp,
		log:        log,
	}
}

// Run steps the strategy over the feed bar by bar and returns the completed
// run report. The bar order is the only clock: pending orders resolve at the
// next open or the current close depending on the fill policy, never at a
// price the strategy has not yet seen when it submitted.
//
// A ledger invariant violation aborts the run with ErrInvariantViolation
// wrapped in the returned error.
func (d *Driver) Run(ctx context.Context, f feed.Feed, strat strategy.Strategy, initialCash float64) (*domain.Result, error) {
	if err := strat.Init(); err != nil {
		return nil, err
	}

	res := &domain.Result{
		Strategy:    strat.Name(),
		FillPolicy:  string(d.policy),
		InitialCash: initialCash,
	}

	var (
		exec    *executor
		ledger  *broker.Ledger
		lastBar domain.Bar
		seen    int
	)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		bar, err := f.Next()
		if errors.Is(err, feed.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, err
		}

		if seen == 0 {
			res.Symbol = bar.Symbol
			res.Name = bar.Name
			res.StartTime = bar.Timestamp
			ledger = broker.NewLedger(bar.Symbol, initialCash)
			exec = newExecutor(ledger, d.commission, d.sizing, d.log)
		}
		seen++
		lastBar = bar

		if d.policy == FillNextOpen {
			if err := d.settle(exec, res, strat, bar.Open, bar); err != nil {
				return nil, err
			}
		}

		if intent := strat.Next(bar, exec.snapshot(bar.Close)); intent != nil {
			exec.submit(*intent, bar)
		}

		if d.policy == FillCurrentClose {
			if err := d.settle(exec, res, strat, bar.Close, bar); err != nil {
				return nil, err
			}
		}

		res.Equity = append(res.Equity, domain.EquityPoint{
			Timestamp: bar.Timestamp,
			Equity:    ledger.Equity(bar.Close),
		})
	}

	if seen == 0 {
		return nil, domain.ErrInvalidData
	}

	if order := exec.cancel(); order != nil {
		strat.OnOrder(*order)
	}
	strat.Stop(exec.snapshot(lastBar.Close))

	res.EndTime = lastBar.Timestamp
	res.FinalEquity = ledger.Equity(lastBar.Close)
	res.Trades = ledger.Trades()
	fillMetrics(res)

	d.log.Info("run finished", "symbol", res.Symbol, "strategy", res.Strategy,
		"bars", seen, "trades", res.TradeCount,
		"final_equity", res.FinalEquity, "return_pct", res.ReturnPct)
	return res, nil
}

// settle resolves the pending order at the given price and notifies the
// strategy of the terminal order, counting fills into the result.
func (d *Driver) settle(exec *executor, res *domain.Result, strat strategy.Strategy, price float64, bar domain.Bar) error {
	order, err := exec.resolve(price, bar.Timestamp)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	if order.Status == domain.OrderStatusFilled {
		switch order.Side {
		case domain.SideBuy:
			res.BuyCount++
		case domain.SideSell:
			res.SellCount++
		}
	}
	strat.OnOrder(*order)
	return nil
}
