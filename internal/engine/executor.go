// Package engine drives backtest runs: it steps a strategy over a bar feed,
// turns its intents into simulated orders, fills them under the configured
// fill policy, and rolls the results up into run reports.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"tidemark/internal/broker"
	"tidemark/internal/domain"
	"tidemark/internal/sizer"
)

// FillPolicy selects the bar price pending orders execute at. It is fixed
// for the whole run.
type FillPolicy string

const (
	// FillNextOpen executes orders at the open of the bar after submission.
	FillNextOpen FillPolicy = "next_open"
	// FillCurrentClose executes orders at the close of the submission bar.
	FillCurrentClose FillPolicy = "current_close"
)

// ParseFillPolicy validates a fill policy string from configuration.
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch FillPolicy(s) {
	case FillNextOpen, FillCurrentClose:
		return FillPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown fill policy %q", s)
	}
}

// executor owns the single in-flight order of a run and settles it against
// the ledger. At most one order is pending at any time; the driver resolves
// it before the strategy may submit another.
type executor struct {
	ledger     *broker.Ledger
	commission broker.CommissionModel
	sizing     sizer.Policy
	log        *slog.Logger

	pending *domain.Order
	nextID  int64
}

func newExecutor(ledger *broker.Ledger, cm broker.CommissionModel, sp sizer.Policy, log *slog.Logger) *executor {
	return &executor{
		ledger:     ledger,
		commission: cm,
		sizing:     sp,
		log:        log,
	}
}

// snapshot builds the portfolio state handed to the strategy, marking the
// position at the given price.
func (e *executor) snapshot(price float64) domain.PortfolioState {
	state := e.ledger.Snapshot(price)
	state.PendingOrder = e.pending != nil
	return state
}

// submit records a strategy intent as a pending order. An intent arriving
// while another order is in flight is dropped; the strategy saw
// PendingOrder=true and should not have sent it.
func (e *executor) submit(intent domain.Intent, bar domain.Bar) {
	if e.pending != nil {
		e.log.Warn("intent dropped, order already pending",
			"symbol", bar.Symbol, "side", intent.Side)
		return
	}
	if intent.Size < 0 {
		e.log.Warn("intent dropped, negative size",
			"symbol", bar.Symbol, "side", intent.Side, "size", intent.Size)
		return
	}
	e.nextID++
	e.pending = &domain.Order{
		ID:        e.nextID,
		Symbol:    bar.Symbol,
		Side:      intent.Side,
		Size:      intent.Size,
		Status:    domain.OrderStatusSubmitted,
		CreatedAt: bar.Timestamp,
	}
}

// resolve settles the pending order at the given price, applying the fill to
// the ledger. It returns the terminal order for strategy notification, or
// nil when nothing was pending. Partial fills are never modeled: an
// explicitly sized order that cannot execute in full is rejected outright.
// Only engine-sized orders shrink, because there the cap is part of sizing.
func (e *executor) resolve(price float64, ts time.Time) (*domain.Order, error) {
	if e.pending == nil {
		return nil, nil
	}
	order := e.pending
	e.pending = nil

	size := order.Size
	switch order.Side {
	case domain.SideBuy:
		if size == 0 {
			size = sizer.BuySize(e.sizing, e.ledger.Cash(), price)
			size = e.affordable(size, price)
		} else if !e.fits(size, price) {
			size = 0
		}
	case domain.SideSell:
		held := e.ledger.Position().Size
		if size == 0 {
			size = sizer.SellSize(e.sizing, price, held)
			if size > held {
				size = held
			}
		} else if size > held {
			size = 0
		}
	}

	if size <= 0 {
		order.Status = domain.OrderStatusRejected
		e.log.Debug("order rejected", "symbol", order.Symbol,
			"side", order.Side, "price", price)
		return order, nil
	}

	signed := size
	if order.Side == domain.SideSell {
		signed = -size
	}
	fill := domain.Fill{
		OrderID:    order.ID,
		Symbol:     order.Symbol,
		Price:      price,
		Size:       signed,
		Commission: e.commission.Fee(signed, price),
		Timestamp:  ts,
	}
	if err := e.ledger.ApplyFill(fill); err != nil {
		return nil, err
	}

	order.Size = size
	order.Status = domain.OrderStatusFilled
	e.log.Debug("order filled", "symbol", order.Symbol, "side", order.Side,
		"size", size, "price", price, "commission", fill.Commission)
	return order, nil
}

// fits reports whether buying size shares at price, commission included,
// stays within cash.
func (e *executor) fits(size int64, price float64) bool {
	return float64(size)*price+e.commission.Fee(size, price) <= e.ledger.Cash()
}

// affordable shrinks an engine-sized buy lot by lot until price*size plus
// commission fits in cash. Zero means the order cannot execute at all.
func (e *executor) affordable(size int64, price float64) int64 {
	lot := e.sizing.Lot
	if lot < 1 {
		lot = 1
	}
	for size > 0 {
		if e.fits(size, price) {
			return size
		}
		size -= lot
	}
	return 0
}

// cancel discards the pending order at end of stream and returns it with
// cancelled status, or nil when nothing was pending.
func (e *executor) cancel() *domain.Order {
	if e.pending == nil {
		return nil
	}
	order := e.pending
	e.pending = nil
	order.Status = domain.OrderStatusCancelled
	return order
}
