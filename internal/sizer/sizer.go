// Package sizer converts cash, price, and position into lot-rounded order
// sizes.
package sizer

import "math"

// PolicyKind selects the buy-sizing rule.
type PolicyKind string

const (
	// PercentOfCash spends a fixed fraction of available cash.
	PercentOfCash PolicyKind = "percent_of_cash"
	// FixedAmount spends a fixed currency amount per trade.
	FixedAmount PolicyKind = "fixed_amount"
)

// Policy describes how orders are sized. Lot is the minimum tradable share
// increment; all sizes are multiples of it. When RoundUp is set, buy sizes
// round up to the next lot if the rounded-up cost still fits in cash, and
// fall back to rounding down otherwise. A zero round-down result is a
// no-op, never bumped to a minimum lot.
type Policy struct {
	Kind    PolicyKind
	Percent float64
	Amount  float64
	Lot     int64
	RoundUp bool
}

// BuySize returns the number of shares to buy given available cash and
// price. The result is a non-negative multiple of the lot and never costs
// more than cash.
func BuySize(p Policy, cash, price float64) int64 {
	if price <= 0 || cash <= 0 {
		return 0
	}
	lot := p.Lot
	if lot < 1 {
		lot = 1
	}

	var money float64
	switch p.Kind {
	case FixedAmount:
		money = math.Min(p.Amount, cash)
	default:
		money = cash * p.Percent
	}

	raw := money / price
	if raw < 1 {
		return 0
	}

	maxAffordable := int64(math.Floor(cash / price))

	if p.RoundUp {
		up := int64(math.Ceil(raw/float64(lot))) * lot
		if up > 0 && up <= maxAffordable {
			return up
		}
	}

	down := int64(math.Floor(raw/float64(lot))) * lot
	if down > maxAffordable {
		down = maxAffordable / lot * lot
	}
	if down <= 0 {
		return 0
	}
	return down
}

// SellSize returns the number of shares to sell. FixedAmount policies sell
// roughly Amount worth, floored to the lot but no less than one lot while a
// full lot is held; other policies liquidate the whole position. A position
// smaller than one lot is always sold whole so no sub-lot remainder
// lingers. The result never exceeds the held position.
func SellSize(p Policy, price float64, position int64) int64 {
	if position <= 0 {
		return 0
	}
	lot := p.Lot
	if lot < 1 {
		lot = 1
	}

	if position < lot {
		return position
	}

	if p.Kind != FixedAmount {
		return position
	}

	if price <= 0 {
		return 0
	}

	size := int64(math.Floor(p.Amount/price/float64(lot))) * lot
	if size < lot {
		size = lot
	}
	if size > position {
		size = position
	}
	return size
}
