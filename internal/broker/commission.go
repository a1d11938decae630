// Package broker implements the simulated brokerage side of a backtest:
// the commission model and the portfolio ledger.
package broker

import (
	"math"

	"tidemark/internal/domain"
)

// CommissionModel maps a trade to its total fee. Size follows the signed
// convention: positive buys, negative sells. Implementations are pure and
// always return a non-negative amount; Fee(0, p) is 0.
type CommissionModel interface {
	Fee(size int64, price float64) float64
}

// Compile-time interface check.
var _ CommissionModel = StockCommission{}

// StockCommission is the fee schedule for A-share and Hong Kong stock
// connect trading. ETF-class instruments use the fund variants, which drop
// stamp duty and transfer fees.
type StockCommission struct {
	Market domain.Market
	IsFund bool
}

// Fee returns the total commission for a fill of the given signed size at
// the given price.
func (c StockCommission) Fee(size int64, price float64) float64 {
	if size == 0 {
		return 0
	}
	if c.Market == domain.MarketHKConnect {
		return c.hkConnectFee(size, price)
	}
	return c.aShareFee(size, price)
}

// aShareFee computes domestic A-share fees: base commission with a 5 CNY
// floor, transfer fee both ways, stamp duty on sells only. ETFs pay a flat
// 0.3% commission with the same floor and nothing else.
func (c StockCommission) aShareFee(size int64, price float64) float64 {
	amount := math.Abs(float64(size)) * price

	if c.IsFund {
		return math.Max(amount*0.003, 5)
	}

	commission := math.Max(amount*0.000285, 5)
	transferFee := amount * 0.00001

	stampDuty := 0.0
	if size < 0 {
		stampDuty = amount * 0.0005
	}

	return commission + transferFee + stampDuty
}

// hkConnectFee computes Hong Kong stock connect fees per the SSE published
// schedule: commission with a 5 HKD floor, stamp duty rounded to the dollar
// with a 1 HKD floor (waived for ETFs), and four small per-trade levies
// rounded to the cent.
func (c StockCommission) hkConnectFee(size int64, price float64) float64 {
	amount := math.Abs(float64(size)) * price

	commission := math.Max(amount*0.000275, 5)

	stampDuty := 0.0
	if !c.IsFund {
		stampDuty = math.Max(math.Round(amount*0.001), 1)
	}

	tradingFee := round2(amount * 0.0000565)
	levy := round2(amount * 0.000027)
	accountingLevy := round2(amount * 0.0000015)
	systemFee := round2(amount * 0.000042)

	return commission + stampDuty + tradingFee + levy + accountingLevy + systemFee
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
