package broker

import (
	"math"
	"testing"

	"tidemark/internal/domain"
)

func feeAlmostEqual(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("fee = %v, want %v", got, want)
	}
}

func TestAShareSellCommission(t *testing.T) {
	c := StockCommission{Market: domain.MarketAShare}

	// Sell 500 shares at 22.49: 5 (floored commission) + 0.11 transfer
	// + 5.62 stamp duty.
	got := c.Fee(-500, 22.49)
	feeAlmostEqual(t, got, 5+500*22.49*0.00001+500*22.49*0.0005)
	if got < 10.62 {
		t.Errorf("sell fee = %v, want at least 10.62", got)
	}
}

func TestAShareBuyCommission(t *testing.T) {
	c := StockCommission{Market: domain.MarketAShare}

	// No stamp duty on buys.
	buy := c.Fee(500, 22.49)
	sell := c.Fee(-500, 22.49)
	if buy >= sell {
		t.Errorf("buy fee %v should be below sell fee %v (stamp duty)", buy, sell)
	}

	// Small buy hits the 5 floor plus transfer fee.
	feeAlmostEqual(t, c.Fee(100, 10), 5+100*10*0.00001)
}

func TestAShareETFCommission(t *testing.T) {
	c := StockCommission{Market: domain.MarketAShare, IsFund: true}

	// 1000 CNY * 0.3% = 3, below the 5 floor.
	feeAlmostEqual(t, c.Fee(100, 10), 5)

	// 10000 CNY * 0.3% = 30.
	feeAlmostEqual(t, c.Fee(1000, 10), 30)

	// ETF pays the same both directions.
	feeAlmostEqual(t, c.Fee(-1000, 10), 30)
}

func TestHKConnectCommission(t *testing.T) {
	c := StockCommission{Market: domain.MarketHKConnect}

	// 10000 shares at 10 HKD = 100000 HKD:
	// commission 27.5, stamp duty 100, trading fee 5.65, levy 2.7,
	// accounting levy 0.15, system fee 4.2 — total 140.2.
	feeAlmostEqual(t, c.Fee(10000, 10), 140.2)

	// Small trade: floors dominate — commission 5, stamp duty 1, plus
	// cent-rounded levies.
	feeAlmostEqual(t, c.Fee(100, 1), 5+1+0.01+0.01+0+0.01)
}

func TestHKConnectETFCommission(t *testing.T) {
	c := StockCommission{Market: domain.MarketHKConnect, IsFund: true}

	// Same as the equity case minus the 100 HKD stamp duty.
	feeAlmostEqual(t, c.Fee(10000, 10), 40.2)
}

func TestZeroSizeNoFee(t *testing.T) {
	for _, c := range []StockCommission{
		{Market: domain.MarketAShare},
		{Market: domain.MarketAShare, IsFund: true},
		{Market: domain.MarketHKConnect},
		{Market: domain.MarketHKConnect, IsFund: true},
	} {
		if got := c.Fee(0, 10); got != 0 {
			t.Errorf("Fee(0) for %+v = %v, want 0", c, got)
		}
	}
}

func TestFeeNonNegative(t *testing.T) {
	sizes := []int64{-100000, -500, -1, 1, 500, 100000}
	prices := []float64{0.01, 1, 22.49, 500}
	for _, c := range []StockCommission{
		{Market: domain.MarketAShare},
		{Market: domain.MarketHKConnect},
	} {
		for _, s := range sizes {
			for _, p := range prices {
				if got := c.Fee(s, p); got < 0 {
					t.Errorf("Fee(%d, %v) = %v, negative", s, p, got)
				}
			}
		}
	}
}
