package engine

import (
	"math"

	"tidemark/internal/domain"
)

const tradingDaysPerYear = 252

// fillMetrics rolls the equity curve and trade list up into the summary
// statistics of a Result. Rates are fractions, not percentages.
func fillMetrics(res *domain.Result) {
	if res.InitialCash > 0 {
		res.ReturnPct = (res.FinalEquity - res.InitialCash) / res.InitialCash
	}
	res.AnnualizedPct = annualize(res)
	res.MaxDrawdownPct = maxDrawdown(res.Equity)
	res.SharpeRatio = sharpe(res.Equity)

	res.TradeCount = len(res.Trades)
	var wins int
	var winsAmt, lossAmt float64
	for _, t := range res.Trades {
		if t.NetPnL > 0 {
			wins++
			winsAmt += t.NetPnL
		} else {
			lossAmt += -t.NetPnL
		}
	}
	if res.TradeCount > 0 {
		res.WinRate = float64(wins) / float64(res.TradeCount)
	}
	switch {
	case lossAmt > 0:
		res.ProfitFactor = winsAmt / lossAmt
	case winsAmt > 0:
		res.ProfitFactor = math.Inf(1)
	}
}

// annualize converts the total return into a compound annual rate over the
// run's calendar span. Zero when the span is under a day or the run lost
// everything.
func annualize(res *domain.Result) float64 {
	days := res.EndTime.Sub(res.StartTime).Hours() / 24
	if days < 1 || res.InitialCash <= 0 || res.FinalEquity <= 0 {
		return 0
	}
	years := days / 365.25
	return math.Pow(res.FinalEquity/res.InitialCash, 1/years) - 1
}

// maxDrawdown returns the largest peak-to-trough equity decline as a
// fraction of the peak.
func maxDrawdown(curve []domain.EquityPoint) float64 {
	var peak, maxDD float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpe computes the annualized Sharpe ratio over daily equity returns,
// assuming a zero risk-free rate. Zero when returns have no variance.
func sharpe(curve []domain.EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			return 0
		}
		rets = append(rets, curve[i].Equity/prev-1)
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var sq float64
	for _, r := range rets {
		d := r - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(len(rets)))
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(tradingDaysPerYear)
}
