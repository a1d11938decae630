package strategy

import (
	"log/slog"

	"tidemark/internal/domain"
)

// PriceVolume is a short-horizon momentum strategy over raw bars, no moving
// averages involved. It buys after three consecutive up days where opens,
// closes, and volumes all rise together, and exits on a fixed profit target
// or after a minimum holding period.
type PriceVolume struct {
	log *slog.Logger

	runLen      int
	holdDaysMin int
	profitPct   float64

	recent   []domain.Bar
	holdDays int

	buyCount  int
	sellCount int
}

var _ Strategy = (*PriceVolume)(nil)

// NewPriceVolume builds the strategy from its parameters. Recognized keys:
// run_len, hold_days_min, profit_pct.
func NewPriceVolume(p Params, log *slog.Logger) *PriceVolume {
	return &PriceVolume{
		log:         log,
		runLen:      int(p.Get("run_len", 3)),
		holdDaysMin: int(p.Get("hold_days_min", 3)),
		profitPct:   p.Get("profit_pct", 0.05),
	}
}

func (s *PriceVolume) Name() string { return "price-volume" }

func (s *PriceVolume) Init() error { return nil }

func (s *PriceVolume) Next(bar domain.Bar, state domain.PortfolioState) *domain.Intent {
	s.recent = append(s.recent, bar)
	if len(s.recent) > s.runLen {
		s.recent = s.recent[1:]
	}

	if state.Position.Size > 0 {
		s.holdDays++
	}

	if state.PendingOrder {
		return nil
	}

	if state.Position.Size > 0 {
		if s.holdDays >= s.holdDaysMin {
			s.log.Debug("min hold reached", "symbol", bar.Symbol, "days", s.holdDays)
			return &domain.Intent{Side: domain.SideSell}
		}
		if cost := state.Position.AvgCost; cost > 0 && (bar.High-cost)/cost >= s.profitPct {
			s.log.Debug("profit target hit", "symbol", bar.Symbol,
				"high", bar.High, "avg_cost", cost)
			return &domain.Intent{Side: domain.SideSell}
		}
		return nil
	}

	if s.momentumRun() {
		s.log.Debug("momentum run", "symbol", bar.Symbol, "days", s.runLen)
		return &domain.Intent{Side: domain.SideBuy}
	}
	return nil
}

// momentumRun reports whether the last runLen bars are all up days with
// opens, closes, and volumes each strictly rising day over day.
func (s *PriceVolume) momentumRun() bool {
	if len(s.recent) < s.runLen {
		return false
	}
	for i, b := range s.recent {
		if b.Close <= b.Open {
			return false
		}
		if i == 0 {
			continue
		}
		prev := s.recent[i-1]
		if b.Close <= prev.Close || b.Open <= prev.Open || b.Volume <= prev.Volume {
			return false
		}
	}
	return true
}

func (s *PriceVolume) OnOrder(order domain.Order) {
	if order.Status != domain.OrderStatusFilled {
		return
	}
	switch order.Side {
	case domain.SideBuy:
		s.buyCount++
		s.holdDays = 0
	case domain.SideSell:
		s.sellCount++
		s.holdDays = 0
	}
}

func (s *PriceVolume) Stop(state domain.PortfolioState) {
	s.log.Info("strategy finished", "strategy", s.Name(),
		"buys", s.buyCount, "sells", s.sellCount,
		"equity", state.Equity, "position", state.Position.Size)
}
