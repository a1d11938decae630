package strategy

import (
	"log/slog"

	"tidemark/internal/domain"
	"tidemark/internal/indicator"
)

// SpreadExpansion trades the moment three moving averages stop overlapping
// and start fanning out. It watches the 5/10/20-day averages: a buy fires
// when the averages have been squeezed together over the lookback window and
// the spread fans out positive on the current bar. The position is closed when
// the fast-mid gap narrows day over day, or after a maximum holding period.
type SpreadExpansion struct {
	log *slog.Logger

	fast *indicator.SMA
	mid  *indicator.SMA
	slow *indicator.SMA

	maDays      int
	overlapPct  float64
	shrinkDays  int
	shrinkPct   float64
	holdDaysMax int

	holdDays  int
	buyCount  int
	sellCount int
}

var _ Strategy = (*SpreadExpansion)(nil)

// NewSpreadExpansion builds the strategy from its parameters. Recognized
// keys: ma_days, overlap_pct, shrink_days, shrink_pct, hold_days_max.
func NewSpreadExpansion(p Params, log *slog.Logger) *SpreadExpansion {
	maDays := int(p.Get("ma_days", 5))
	shrinkDays := int(p.Get("shrink_days", 3))

	// The squeeze check needs maDays readings before today; narrowing needs
	// shrinkDays+1. Size the reading history for the larger of the two.
	histLen := maDays + 1
	if shrinkDays+1 > histLen {
		histLen = shrinkDays + 1
	}

	return &SpreadExpansion{
		log:         log,
		fast:        indicator.NewSMA(5, histLen),
		mid:         indicator.NewSMA(10, histLen),
		slow:        indicator.NewSMA(20, histLen),
		maDays:      maDays,
		overlapPct:  p.Get("overlap_pct", 0.05),
		shrinkDays:  shrinkDays,
		shrinkPct:   p.Get("shrink_pct", 0.01),
		holdDaysMax: int(p.Get("hold_days_max", 20)),
	}
}

func (s *SpreadExpansion) Name() string { return "spread-expansion" }

func (s *SpreadExpansion) Init() error { return nil }

func (s *SpreadExpansion) Next(bar domain.Bar, state domain.PortfolioState) *domain.Intent {
	s.fast.Update(bar.Close)
	s.mid.Update(bar.Close)
	s.slow.Update(bar.Close)

	if state.Position.Size > 0 {
		s.holdDays++
	}

	if state.PendingOrder {
		return nil
	}

	if state.Position.Size > 0 {
		if s.holdDays >= s.holdDaysMax {
			s.log.Debug("max hold reached", "symbol", bar.Symbol, "days", s.holdDays)
			return &domain.Intent{Side: domain.SideSell}
		}
		if s.narrowing() {
			s.log.Debug("spread narrowing", "symbol", bar.Symbol)
			return &domain.Intent{Side: domain.SideSell}
		}
		return nil
	}

	if s.expansionOnset() {
		s.log.Debug("spread expansion onset", "symbol", bar.Symbol,
			"fast", s.fast.Value(), "mid", s.mid.Value(), "slow", s.slow.Value())
		return &domain.Intent{Side: domain.SideBuy}
	}
	return nil
}

// expansionOnset reports whether the averages were squeezed over the maDays
// bars preceding today and the spread is fanning out into the current bar:
// both gaps positive today and no wider-to-narrower flip from yesterday.
func (s *SpreadExpansion) expansionOnset() bool {
	if s.slow.HistoryLen() < s.maDays+1 {
		return false
	}

	fast := s.fast.History()
	mid := s.mid.History()
	slow := s.slow.History()
	n := len(fast)

	// Squeeze window ends the bar before today.
	win := n - 1 - s.maDays
	if !Squeezed(fast[win:n-1], mid[win:n-1], slow[win:n-1], s.overlapPct) {
		return false
	}
	return Expanding(fast[n-2:], mid[n-2:], slow[n-2:], s.overlapPct)
}

func (s *SpreadExpansion) narrowing() bool {
	if s.fast.HistoryLen() < s.shrinkDays+1 {
		return false
	}
	fast := s.fast.History()
	mid := s.mid.History()
	n := len(fast)
	win := n - (s.shrinkDays + 1)
	return Narrowing(fast[win:], mid[win:], s.shrinkPct)
}

func (s *SpreadExpansion) OnOrder(order domain.Order) {
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

func (s *SpreadExpansion) Stop(state domain.PortfolioState) {
	s.log.Info("strategy finished", "strategy", s.Name(),
		"buys", s.buyCount, "sells", s.sellCount,
		"equity", state.Equity, "position", state.Position.Size)
}
