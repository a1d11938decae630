package strategy

import (
	"log/slog"

	"tidemark/internal/domain"
	"tidemark/internal/indicator"
)

// SMACross is a simple moving average crossover strategy. It buys when the
// fast average crosses above the slow average and sells when it crosses
// back below.
type SMACross struct {
	log *slog.Logger

	fast *indicator.SMA
	slow *indicator.SMA

	prevDiff  float64
	havePrev  bool
	buyCount  int
	sellCount int
}

var _ Strategy = (*SMACross)(nil)

// NewSMACross builds the strategy from its parameters. Recognized keys:
// fast_period, slow_period.
func NewSMACross(p Params, log *slog.Logger) *SMACross {
	return &SMACross{
		log:  log,
		fast: indicator.NewSMA(int(p.Get("fast_period", 5)), 1),
		slow: indicator.NewSMA(int(p.Get("slow_period", 20)), 1),
	}
}

func (s *SMACross) Name() string { return "sma-cross" }

func (s *SMACross) Init() error { return nil }

func (s *SMACross) Next(bar domain.Bar, state domain.PortfolioState) *domain.Intent {
	s.fast.Update(bar.Close)
	s.slow.Update(bar.Close)

	if !s.fast.Ready() || !s.slow.Ready() {
		return nil
	}

	diff := s.fast.Value() - s.slow.Value()
	defer func() {
		s.prevDiff = diff
		s.havePrev = true
	}()

	if !s.havePrev || state.PendingOrder {
		return nil
	}

	crossedUp := s.prevDiff <= 0 && diff > 0
	crossedDown := s.prevDiff >= 0 && diff < 0

	if crossedUp && state.Position.Size == 0 {
		s.log.Debug("golden cross", "symbol", bar.Symbol,
			"fast", s.fast.Value(), "slow", s.slow.Value())
		return &domain.Intent{Side: domain.SideBuy}
	}
	if crossedDown && state.Position.Size > 0 {
		s.log.Debug("death cross", "symbol", bar.Symbol,
			"fast", s.fast.Value(), "slow", s.slow.Value())
		return &domain.Intent{Side: domain.SideSell}
	}
	return nil
}

func (s *SMACross) OnOrder(order domain.Order) {
	if order.Status != domain.OrderStatusFilled {
		return
	}
	switch order.Side {
	case domain.SideBuy:
		s.buyCount++
	case domain.SideSell:
		s.sellCount++
	}
}

func (s *SMACross) Stop(state domain.PortfolioState) {
	s.log.Info("strategy finished", "strategy", s.Name(),
		"buys", s.buyCount, "sells", s.sellCount, "equity", state.Equity)
}
