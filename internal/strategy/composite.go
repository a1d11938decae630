package strategy

import (
	"log/slog"

	"tidemark/internal/domain"
	"tidemark/internal/indicator"
)

// Composite is a mean-reversion strategy gated on three oscillators at once.
// It buys when price sits near the lower Bollinger band while RSI is below
// midline and the MACD line is still positive (pullback inside an uptrend),
// and sells when price pushes past the upper band with RSI overbought. Entry
// signals keep firing while a position is open, pyramiding into repeated
// pullbacks rather than waiting for a flat book.
type Composite struct {
	log *slog.Logger

	bb   *indicator.Bollinger
	rsi  *indicator.RSI
	macd *indicator.MACD

	buyBBP  float64
	buyRSI  float64
	sellBBP float64
	sellRSI float64

	buyCount  int
	sellCount int
}

var _ Strategy = (*Composite)(nil)

// NewComposite builds the strategy from its parameters. Recognized keys:
// bb_period, bb_k, rsi_period, macd_fast, macd_slow, macd_signal, buy_bbp,
// buy_rsi, sell_bbp, sell_rsi.
func NewComposite(p Params, log *slog.Logger) *Composite {
	return &Composite{
		log: log,
		bb:  indicator.NewBollinger(int(p.Get("bb_period", 9)), p.Get("bb_k", 2)),
		rsi: indicator.NewRSI(int(p.Get("rsi_period", 7))),
		macd: indicator.NewMACD(
			int(p.Get("macd_fast", 12)),
			int(p.Get("macd_slow", 26)),
			int(p.Get("macd_signal", 10)),
		),
		buyBBP:  p.Get("buy_bbp", 0.2),
		buyRSI:  p.Get("buy_rsi", 50),
		sellBBP: p.Get("sell_bbp", 0.9),
		sellRSI: p.Get("sell_rsi", 80),
	}
}

func (c *Composite) Name() string { return "composite" }

func (c *Composite) Init() error { return nil }

func (c *Composite) Next(bar domain.Bar, state domain.PortfolioState) *domain.Intent {
	c.bb.Update(bar.Close)
	c.rsi.Update(bar.Close)
	c.macd.Update(bar.Close)

	if state.PendingOrder {
		return nil
	}
	if !c.bb.Ready() || !c.rsi.Ready() || !c.macd.Ready() {
		return nil
	}

	bbp := c.bb.PercentB(bar.Close)
	rsi := c.rsi.Value()

	if state.Position.Size > 0 && bbp > c.sellBBP && rsi > c.sellRSI {
		c.log.Debug("overbought exit", "symbol", bar.Symbol, "bbp", bbp, "rsi", rsi)
		return &domain.Intent{Side: domain.SideSell}
	}

	// The entry is not gated on a flat book: renewed pullback signals add to
	// an open position at the sizer's clip, averaging the cost basis.
	if bbp < c.buyBBP && rsi < c.buyRSI && c.macd.Line() > 0 {
		c.log.Debug("pullback entry", "symbol", bar.Symbol,
			"bbp", bbp, "rsi", rsi, "macd", c.macd.Line())
		return &domain.Intent{Side: domain.SideBuy}
	}
	return nil
}

func (c *Composite) OnOrder(order domain.Order) {
	if order.Status != domain.OrderStatusFilled {
		return
	}
	switch order.Side {
	case domain.SideBuy:
		c.buyCount++
	case domain.SideSell:
		c.sellCount++
	}
}

func (c *Composite) Stop(state domain.PortfolioState) {
	if state.Position.Size > 0 {
		c.log.Info("strategy finished holding", "strategy", c.Name(),
			"buys", c.buyCount, "sells", c.sellCount,
			"size", state.Position.Size, "avg_cost", state.Position.AvgCost,
			"equity", state.Equity)
		return
	}
	c.log.Info("strategy finished", "strategy", c.Name(),
		"buys", c.buyCount, "sells", c.sellCount, "equity", state.Equity)
}
