package strategy

import (
	"log/slog"
	"math"

	"tidemark/internal/domain"
	"tidemark/internal/indicator"
)

// MultiFactor scores each bar across four dimensions — trend (fast/slow EMA
// ratio), momentum (the larger of a scaled RSI and MACD reading, normalized
// by volatility), band position (Bollinger %B), and volume pressure (OBV
// slope squashed through tanh) — and multiplies them into one composite
// signal, zeroed whenever the trend filter fails. A buy fires on a sharp
// jump in the composite while price sits in the lower half of the bands;
// exits trigger on the upper band, fading MACD momentum, price losing the
// rolling VWAP, or trend reversal.
type MultiFactor struct {
	log *slog.Logger

	emaFast *indicator.EMA
	emaSlow *indicator.EMA
	rsi     *indicator.RSI
	macd    *indicator.MACD
	sd      *indicator.StdDev
	bb      *indicator.Bollinger
	vwap    *indicator.VWAP
	obv     *indicator.OBV

	trendFilter float64
	scBuy       float64
	vrBuy       float64
	vrSell      float64
	tsSell      float64
	slopeLen    int

	obvHist    []float64
	prevSignal float64
	havePrev   bool

	buyCount  int
	sellCount int
}

var _ Strategy = (*MultiFactor)(nil)

// NewMultiFactor builds the strategy from its parameters. Recognized keys:
// trend_filter, sc_buy, vr_buy, vr_sell, ts_sell, obv_slope_period.
func NewMultiFactor(p Params, log *slog.Logger) *MultiFactor {
	return &MultiFactor{
		log:         log,
		emaFast:     indicator.NewEMA(20),
		emaSlow:     indicator.NewEMA(50),
		rsi:         indicator.NewRSI(14),
		macd:        indicator.NewMACD(12, 26, 9),
		sd:          indicator.NewStdDev(14),
		bb:          indicator.NewBollinger(20, 2),
		vwap:        indicator.NewVWAP(20),
		obv:         indicator.NewOBV(),
		trendFilter: p.Get("trend_filter", 1.01),
		scBuy:       p.Get("sc_buy", 1.1),
		vrBuy:       p.Get("vr_buy", 0.5),
		vrSell:      p.Get("vr_sell", 0.85),
		tsSell:      p.Get("ts_sell", 0.99),
		slopeLen:    int(p.Get("obv_slope_period", 5)),
	}
}

func (s *MultiFactor) Name() string { return "multi-factor" }

func (s *MultiFactor) Init() error { return nil }

func (s *MultiFactor) Next(bar domain.Bar, state domain.PortfolioState) *domain.Intent {
	s.emaFast.Update(bar.Close)
	s.emaSlow.Update(bar.Close)
	s.rsi.Update(bar.Close)
	s.macd.Update(bar.Close)
	s.sd.Update(bar.Close)
	s.bb.Update(bar.Close)
	s.vwap.Update(bar.High, bar.Low, bar.Close, bar.Volume)
	s.obv.Update(bar.Close, bar.Volume)

	if s.obv.Ready() {
		s.obvHist = append(s.obvHist, s.obv.Value())
		if len(s.obvHist) > s.slopeLen {
			s.obvHist = s.obvHist[1:]
		}
	}

	if !s.ready() {
		return nil
	}

	trend := s.emaFast.Value() / s.emaSlow.Value()
	vr := s.bb.PercentB(bar.Close)

	composite := 0.0
	if trend > s.trendFilter {
		composite = s.momentumNorm() * vr * obvAccel(linSlope(s.obvHist))
	}

	change := 1.0
	if s.havePrev && s.prevSignal != 0 {
		change = composite / s.prevSignal
	}
	defer func() {
		s.prevSignal = composite
		s.havePrev = true
	}()

	if state.PendingOrder {
		return nil
	}

	if state.Position.Size > 0 {
		switch {
		case vr > s.vrSell:
			s.log.Debug("upper band exit", "symbol", bar.Symbol, "vr", vr)
		case s.macd.Line() < 0:
			s.log.Debug("momentum fade exit", "symbol", bar.Symbol, "macd", s.macd.Line())
		case bar.Close < s.vwap.Value():
			s.log.Debug("vwap floor exit", "symbol", bar.Symbol,
				"close", bar.Close, "vwap", s.vwap.Value())
		case trend < s.tsSell:
			s.log.Debug("trend reversal exit", "symbol", bar.Symbol, "trend", trend)
		default:
			return nil
		}
		return &domain.Intent{Side: domain.SideSell}
	}

	if change > s.scBuy && vr < s.vrBuy {
		s.log.Debug("composite breakout", "symbol", bar.Symbol,
			"change", change, "vr", vr, "trend", trend)
		return &domain.Intent{Side: domain.SideBuy}
	}
	return nil
}

func (s *MultiFactor) ready() bool {
	return s.emaFast.Ready() && s.emaSlow.Ready() && s.rsi.Ready() &&
		s.macd.Ready() && s.sd.Ready() && s.bb.Ready() && s.vwap.Ready() &&
		len(s.obvHist) >= s.slopeLen
}

// momentumNorm is the momentum factor scaled by volatility: the larger of
// the centered RSI and the doubled MACD line, divided by the price stddev.
// Unit factor when volatility is zero.
func (s *MultiFactor) momentumNorm() float64 {
	m := math.Max((s.rsi.Value()-45)*0.5, s.macd.Line()*2)
	sd := s.sd.Value()
	if sd == 0 {
		return 1
	}
	return m / sd
}

// obvAccel squashes an OBV slope into (-2, 2), saturating for large volume
// swings so a single heavy session cannot dominate the composite.
func obvAccel(slope float64) float64 {
	return math.Tanh(slope*0.1) * 2
}

// linSlope returns the least-squares slope of values against their indices.
func linSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

func (s *MultiFactor) OnOrder(order domain.Order) {
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

func (s *MultiFactor) Stop(state domain.PortfolioState) {
	s.log.Info("strategy finished", "strategy", s.Name(),
		"buys", s.buyCount, "sells", s.sellCount,
		"equity", state.Equity, "position", state.Position.Size)
}
