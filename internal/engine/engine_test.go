package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"tidemark/internal/broker"
	"tidemark/internal/domain"
	"tidemark/internal/feed"
	"tidemark/internal/sizer"
	"tidemark/internal/strategy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeBars(symbol string, closes []float64) []domain.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol:    symbol,
			Timestamp: base.AddDate(0, 0, i),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

// scriptStrategy emits a fixed intent at chosen bar indices and records
// every order notification it receives.
type scriptStrategy struct {
	intents map[int]*domain.Intent
	bar     int
	orders  []domain.Order
	stopped bool
}

var _ strategy.Strategy = (*scriptStrategy)(nil)

func (s *scriptStrategy) Name() string { return "script" }
func (s *scriptStrategy) Init() error  { return nil }

func (s *scriptStrategy) Next(_ domain.Bar, _ domain.PortfolioState) *domain.Intent {
	intent := s.intents[s.bar]
	s.bar++
	return intent
}

func (s *scriptStrategy) OnOrder(order domain.Order)   { s.orders = append(s.orders, order) }
func (s *scriptStrategy) Stop(_ domain.PortfolioState) { s.stopped = true }

func testDriver(policy FillPolicy) *Driver {
	cm := broker.StockCommission{Market: domain.MarketAShare}
	sp := sizer.Policy{Kind: sizer.PercentOfCash, Percent: 1, Lot: 100}
	return NewDriver(policy, cm, sp, testLogger())
}

func mustFeed(t *testing.T, bars []domain.Bar) feed.Feed {
	t.Helper()
	f, err := feed.NewSliceFeed(bars)
	if err != nil {
		t.Fatalf("NewSliceFeed: %v", err)
	}
	return f
}

// ---------------------------------------------------------------------------
// Driver
// ---------------------------------------------------------------------------

func TestRunFillsAtNextOpen(t *testing.T) {
	bars := makeBars("600000", []float64{10, 11, 12, 13})
	strat := &scriptStrategy{intents: map[int]*domain.Intent{
		0: {Side: domain.SideBuy, Size: 100},
	}}

	res, err := testDriver(FillNextOpen).Run(context.Background(), mustFeed(t, bars), strat, 100000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(strat.orders) != 1 {
		t.Fatalf("got %d order notifications, want 1", len(strat.orders))
	}
	order := strat.orders[0]
	if order.Status != domain.OrderStatusFilled {
		t.Fatalf("order status = %v, want filled", order.Status)
	}
	// Submitted on bar 0, so the fill lands on bar 1 whose open is 10.5.
	wantCost := 100*10.5 + 5 + 100*10.5*0.00001
	gotSpent := res.InitialCash - (res.FinalEquity - 13*100)
	if math.Abs(gotSpent-wantCost) > 1e-6 {
		t.Errorf("cash spent = %.4f, want %.4f", gotSpent, wantCost)
	}
	if res.BuyCount != 1 || res.SellCount != 0 {
		t.Errorf("buy/sell counts = %d/%d, want 1/0", res.BuyCount, res.SellCount)
	}
	if !strat.stopped {
		t.Error("Stop was not called")
	}
}

func TestRunFillsAtCurrentClose(t *testing.T) {
	bars := makeBars("600000", []float64{10, 11, 12})
	strat := &scriptStrategy{intents: map[int]*domain.Intent{
		0: {Side: domain.SideBuy, Size: 100},
	}}

	res, err := testDriver(FillCurrentClose).Run(context.Background(), mustFeed(t, bars), strat, 100000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Filled at bar 0's close of 10.
	wantCost := 100*10.0 + 5 + 100*10.0*0.00001
	gotSpent := res.InitialCash - (res.FinalEquity - 12*100)
	if math.Abs(gotSpent-wantCost) > 1e-6 {
		t.Errorf("cash spent = %.4f, want %.4f", gotSpent, wantCost)
	}
}

func TestRunRoundTripReturn(t *testing.T) {
	bars := makeBars("600000", []float64{10, 11, 12, 13, 14})
	strat := &scriptStrategy{intents: map[int]*domain.Intent{
		0: {Side: domain.SideBuy},  // engine-sized
		3: {Side: domain.SideSell}, // close out
	}}

	res, err := testDriver(FillNextOpen).Run(context.Background(), mustFeed(t, bars), strat, 100000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TradeCount != 1 {
		t.Fatalf("TradeCount = %d, want 1", res.TradeCount)
	}
	wantReturn := (res.FinalEquity - res.InitialCash) / res.InitialCash
	if math.Abs(res.ReturnPct-wantReturn) > 1e-12 {
		t.Errorf("ReturnPct = %v, want %v", res.ReturnPct, wantReturn)
	}
	if len(res.Equity) != len(bars) {
		t.Errorf("equity curve has %d points, want %d", len(res.Equity), len(bars))
	}
}

func TestRunRejectsUnaffordableOrder(t *testing.T) {
	bars := makeBars("600000", []float64{100, 100, 100})
	strat := &scriptStrategy{intents: map[int]*domain.Intent{
		0: {Side: domain.SideBuy, Size: 100},
	}}

	// 100 shares at ~99.5 plus commission cannot fit in 500 of cash.
	res, err := testDriver(FillNextOpen).Run(context.Background(), mustFeed(t, bars), strat, 500)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(strat.orders) != 1 || strat.orders[0].Status != domain.OrderStatusRejected {
		t.Fatalf("expected one rejected order, got %+v", strat.orders)
	}
	if res.BuyCount != 0 {
		t.Errorf("BuyCount = %d, want 0", res.BuyCount)
	}
	if res.FinalEquity != 500 {
		t.Errorf("FinalEquity = %v, want untouched 500", res.FinalEquity)
	}
}

func TestRunRejectsPartiallyAffordableExplicitBuy(t *testing.T) {
	bars := makeBars("600000", []float64{10, 10, 10})
	strat := &scriptStrategy{intents: map[int]*domain.Intent{
		0: {Side: domain.SideBuy, Size: 500},
	}}

	// Cash covers roughly 200 of the 500 requested shares at the 9.5 open.
	// The order must reject whole, never fill a reduced size.
	res, err := testDriver(FillNextOpen).Run(context.Background(), mustFeed(t, bars), strat, 2000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(strat.orders) != 1 {
		t.Fatalf("got %d order notifications, want 1", len(strat.orders))
	}
	order := strat.orders[0]
	if order.Status != domain.OrderStatusRejected {
		t.Fatalf("order status = %v, want rejected", order.Status)
	}
	if order.Size != 500 {
		t.Errorf("rejected order size = %d, want the requested 500", order.Size)
	}
	if res.BuyCount != 0 {
		t.Errorf("BuyCount = %d, want 0", res.BuyCount)
	}
	if res.FinalEquity != 2000 {
		t.Errorf("FinalEquity = %v, want untouched 2000", res.FinalEquity)
	}
}

func TestRunRejectsExplicitSellExceedingPosition(t *testing.T) {
	bars := makeBars("600000", []float64{10, 10, 10, 10})
	strat := &scriptStrategy{intents: map[int]*domain.Intent{
		0: {Side: domain.SideBuy, Size: 100},
		1: {Side: domain.SideSell, Size: 300},
	}}

	res, err := testDriver(FillNextOpen).Run(context.Background(), mustFeed(t, bars), strat, 10000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(strat.orders) != 2 {
		t.Fatalf("got %d order notifications, want 2", len(strat.orders))
	}
	if strat.orders[0].Status != domain.OrderStatusFilled {
		t.Fatalf("buy status = %v, want filled", strat.orders[0].Status)
	}
	// Holding 100: an explicit sell of 300 rejects whole, not capped to 100.
	if strat.orders[1].Status != domain.OrderStatusRejected {
		t.Fatalf("sell status = %v, want rejected", strat.orders[1].Status)
	}
	if res.SellCount != 0 {
		t.Errorf("SellCount = %d, want 0", res.SellCount)
	}
	if res.TradeCount != 0 {
		t.Errorf("TradeCount = %d, want 0 with the position still open", res.TradeCount)
	}
}

func TestRunEngineSizedBuyShrinksToAffordable(t *testing.T) {
	bars := makeBars("600000", []float64{10, 10, 10})
	strat := &scriptStrategy{intents: map[int]*domain.Intent{
		0: {Side: domain.SideBuy}, // engine-sized: capping is part of sizing
	}}

	res, err := testDriver(FillNextOpen).Run(context.Background(), mustFeed(t, bars), strat, 2000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(strat.orders) != 1 || strat.orders[0].Status != domain.OrderStatusFilled {
		t.Fatalf("expected one filled order, got %+v", strat.orders)
	}
	// 2000 of cash at the 9.5 open buys exactly two lots.
	if strat.orders[0].Size != 200 {
		t.Errorf("filled size = %d, want 200", strat.orders[0].Size)
	}
	if res.BuyCount != 1 {
		t.Errorf("BuyCount = %d, want 1", res.BuyCount)
	}
}

func TestRunRejectsSellWithNoPosition(t *testing.T) {
	bars := makeBars("600000", []float64{10, 11, 12})
	strat := &scriptStrategy{intents: map[int]*domain.Intent{
		0: {Side: domain.SideSell},
	}}

	res, err := testDriver(FillNextOpen).Run(context.Background(), mustFeed(t, bars), strat, 10000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(strat.orders) != 1 || strat.orders[0].Status != domain.OrderStatusRejected {
		t.Fatalf("expected one rejected order, got %+v", strat.orders)
	}
	if res.SellCount != 0 {
		t.Errorf("SellCount = %d, want 0", res.SellCount)
	}
}

func TestRunCancelsPendingAtStreamEnd(t *testing.T) {
	bars := makeBars("600000", []float64{10, 11})
	strat := &scriptStrategy{intents: map[int]*domain.Intent{
		1: {Side: domain.SideBuy, Size: 100}, // submitted on the last bar
	}}

	_, err := testDriver(FillNextOpen).Run(context.Background(), mustFeed(t, bars), strat, 10000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(strat.orders) != 1 || strat.orders[0].Status != domain.OrderStatusCancelled {
		t.Fatalf("expected one cancelled order, got %+v", strat.orders)
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bars := makeBars("600000", []float64{10, 11})
	_, err := testDriver(FillNextOpen).Run(ctx, mustFeed(t, bars), &scriptStrategy{}, 10000)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestParseFillPolicy(t *testing.T) {
	if _, err := ParseFillPolicy("next_open"); err != nil {
		t.Errorf("next_open rejected: %v", err)
	}
	if _, err := ParseFillPolicy("current_close"); err != nil {
		t.Errorf("current_close rejected: %v", err)
	}
	if _, err := ParseFillPolicy("at_vwap"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

func TestMaxDrawdown(t *testing.T) {
	curve := []domain.EquityPoint{
		{Equity: 100}, {Equity: 120}, {Equity: 90}, {Equity: 130}, {Equity: 117},
	}
	// Worst decline: 120 -> 90.
	got := maxDrawdown(curve)
	want := 0.25
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("maxDrawdown = %v, want %v", got, want)
	}
}

func TestMaxDrawdownMonotoneCurve(t *testing.T) {
	curve := []domain.EquityPoint{{Equity: 100}, {Equity: 110}, {Equity: 125}}
	if got := maxDrawdown(curve); got != 0 {
		t.Errorf("maxDrawdown = %v, want 0 for rising curve", got)
	}
}

func TestSharpeZeroVariance(t *testing.T) {
	curve := []domain.EquityPoint{{Equity: 100}, {Equity: 100}, {Equity: 100}}
	if got := sharpe(curve); got != 0 {
		t.Errorf("sharpe = %v, want 0 for flat curve", got)
	}
}

func TestFillMetricsTradeStats(t *testing.T) {
	res := &domain.Result{
		InitialCash: 100,
		FinalEquity: 110,
		Trades: []domain.TradeRecord{
			{NetPnL: 30}, {NetPnL: -10}, {NetPnL: -5}, {NetPnL: 20},
		},
	}
	fillMetrics(res)

	if res.TradeCount != 4 {
		t.Errorf("TradeCount = %d, want 4", res.TradeCount)
	}
	if res.WinRate != 0.5 {
		t.Errorf("WinRate = %v, want 0.5", res.WinRate)
	}
	wantPF := 50.0 / 15.0
	if math.Abs(res.ProfitFactor-wantPF) > 1e-12 {
		t.Errorf("ProfitFactor = %v, want %v", res.ProfitFactor, wantPF)
	}
	if res.ReturnPct != 0.1 {
		t.Errorf("ReturnPct = %v, want 0.1", res.ReturnPct)
	}
}

func TestAnnualizeOneYearSpan(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	res := &domain.Result{
		StartTime:   start,
		EndTime:     start.AddDate(1, 0, 0),
		InitialCash: 100,
		FinalEquity: 121,
	}
	got := annualize(res)
	if math.Abs(got-0.21) > 0.01 {
		t.Errorf("annualize = %v, want ~0.21 over one year", got)
	}
}

// ---------------------------------------------------------------------------
// Batch
// ---------------------------------------------------------------------------

// mapStore serves canned bars keyed by symbol.
type mapStore struct {
	bars map[string][]domain.Bar
}

func (m *mapStore) WriteBars(_ context.Context, _ domain.Market, bars []domain.Bar) error {
	return nil
}

func (m *mapStore) ReadBars(_ context.Context, symbol string, _ domain.Market, _, _ time.Time) ([]domain.Bar, error) {
	return m.bars[symbol], nil
}

func (m *mapStore) ListSymbols(_ context.Context, _ domain.Market) ([]string, error) {
	syms := make([]string, 0, len(m.bars))
	for s := range m.bars {
		syms = append(syms, s)
	}
	return syms, nil
}

func testBatch(bars map[string][]domain.Bar, workers int) *Batch {
	reg := strategy.NewRegistry()
	reg.Register("script", func(_ strategy.Params, _ *slog.Logger) strategy.Strategy {
		return &scriptStrategy{intents: map[int]*domain.Intent{0: {Side: domain.SideBuy}}}
	})
	return NewBatch(&mapStore{bars: bars}, reg, BatchOptions{
		Strategy:    "script",
		Policy:      FillNextOpen,
		Sizing:      sizer.Policy{Kind: sizer.PercentOfCash, Percent: 0.5, Lot: 100},
		InitialCash: 100000,
		MaxWorkers:  workers,
	}, testLogger())
}

func TestBatchSkipsMissingInstrument(t *testing.T) {
	bars := map[string][]domain.Bar{
		"600000": makeBars("600000", []float64{10, 11, 12}),
		"000001": makeBars("000001", []float64{20, 21, 22}),
	}
	b := testBatch(bars, 2)

	results, err := b.Run(context.Background(), []string{"600000", "999999", "000001"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// Order of completed results follows the input code order.
	if results[0].Symbol != "600000" || results[1].Symbol != "000001" {
		t.Errorf("result symbols = %s, %s; want 600000, 000001",
			results[0].Symbol, results[1].Symbol)
	}
}

func TestBatchEmptyCodes(t *testing.T) {
	b := testBatch(nil, 2)
	results, err := b.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for empty codes, got %v", results)
	}
}

func TestBatchSingleWorkerMatchesParallel(t *testing.T) {
	bars := map[string][]domain.Bar{
		"600000": makeBars("600000", []float64{10, 11, 12, 13}),
		"000001": makeBars("000001", []float64{20, 19, 21, 22}),
	}
	codes := []string{"600000", "000001"}

	serial, err := testBatch(bars, 1).Run(context.Background(), codes)
	if err != nil {
		t.Fatalf("serial Run: %v", err)
	}
	parallel, err := testBatch(bars, 4).Run(context.Background(), codes)
	if err != nil {
		t.Fatalf("parallel Run: %v", err)
	}
	if len(serial) != len(parallel) {
		t.Fatalf("result counts differ: %d vs %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i].FinalEquity != parallel[i].FinalEquity {
			t.Errorf("final equity differs for %s: %v vs %v",
				serial[i].Symbol, serial[i].FinalEquity, parallel[i].FinalEquity)
		}
	}
}
