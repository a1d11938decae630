// Package domain defines the core types shared across the backtesting
// engine: bars, orders, fills, positions, trade records, and run results.
package domain

import (
	"errors"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ErrInvalidData marks an empty or malformed bar feed. The run for that
// instrument aborts; a batch proceeds to the next instrument.
var ErrInvalidData = errors.New("invalid bar data")

// ErrInvariantViolation marks a broken accounting invariant (negative cash,
// position inconsistent with fills). This is an engine defect, not a market
// condition, and aborts the batch.
var ErrInvariantViolation = errors.New("ledger invariant violation")

// ---------------------------------------------------------------------------
// Market
// ---------------------------------------------------------------------------

// Market identifies the commission segment an instrument trades under.
type Market string

const (
	// MarketAShare is the domestic China A-share segment.
	MarketAShare Market = "a"
	// MarketHKConnect is the cross-border Hong Kong stock connect segment.
	MarketHKConnect Market = "hk"
)

// ParseCode splits an instrument code into its bare code and market. Codes
// carrying the "-HK" suffix trade through stock connect; everything else is
// treated as an A-share.
func ParseCode(code string) (string, Market) {
	if c, ok := strings.CutSuffix(code, "-HK"); ok {
		return strings.TrimSpace(c), MarketHKConnect
	}
	return strings.TrimSpace(code), MarketAShare
}

// ---------------------------------------------------------------------------
// Bars
// ---------------------------------------------------------------------------

// Bar is one day's OHLCV record for an instrument. Bars in a feed are
// strictly ordered by Timestamp and immutable once loaded.
type Bar struct {
	Symbol    string
	Name      string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// ---------------------------------------------------------------------------
// Orders and fills
// ---------------------------------------------------------------------------

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a buy/sell request owned by the execution engine until it reaches
// a terminal status. Size is always positive; direction lives in Side.
type Order struct {
	ID        int64
	Symbol    string
	Side      Side
	Size      int64
	Status    OrderStatus
	CreatedAt time.Time
}

// Intent is a strategy's request for an order. A zero Size asks the engine
// to size the order from the configured sizing policy (buys) or the held
// position (sells).
type Intent struct {
	Side Side
	Size int64
}

// Fill records an executed order. Size is signed: positive for buys,
// negative for sells. Fills are immutable once created.
type Fill struct {
	OrderID    int64
	Symbol     string
	Price      float64
	Size       int64
	Commission float64
	Timestamp  time.Time
}

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

// Position is the signed holding in one instrument. AvgCost follows the
// weighted-average-cost rule: same-direction fills reweight it, reducing
// fills leave it unchanged and realize P&L instead.
type Position struct {
	Size    int64
	AvgCost float64
}

// PortfolioState is the snapshot handed to a strategy each bar.
type PortfolioState struct {
	Cash         float64
	Position     Position
	Equity       float64
	PendingOrder bool
}

// TradeRecord is one round trip: opened when the position leaves zero,
// closed when it returns to zero. GrossPnL is realized price P&L;
// NetPnL subtracts the commissions paid on the trade's fills.
type TradeRecord struct {
	Symbol    string
	EntryTime time.Time
	ExitTime  time.Time
	MaxSize   int64
	GrossPnL  float64
	NetPnL    float64
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// Result holds the summary of one completed backtest run.
type Result struct {
	RunID      int64
	Symbol     string
	Name       string
	Strategy   string
	FillPolicy string

	StartTime time.Time
	EndTime   time.Time

	InitialCash    float64
	FinalEquity    float64
	ReturnPct      float64
	AnnualizedPct  float64
	MaxDrawdownPct float64
	SharpeRatio    float64

	TradeCount   int
	WinRate      float64
	ProfitFactor float64
	BuyCount     int
	SellCount    int

	Trades []TradeRecord
	Equity []EquityPoint
}
