package broker

import (
	"fmt"
	"time"

	"tidemark/internal/domain"
)

// cashTolerance absorbs float rounding when checking the non-negative cash
// invariant.
const cashTolerance = 1e-6

// Ledger is the authoritative record of cash, position, and realized P&L
// for one backtest run. It mutates exclusively through ApplyFill; the
// execution engine must have already validated affordability, so a fill
// that breaks an invariant here is a fatal engine defect.
type Ledger struct {
	symbol       string
	startingCash float64
	cash         float64
	pos          domain.Position

	fillSum int64 // signed sum of accepted fill sizes

	open   *openTrade
	trades []domain.TradeRecord
}

// openTrade accumulates state for the round trip currently in flight.
type openTrade struct {
	entryTime  time.Time
	maxSize    int64
	grossPnL   float64
	commission float64
}

// NewLedger creates a Ledger for one instrument with the given starting cash.
func NewLedger(symbol string, startingCash float64) *Ledger {
	return &Ledger{
		symbol:       symbol,
		startingCash: startingCash,
		cash:         startingCash,
	}
}

// Cash returns the available cash.
func (l *Ledger) Cash() float64 { return l.cash }

// StartingCash returns the cash the run began with.
func (l *Ledger) StartingCash() float64 { return l.startingCash }

// Position returns the current position.
func (l *Ledger) Position() domain.Position { return l.pos }

// Trades returns the closed round trips recorded so far.
func (l *Ledger) Trades() []domain.TradeRecord { return l.trades }

// ApplyFill updates cash and position for an executed fill. Same-direction
// fills reweight the average cost; reducing fills realize P&L against it.
// A fill that would drive cash negative or close more than the held
// position returns a domain.ErrInvariantViolation with full state context.
func (l *Ledger) ApplyFill(f domain.Fill) error {
	if f.Size == 0 {
		return nil
	}

	if f.Size < 0 && l.pos.Size+f.Size < 0 {
		return fmt.Errorf("%w: sell of %d exceeds position %d (cash=%.2f, symbol=%s)",
			domain.ErrInvariantViolation, -f.Size, l.pos.Size, l.cash, l.symbol)
	}

	cash := l.cash - f.Price*float64(f.Size) - f.Commission
	if cash < -cashTolerance {
		return fmt.Errorf("%w: fill of %d@%.4f (comm %.2f) drives cash to %.2f (position=%d, symbol=%s)",
			domain.ErrInvariantViolation, f.Size, f.Price, f.Commission, cash, l.pos.Size, l.symbol)
	}
	l.cash = cash

	if l.open == nil {
		l.open = &openTrade{entryTime: f.Timestamp}
	}
	l.open.commission += f.Commission

	switch {
	case l.pos.Size == 0 || sameSign(l.pos.Size, f.Size):
		// Opening or adding: weighted-average cost.
		oldValue := l.pos.AvgCost * float64(l.pos.Size)
		l.pos.Size += f.Size
		l.pos.AvgCost = (oldValue + f.Price*float64(f.Size)) / float64(l.pos.Size)
	default:
		// Reducing: realize P&L, average cost unchanged.
		closed := -f.Size
		l.open.grossPnL += (f.Price - l.pos.AvgCost) * float64(closed)
		l.pos.Size += f.Size
		if l.pos.Size == 0 {
			l.pos.AvgCost = 0
			l.trades = append(l.trades, domain.TradeRecord{
				Symbol:    l.symbol,
				EntryTime: l.open.entryTime,
				ExitTime:  f.Timestamp,
				MaxSize:   l.open.maxSize,
				GrossPnL:  l.open.grossPnL,
				NetPnL:    l.open.grossPnL - l.open.commission,
			})
			l.open = nil
		}
	}

	if l.open != nil && l.pos.Size > l.open.maxSize {
		l.open.maxSize = l.pos.Size
	}

	l.fillSum += f.Size
	if l.fillSum != l.pos.Size {
		return fmt.Errorf("%w: position %d diverged from fill sum %d (symbol=%s)",
			domain.ErrInvariantViolation, l.pos.Size, l.fillSum, l.symbol)
	}

	return nil
}

// MarkToMarket returns the unrealized P&L of the open position at the given
// price.
func (l *Ledger) MarkToMarket(price float64) float64 {
	return (price - l.pos.AvgCost) * float64(l.pos.Size)
}

// Equity returns cash plus the position marked at the given price.
func (l *Ledger) Equity(price float64) float64 {
	return l.cash + float64(l.pos.Size)*price
}

// Snapshot returns the portfolio state at the given price.
func (l *Ledger) Snapshot(price float64) domain.PortfolioState {
	return domain.PortfolioState{
		Cash:     l.cash,
		Position: l.pos,
		Equity:   l.Equity(price),
	}
}

func sameSign(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
