// Package feed supplies ordered daily bars to the backtest driver through a
// simple pull interface.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tidemark/internal/domain"
	"tidemark/internal/store"
)

// ErrEndOfStream is returned by Next once the feed is exhausted.
var ErrEndOfStream = errors.New("end of stream")

// Feed is the pull interface the driver consumes: one bar per call, in
// strictly ascending timestamp order, then ErrEndOfStream.
type Feed interface {
	Next() (domain.Bar, error)
}

// Compile-time interface check.
var _ Feed = (*SliceFeed)(nil)

// SliceFeed replays a validated in-memory slice of bars.
type SliceFeed struct {
	bars []domain.Bar
	i    int
}

// NewSliceFeed validates and wraps a bar slice. The slice must be non-empty
// with strictly increasing timestamps; violations return a
// domain.ErrInvalidData.
func NewSliceFeed(bars []domain.Bar) (*SliceFeed, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty bar feed", domain.ErrInvalidData)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: bars out of order at %s (index %d)",
				domain.ErrInvalidData, bars[i].Timestamp.Format("2006-01-02"), i)
		}
	}
	return &SliceFeed{bars: bars}, nil
}

// Next returns the next bar or ErrEndOfStream.
func (f *SliceFeed) Next() (domain.Bar, error) {
	if f.i >= len(f.bars) {
		return domain.Bar{}, ErrEndOfStream
	}
	b := f.bars[f.i]
	f.i++
	return b, nil
}

// Len returns the total number of bars in the feed.
func (f *SliceFeed) Len() int { return len(f.bars) }

// FromStore reads bars for one instrument out of a bar store and wraps them
// in a validated feed.
func FromStore(ctx context.Context, s store.BarStore, symbol string, market domain.Market, start, end time.Time) (*SliceFeed, error) {
	bars, err := s.ReadBars(ctx, symbol, market, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading bars for %s: %w", symbol, err)
	}
	return NewSliceFeed(bars)
}
