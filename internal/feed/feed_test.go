package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"tidemark/internal/domain"
	"tidemark/internal/store"
)

func bars(n int) []domain.Bar {
	out := make([]domain.Bar, n)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = domain.Bar{
			Symbol:    "600028",
			Timestamp: base.AddDate(0, 0, i),
			Open:      10,
			High:      11,
			Low:       9,
			Close:     10.5,
			Volume:    1000,
		}
	}
	return out
}

func TestSliceFeedIteration(t *testing.T) {
	f, err := NewSliceFeed(bars(3))
	if err != nil {
		t.Fatalf("NewSliceFeed: %v", err)
	}
	if f.Len() != 3 {
		t.Errorf("Len = %d, want 3", f.Len())
	}

	var prev time.Time
	for i := 0; i < 3; i++ {
		b, err := f.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if !b.Timestamp.After(prev) {
			t.Errorf("bar %d not strictly after previous", i)
		}
		prev = b.Timestamp
	}

	if _, err := f.Next(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("exhausted feed error = %v, want ErrEndOfStream", err)
	}
}

func TestSliceFeedRejectsEmpty(t *testing.T) {
	_, err := NewSliceFeed(nil)
	if !errors.Is(err, domain.ErrInvalidData) {
		t.Errorf("empty feed error = %v, want ErrInvalidData", err)
	}
}

func TestSliceFeedRejectsDisorder(t *testing.T) {
	b := bars(3)
	b[1], b[2] = b[2], b[1]
	if _, err := NewSliceFeed(b); !errors.Is(err, domain.ErrInvalidData) {
		t.Errorf("out-of-order feed error = %v, want ErrInvalidData", err)
	}

	// Duplicate timestamps are also invalid.
	b = bars(3)
	b[2].Timestamp = b[1].Timestamp
	if _, err := NewSliceFeed(b); !errors.Is(err, domain.ErrInvalidData) {
		t.Errorf("duplicate-timestamp feed error = %v, want ErrInvalidData", err)
	}
}

func TestFromStore(t *testing.T) {
	ctx := context.Background()
	ps := store.NewParquetStore(t.TempDir())

	src := bars(5)
	if err := ps.WriteBars(ctx, domain.MarketAShare, src); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	f, err := FromStore(ctx, ps, "600028", domain.MarketAShare,
		src[0].Timestamp, src[4].Timestamp)
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}
	if f.Len() != 5 {
		t.Errorf("feed length = %d, want 5", f.Len())
	}

	// A symbol with no data is a data error, not a silent empty run.
	_, err = FromStore(ctx, ps, "999999", domain.MarketAShare,
		src[0].Timestamp, src[4].Timestamp)
	if !errors.Is(err, domain.ErrInvalidData) {
		t.Errorf("missing symbol error = %v, want ErrInvalidData", err)
	}
}
