package strategy

import "testing"

func TestSqueezedAllOverlapping(t *testing.T) {
	fast := []float64{10.0, 10.1, 10.0, 9.9}
	mid := []float64{10.1, 10.0, 10.1, 10.0}
	slow := []float64{10.0, 10.1, 9.9, 10.1}

	if !Squeezed(fast, mid, slow, 0.05) {
		t.Error("expected squeezed for overlapping averages")
	}
}

func TestSqueezedGapExceedsThreshold(t *testing.T) {
	// threshold = 10 * 0.05 = 0.5; last fast-mid gap is 1.0.
	fast := []float64{10.0, 10.1, 11.0}
	mid := []float64{10.0, 10.0, 10.0}
	slow := []float64{10.0, 10.0, 10.0}

	if Squeezed(fast, mid, slow, 0.05) {
		t.Error("expected not squeezed when a gap exceeds threshold")
	}
}

func TestSqueezedEmptyOrMismatched(t *testing.T) {
	if Squeezed(nil, nil, nil, 0.05) {
		t.Error("expected false for empty windows")
	}
	if Squeezed([]float64{1, 2}, []float64{1}, []float64{1, 2}, 0.05) {
		t.Error("expected false for mismatched window lengths")
	}
}

func TestExpandingMonotoneFanOut(t *testing.T) {
	// Gaps start inside the overlap threshold and widen monotonically.
	fast := []float64{10.0, 10.2, 10.5, 10.9}
	mid := []float64{10.0, 10.1, 10.3, 10.5}
	slow := []float64{10.0, 10.0, 10.1, 10.2}

	if !Expanding(fast, mid, slow, 0.05) {
		t.Error("expected expanding for monotone fan-out")
	}
}

func TestExpandingRejectsGapShrink(t *testing.T) {
	// Fast-mid gap shrinks on the last day.
	fast := []float64{10.0, 10.3, 10.6, 10.4}
	mid := []float64{10.0, 10.1, 10.2, 10.3}
	slow := []float64{10.0, 10.0, 10.0, 10.0}

	if Expanding(fast, mid, slow, 0.05) {
		t.Error("expected not expanding when a gap shrinks")
	}
}

func TestExpandingRejectsWideStart(t *testing.T) {
	// Oldest gap already exceeds the overlap threshold: no transition.
	fast := []float64{11.0, 11.5, 12.0}
	mid := []float64{10.0, 10.2, 10.4}
	slow := []float64{10.0, 10.0, 10.0}

	if Expanding(fast, mid, slow, 0.05) {
		t.Error("expected not expanding when window starts already wide")
	}
}

func TestExpandingRejectsNonPositiveEnd(t *testing.T) {
	// Gaps widen in magnitude but the newest fast-mid gap is negative.
	fast := []float64{10.0, 9.9, 9.7}
	mid := []float64{10.0, 10.0, 10.0}
	slow := []float64{10.0, 10.0, 10.0}

	if Expanding(fast, mid, slow, 0.05) {
		t.Error("expected not expanding when newest gaps are not positive")
	}
}

// A flat series followed by divergence must flip squeezed -> expanding at the
// bar where the gaps turn positive and keep widening.
func TestSqueezedThenExpandingFlip(t *testing.T) {
	const overlapPct = 0.05
	const window = 8

	// 8 flat bars, then 8 bars of steady divergence.
	var fast, mid, slow []float64
	for i := 0; i < window; i++ {
		fast = append(fast, 20.0)
		mid = append(mid, 20.0)
		slow = append(slow, 20.0)
	}
	for i := 1; i <= window; i++ {
		fast = append(fast, 20.0+0.4*float64(i))
		mid = append(mid, 20.0+0.2*float64(i))
		slow = append(slow, 20.0+0.1*float64(i))
	}

	flat := [3][]float64{fast[:window], mid[:window], slow[:window]}
	if !Squeezed(flat[0], flat[1], flat[2], overlapPct) {
		t.Fatal("expected flat window to be squeezed")
	}
	if Expanding(flat[0], flat[1], flat[2], overlapPct) {
		t.Fatal("expected flat window not to be expanding")
	}

	// Window straddling the transition: starts flat, ends diverging.
	div := [3][]float64{fast[window-1:], mid[window-1:], slow[window-1:]}
	if !Expanding(div[0], div[1], div[2], overlapPct) {
		t.Fatal("expected straddling window to be expanding")
	}
	if Squeezed(div[0], div[1], div[2], overlapPct) {
		t.Fatal("expected straddling window not to be squeezed")
	}
}

func TestNarrowingMonotoneShrink(t *testing.T) {
	// |d1| shrinks by 50% each day, well past the 1% threshold.
	fast := []float64{11.0, 10.5, 10.25, 10.125}
	mid := []float64{10.0, 10.0, 10.0, 10.0}

	if !Narrowing(fast, mid, 0.01) {
		t.Error("expected narrowing for monotone gap shrink")
	}
}

func TestNarrowingInsufficientShrink(t *testing.T) {
	// Gap shrinks, but by less than shrinkPct.
	fast := []float64{11.0, 10.999}
	mid := []float64{10.0, 10.0}

	if Narrowing(fast, mid, 0.01) {
		t.Error("expected not narrowing for sub-threshold shrink")
	}
}

func TestNarrowingZeroBaselineFails(t *testing.T) {
	// A zero prior gap cannot be assessed for relative shrink.
	fast := []float64{10.0, 10.0, 9.9}
	mid := []float64{10.0, 10.0, 10.0}

	if Narrowing(fast, mid, 0.01) {
		t.Error("expected not narrowing when a prior gap is zero")
	}
}

func TestNarrowingTooShort(t *testing.T) {
	if Narrowing([]float64{10.0}, []float64{9.0}, 0.01) {
		t.Error("expected false for a single-element window")
	}
}
