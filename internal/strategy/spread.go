package strategy

import "math"

// Spread predicates over three moving averages (fast, mid, slow), the
// trend-onset primitive shared by the moving-average-spread strategies.
// All windows are oldest-first and equal length. The overlap threshold is
// taken from the window's starting slow value: |slow[0]| * overlapPct.

// Squeezed reports whether the three averages stay overlapped across the
// whole window: every day's fast-mid and mid-slow gaps are within the
// overlap threshold.
func Squeezed(fast, mid, slow []float64, overlapPct float64) bool {
	n := len(fast)
	if n == 0 || len(mid) != n || len(slow) != n {
		return false
	}
	thr := math.Abs(slow[0]) * overlapPct
	for i := 0; i < n; i++ {
		if math.Abs(fast[i]-mid[i]) > thr || math.Abs(mid[i]-slow[i]) > thr {
			return false
		}
	}
	return true
}

// Expanding reports whether the averages transition from overlap to a
// widening fan across the window: the oldest day's gaps are within the
// overlap threshold, both gaps are non-decreasing day over day, and the
// newest gaps are both positive (fast > mid > slow).
func Expanding(fast, mid, slow []float64, overlapPct float64) bool {
	n := len(fast)
	if n < 2 || len(mid) != n || len(slow) != n {
		return false
	}

	d1 := make([]float64, n)
	d2 := make([]float64, n)
	for i := 0; i < n; i++ {
		d1[i] = fast[i] - mid[i]
		d2[i] = mid[i] - slow[i]
	}

	thr := math.Abs(slow[0]) * overlapPct
	if math.Abs(d1[0]) > thr || math.Abs(d2[0]) > thr {
		return false
	}

	if d1[n-1] <= 0 || d2[n-1] <= 0 {
		return false
	}

	for i := 1; i < n; i++ {
		if d1[i] < d1[i-1] || d2[i] < d2[i-1] {
			return false
		}
	}
	return true
}

// Narrowing reports whether the fast-mid gap shrinks by at least shrinkPct
// relative to the prior day, for every consecutive pair in the window. The
// window holds K+1 values for K comparisons. A non-positive prior gap fails
// the check: relative shrink of a zero baseline cannot be assessed.
func Narrowing(fast, mid []float64, shrinkPct float64) bool {
	n := len(fast)
	if n < 2 || len(mid) != n {
		return false
	}
	for i := 1; i < n; i++ {
		prev := math.Abs(fast[i-1] - mid[i-1])
		cur := math.Abs(fast[i] - mid[i])
		if prev <= 0 {
			return false
		}
		if cur >= prev*(1-shrinkPct) {
			return false
		}
	}
	return true
}
