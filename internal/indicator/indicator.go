// Package indicator implements the technical indicators consumed by the
// built-in strategies. Every indicator is an incremental computation over a
// bounded trailing window: Update feeds it one value per bar, Ready reports
// whether enough bars have been seen, and Value returns the latest reading.
// No indicator ever looks at data beyond what Update has been given.
package indicator

import "math"

// ---------------------------------------------------------------------------
// Ring buffer
// ---------------------------------------------------------------------------

// ring is a fixed-capacity FIFO over float64 values.
type ring struct {
	buf  []float64
	head int
	n    int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]float64, capacity)}
}

func (r *ring) push(v float64) {
	r.buf[(r.head+r.n)%len(r.buf)] = v
	if r.n < len(r.buf) {
		r.n++
	} else {
		r.head = (r.head + 1) % len(r.buf)
	}
}

func (r *ring) full() bool { return r.n == len(r.buf) }

// at returns the value offset positions back from the newest (0 = newest).
func (r *ring) at(offset int) float64 {
	return r.buf[(r.head+r.n-1-offset)%len(r.buf)]
}

// values returns the window contents oldest-first.
func (r *ring) values() []float64 {
	out := make([]float64, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// ---------------------------------------------------------------------------
// SMA
// ---------------------------------------------------------------------------

// SMA is a simple moving average over a fixed period.
type SMA struct {
	period int
	win    *ring
	sum    float64
	hist   *ring
}

// NewSMA creates an SMA over the given period. The indicator keeps a short
// history of its own readings so strategies can inspect recent values.
func NewSMA(period, history int) *SMA {
	if history < 1 {
		history = 1
	}
	return &SMA{
		period: period,
		win:    newRing(period),
		hist:   newRing(history),
	}
}

// Update feeds the next close price.
func (s *SMA) Update(v float64) {
	if s.win.full() {
		s.sum -= s.win.at(s.period - 1)
	}
	s.win.push(v)
	s.sum += v
	if s.win.full() {
		s.hist.push(s.sum / float64(s.period))
	}
}

// Ready reports whether a full period has been seen.
func (s *SMA) Ready() bool { return s.win.full() }

// Value returns the current average. Zero before Ready.
func (s *SMA) Value() float64 {
	if !s.Ready() {
		return 0
	}
	return s.hist.at(0)
}

// At returns the average offset bars ago (0 = current). Callers must check
// HistoryLen first.
func (s *SMA) At(offset int) float64 { return s.hist.at(offset) }

// HistoryLen returns how many readings are available through At.
func (s *SMA) HistoryLen() int { return s.hist.n }

// History returns the retained readings oldest-first.
func (s *SMA) History() []float64 { return s.hist.values() }

// ---------------------------------------------------------------------------
// EMA
// ---------------------------------------------------------------------------

// EMA is an exponential moving average seeded with an SMA of the first
// period values.
type EMA struct {
	period int
	k      float64
	seed   float64
	n      int
	value  float64
}

// NewEMA creates an EMA over the given period.
func NewEMA(period int) *EMA {
	return &EMA{period: period, k: 2.0 / float64(period+1)}
}

// Update feeds the next value.
func (e *EMA) Update(v float64) {
	e.n++
	if e.n < e.period {
		e.seed += v
		return
	}
	if e.n == e.period {
		e.seed += v
		e.value = e.seed / float64(e.period)
		return
	}
	e.value = v*e.k + e.value*(1-e.k)
}

// Ready reports whether the seed period has elapsed.
func (e *EMA) Ready() bool { return e.n >= e.period }

// Value returns the current average. Zero before Ready.
func (e *EMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.value
}

// ---------------------------------------------------------------------------
// StdDev
// ---------------------------------------------------------------------------

// StdDev is a rolling population standard deviation.
type StdDev struct {
	period int
	win    *ring
}

// NewStdDev creates a StdDev over the given period.
func NewStdDev(period int) *StdDev {
	return &StdDev{period: period, win: newRing(period)}
}

// Update feeds the next value.
func (s *StdDev) Update(v float64) { s.win.push(v) }

// Ready reports whether a full period has been seen.
func (s *StdDev) Ready() bool { return s.win.full() }

// Value returns the standard deviation of the current window.
func (s *StdDev) Value() float64 {
	if !s.Ready() {
		return 0
	}
	vals := s.win.values()
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)))
}
