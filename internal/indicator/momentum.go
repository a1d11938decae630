package indicator

// ---------------------------------------------------------------------------
// RSI
// ---------------------------------------------------------------------------

// RSI is Wilder's relative strength index. The first period price changes
// seed the average gain/loss; later bars apply Wilder smoothing.
type RSI struct {
	period    int
	prevClose float64
	n         int
	avgGain   float64
	avgLoss   float64
	seedGain  float64
	seedLoss  float64
}

// NewRSI creates an RSI over the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Update feeds the next close price.
func (r *RSI) Update(close float64) {
	if r.n == 0 {
		r.prevClose = close
		r.n++
		return
	}

	change := close - r.prevClose
	r.prevClose = close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	switch {
	case r.n <= r.period:
		r.seedGain += gain
		r.seedLoss += loss
		if r.n == r.period {
			r.avgGain = r.seedGain / float64(r.period)
			r.avgLoss = r.seedLoss / float64(r.period)
		}
	default:
		p := float64(r.period)
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}
	r.n++
}

// Ready reports whether the seed period has elapsed.
func (r *RSI) Ready() bool { return r.n > r.period }

// Value returns the RSI in [0, 100]. 100 when there have been no losses.
func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// ---------------------------------------------------------------------------
// MACD
// ---------------------------------------------------------------------------

// MACD is the moving average convergence/divergence oscillator: the spread
// of a fast and slow EMA, with a signal EMA over that spread.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

// NewMACD creates a MACD with the given fast/slow/signal periods
// (conventionally 12, 26, 9).
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
	}
}

// Update feeds the next close price.
func (m *MACD) Update(close float64) {
	m.fast.Update(close)
	m.slow.Update(close)
	if m.fast.Ready() && m.slow.Ready() {
		m.signal.Update(m.fast.Value() - m.slow.Value())
	}
}

// Ready reports whether both EMAs and the signal line have seeded.
func (m *MACD) Ready() bool { return m.signal.Ready() }

// Line returns the MACD line (fast EMA - slow EMA).
func (m *MACD) Line() float64 {
	if !m.fast.Ready() || !m.slow.Ready() {
		return 0
	}
	return m.fast.Value() - m.slow.Value()
}

// Signal returns the signal line.
func (m *MACD) Signal() float64 { return m.signal.Value() }

// Hist returns the MACD histogram (line - signal).
func (m *MACD) Hist() float64 { return m.Line() - m.Signal() }
