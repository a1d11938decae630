package indicator

// ---------------------------------------------------------------------------
// OBV
// ---------------------------------------------------------------------------

// OBV is the cumulative on-balance volume: volume added on up closes,
// subtracted on down closes.
type OBV struct {
	prevClose float64
	n         int
	value     float64
}

// NewOBV creates an OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

// Update feeds the next bar's close and volume.
func (o *OBV) Update(close, volume float64) {
	if o.n > 0 {
		switch {
		case close > o.prevClose:
			o.value += volume
		case close < o.prevClose:
			o.value -= volume
		}
	}
	o.prevClose = close
	o.n++
}

// Ready reports whether at least two bars have been seen.
func (o *OBV) Ready() bool { return o.n >= 2 }

// Value returns the cumulative on-balance volume.
func (o *OBV) Value() float64 { return o.value }

// ---------------------------------------------------------------------------
// VWAP
// ---------------------------------------------------------------------------

// VWAP is a rolling volume-weighted average price over a fixed window,
// using the typical price (high+low+close)/3.
type VWAP struct {
	period int
	pv     *ring
	vol    *ring
}

// NewVWAP creates a rolling VWAP over the given period.
func NewVWAP(period int) *VWAP {
	return &VWAP{
		period: period,
		pv:     newRing(period),
		vol:    newRing(period),
	}
}

// Update feeds the next bar.
func (v *VWAP) Update(high, low, close, volume float64) {
	tp := (high + low + close) / 3
	v.pv.push(tp * volume)
	v.vol.push(volume)
}

// Ready reports whether a full period has been seen.
func (v *VWAP) Ready() bool { return v.pv.full() }

// Value returns the rolling VWAP. Zero when the window holds no volume.
func (v *VWAP) Value() float64 {
	var sumPV, sumVol float64
	for _, x := range v.pv.values() {
		sumPV += x
	}
	for _, x := range v.vol.values() {
		sumVol += x
	}
	if sumVol == 0 {
		return 0
	}
	return sumPV / sumVol
}
