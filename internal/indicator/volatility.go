package indicator

// Bollinger is the Bollinger Bands indicator: an SMA midline with upper and
// lower bands k standard deviations away.
type Bollinger struct {
	mid *SMA
	sd  *StdDev
	k   float64
}

// NewBollinger creates Bollinger Bands over the given period with band width
// k (conventionally 2).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		mid: NewSMA(period, 1),
		sd:  NewStdDev(period),
		k:   k,
	}
}

// Update feeds the next close price.
func (b *Bollinger) Update(close float64) {
	b.mid.Update(close)
	b.sd.Update(close)
}

// Ready reports whether a full period has been seen.
func (b *Bollinger) Ready() bool { return b.mid.Ready() && b.sd.Ready() }

// Mid returns the midline.
func (b *Bollinger) Mid() float64 { return b.mid.Value() }

// Top returns the upper band.
func (b *Bollinger) Top() float64 { return b.mid.Value() + b.k*b.sd.Value() }

// Bot returns the lower band.
func (b *Bollinger) Bot() float64 { return b.mid.Value() - b.k*b.sd.Value() }

// PercentB returns where price sits within the bands:
// (price - bot) / (top - bot). 0.5 when the bands have zero width.
func (b *Bollinger) PercentB(price float64) float64 {
	width := b.Top() - b.Bot()
	if width == 0 {
		return 0.5
	}
	return (price - b.Bot()) / width
}
