package indicator

import (
	"math"

	"setup-scanner/internal/model"
)

// ATR calculates Average True Range with Wilder smoothing.
//
// True range is taken from the second candle on (it needs a previous close).
// The first ATR is the mean of the first period true ranges and appears on
// candle index period; after that ATR = (prev*(period-1) + TR) / period.
type ATR struct {
	period    int
	count     int
	prevClose float64
	smooth    *SMMA
}

// NewATR creates an ATR with the given period (typically 14).
func NewATR(period int) *ATR {
	return &ATR{period: period, smooth: NewSMMA(period)}
}

func (a *ATR) Name() string { return "ATR" }

func (a *ATR) Update(candle model.Candle) {
	a.count++
	if a.count > 1 {
		a.smooth.Add(TrueRange(candle, a.prevClose))
	}
	a.prevClose = candle.Close
}

func (a *ATR) Value() float64 { return a.smooth.Value() }
func (a *ATR) Ready() bool    { return a.smooth.Ready() }

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(c model.Candle, prevClose float64) float64 {
	return math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
}
