package indicator

import "setup-scanner/internal/model"

// OBV calculates On-Balance Volume, seeded with the first candle's volume.
// Up-closes add volume and down-closes subtract it. An unchanged close
// leaves the total as is.
type OBV struct {
	count     int
	prevClose float64
	current   float64
}

// NewOBV creates an OBV accumulator.
func NewOBV() *OBV { return &OBV{} }

func (o *OBV) Name() string { return "OBV" }

func (o *OBV) Update(candle model.Candle) {
	o.count++
	switch {
	case o.count == 1:
		o.current = candle.Volume
	case candle.Close > o.prevClose:
		o.current += candle.Volume
	case candle.Close < o.prevClose:
		o.current -= candle.Volume
	}
	o.prevClose = candle.Close
}

func (o *OBV) Value() float64 { return o.current }
func (o *OBV) Ready() bool    { return o.count > 0 }
