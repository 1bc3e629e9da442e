package indicator

import (
	"math"

	"setup-scanner/internal/model"
)

// ADX calculates Wilder's Average Directional Index.
//
// +DM, -DM and TR are Wilder-smoothed over period starting from the second
// candle, giving +DI/-DI and DX from candle index period. ADX is the Wilder
// average of DX and is ready at candle index 2*period-1. Output is 0..100.
type ADX struct {
	period int
	count  int
	prev   model.Candle

	tr      *SMMA
	plusDM  *SMMA
	minusDM *SMMA
	dx      *SMMA

	plusDI  float64
	minusDI float64
}

// NewADX creates an ADX with the given period (typically 14).
func NewADX(period int) *ADX {
	return &ADX{
		period:  period,
		tr:      NewSMMA(period),
		plusDM:  NewSMMA(period),
		minusDM: NewSMMA(period),
		dx:      NewSMMA(period),
	}
}

func (a *ADX) Name() string { return "ADX" }

func (a *ADX) Update(candle model.Candle) {
	a.count++
	if a.count == 1 {
		a.prev = candle
		return
	}

	up := candle.High - a.prev.High
	down := a.prev.Low - candle.Low
	plus, minus := 0.0, 0.0
	if up > down && up > 0 {
		plus = up
	}
	if down > up && down > 0 {
		minus = down
	}

	a.tr.Add(TrueRange(candle, a.prev.Close))
	a.plusDM.Add(plus)
	a.minusDM.Add(minus)
	a.prev = candle

	if !a.tr.Ready() {
		return
	}

	tr := a.tr.Value()
	if tr == 0 {
		// Flat window: no directional movement.
		a.plusDI, a.minusDI = 0, 0
	} else {
		a.plusDI = 100 * a.plusDM.Value() / tr
		a.minusDI = 100 * a.minusDM.Value() / tr
	}

	dx := 0.0
	if sum := a.plusDI + a.minusDI; sum > 0 {
		dx = 100 * math.Abs(a.plusDI-a.minusDI) / sum
	}
	a.dx.Add(dx)
}

// Value returns the ADX.
func (a *ADX) Value() float64 { return a.dx.Value() }
func (a *ADX) Ready() bool    { return a.dx.Ready() }

// PlusDI returns +DI.
func (a *ADX) PlusDI() float64 { return a.plusDI }

// MinusDI returns -DI.
func (a *ADX) MinusDI() float64 { return a.minusDI }
