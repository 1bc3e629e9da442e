package indicator

import (
	"fmt"
	"math"
)

// Params holds the lookback periods used by the Engine.
type Params struct {
	EMAFast    int
	EMAMid     int
	EMALong    int
	RSI        int
	ATR        int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	ADX        int

	SupertrendPeriod     int
	SupertrendMultiplier float64
}

// DefaultParams returns EMA 9/21/200, RSI 14, ATR 14, MACD 12/26/9, ADX 14
// and Supertrend 10 x 3.
func DefaultParams() Params {
	return Params{
		EMAFast:              9,
		EMAMid:               21,
		EMALong:              200,
		RSI:                  14,
		ATR:                  14,
		MACDFast:             12,
		MACDSlow:             26,
		MACDSignal:           9,
		ADX:                  14,
		SupertrendPeriod:     10,
		SupertrendMultiplier: 3,
	}
}

// Validate checks that every period is positive and MACD fast < slow.
func (p Params) Validate() error {
	periods := map[string]int{
		"ema_fast": p.EMAFast, "ema_mid": p.EMAMid, "ema_long": p.EMALong,
		"rsi": p.RSI, "atr": p.ATR,
		"macd_fast": p.MACDFast, "macd_slow": p.MACDSlow, "macd_signal": p.MACDSignal,
		"adx": p.ADX, "supertrend_period": p.SupertrendPeriod,
	}
	for name, v := range periods {
		if v <= 0 {
			return fmt.Errorf("indicator: %s period must be positive, got %d", name, v)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("indicator: macd fast (%d) must be below slow (%d)", p.MACDFast, p.MACDSlow)
	}
	if p.SupertrendMultiplier <= 0 || !finite(p.SupertrendMultiplier) {
		return fmt.Errorf("indicator: supertrend multiplier must be positive, got %v", p.SupertrendMultiplier)
	}
	return nil
}

// MinCandles returns the series length needed for every indicator to be
// defined on the final index.
func (p Params) MinCandles() int {
	return max(
		p.EMAFast, p.EMAMid, p.EMALong,
		p.RSI+1,
		p.ATR+1,
		p.MACDSlow+p.MACDSignal-1,
		2*p.ADX,
		p.SupertrendPeriod+1,
	)
}

// Frame holds indicator values aligned 1:1 with a Series. Undefined warm-up
// values are NaN.
type Frame struct {
	EMAFast    []float64
	EMAMid     []float64
	EMALong    []float64
	RSI        []float64
	ATR        []float64
	MACD       []float64
	MACDSignal []float64
	ADX        []float64
	OBV        []float64

	SupertrendUp []bool
	// SupertrendFallback is set when Supertrend failed soft and SupertrendUp
	// is all true.
	SupertrendFallback bool
}

// Row is one index of a Frame.
type Row struct {
	Index        int
	EMAFast      float64
	EMAMid       float64
	EMALong      float64
	RSI          float64
	ATR          float64
	MACD         float64
	MACDSignal   float64
	ADX          float64
	OBV          float64
	SupertrendUp bool
}

// NewFrame allocates a frame of n rows with every value undefined.
func NewFrame(n int) *Frame {
	f := &Frame{
		EMAFast:      nanSlice(n),
		EMAMid:       nanSlice(n),
		EMALong:      nanSlice(n),
		RSI:          nanSlice(n),
		ATR:          nanSlice(n),
		MACD:         nanSlice(n),
		MACDSignal:   nanSlice(n),
		ADX:          nanSlice(n),
		OBV:          nanSlice(n),
		SupertrendUp: allUp(n),
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.EMAFast) }

// Row returns index i as a flat row.
func (f *Frame) Row(i int) Row {
	return Row{
		Index:        i,
		EMAFast:      f.EMAFast[i],
		EMAMid:       f.EMAMid[i],
		EMALong:      f.EMALong[i],
		RSI:          f.RSI[i],
		ATR:          f.ATR[i],
		MACD:         f.MACD[i],
		MACDSignal:   f.MACDSignal[i],
		ADX:          f.ADX[i],
		OBV:          f.OBV[i],
		SupertrendUp: f.SupertrendUp[i],
	}
}

// Last returns the final row.
func (f *Frame) Last() Row { return f.Row(f.Len() - 1) }

// Err returns an error wrapping ErrComputation when the Supertrend fallback
// was engaged, nil otherwise.
func (f *Frame) Err() error {
	if f.SupertrendFallback {
		return fmt.Errorf("%w: supertrend fallback engaged", ErrComputation)
	}
	return nil
}

// MeanOBV returns the mean OBV over the last n rows ending at the final row,
// NaN when fewer than n rows exist.
func (f *Frame) MeanOBV(n int) float64 {
	if n <= 0 || f.Len() < n {
		return math.NaN()
	}
	sma := NewSMA(n)
	for _, v := range f.OBV[f.Len()-n:] {
		sma.Add(v)
	}
	return sma.Value()
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
