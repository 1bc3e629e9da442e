package indicator

import (
	"errors"
	"fmt"

	"setup-scanner/internal/model"
)

var (
	// ErrInsufficientData is returned when the series is too short for the
	// longest lookback to be defined on the final candle. It wraps
	// model.ErrDataUnavailable.
	ErrInsufficientData = fmt.Errorf("insufficient data: %w", model.ErrDataUnavailable)

	// ErrComputation marks a numeric failure handled by a fail-soft fallback.
	ErrComputation = errors.New("indicator computation error")
)

// Engine computes a Frame for a whole Series.
// Every Compute call builds fresh indicator instances, so an Engine is safe
// for concurrent use and repeated calls on the same series are identical.
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given periods.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: params}, nil
}

// MinCandles returns the minimum series length Compute accepts.
func (e *Engine) MinCandles() int { return e.params.MinCandles() }

// Compute validates the series and computes every indicator over it.
func (e *Engine) Compute(series model.Series) (*Frame, error) {
	if need := e.params.MinCandles(); len(series) < need {
		return nil, fmt.Errorf("indicator: compute: %w: have %d candles, need %d", ErrInsufficientData, len(series), need)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("indicator: compute: %w", err)
	}

	p := e.params
	n := len(series)
	f := NewFrame(n)

	emaFast := NewEMA(p.EMAFast)
	emaMid := NewEMA(p.EMAMid)
	emaLong := NewEMA(p.EMALong)
	rsi := NewRSI(p.RSI)
	atr := NewATR(p.ATR)
	macd := NewMACD(p.MACDFast, p.MACDSlow, p.MACDSignal)
	adx := NewADX(p.ADX)
	obv := NewOBV()
	stATR := NewATR(p.SupertrendPeriod)
	stBand := nanSlice(n)

	// Update all indicators in one pass over the series
	for i, c := range series {
		emaFast.Update(c)
		emaMid.Update(c)
		emaLong.Update(c)
		rsi.Update(c)
		atr.Update(c)
		macd.Update(c)
		adx.Update(c)
		obv.Update(c)
		stATR.Update(c)

		setIfReady(f.EMAFast, i, emaFast)
		setIfReady(f.EMAMid, i, emaMid)
		setIfReady(f.EMALong, i, emaLong)
		setIfReady(f.RSI, i, rsi)
		setIfReady(f.ATR, i, atr)
		setIfReady(f.MACD, i, macd)
		setIfReady(f.ADX, i, adx)
		setIfReady(f.OBV, i, obv)
		setIfReady(stBand, i, stATR)
		if macd.SignalReady() {
			f.MACDSignal[i] = macd.Signal()
		}
	}

	up, ok := Supertrend(series.Highs(), series.Lows(), series.Closes(), stBand, p.SupertrendMultiplier)
	f.SupertrendUp = up
	f.SupertrendFallback = !ok

	last := f.Last()
	for name, v := range map[string]float64{
		"ema_fast": last.EMAFast, "ema_mid": last.EMAMid, "ema_long": last.EMALong,
		"rsi": last.RSI, "atr": last.ATR, "macd": last.MACD, "macd_signal": last.MACDSignal,
		"adx": last.ADX, "obv": last.OBV,
	} {
		if !finite(v) {
			return nil, fmt.Errorf("indicator: compute: %w: %s undefined on final candle", ErrInsufficientData, name)
		}
	}
	return f, nil
}

func setIfReady(dst []float64, i int, ind Indicator) {
	if ind.Ready() {
		dst[i] = ind.Value()
	}
}
