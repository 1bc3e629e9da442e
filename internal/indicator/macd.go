package indicator

import "setup-scanner/internal/model"

// MACD calculates the Moving Average Convergence Divergence line
// (EMA(fast) - EMA(slow)) and its EMA(signal) signal line.
//
// The MACD line is ready once the slow EMA is (candle index slow-1). The
// signal line is seeded from the first signal ready MACD values, so it
// becomes ready at candle index slow+signal-2.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
	line   float64
}

// NewMACD creates a MACD (typically 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) Update(candle model.Candle) {
	m.fast.Add(candle.Close)
	m.slow.Add(candle.Close)
	if !m.slow.Ready() {
		return
	}
	m.line = m.fast.Value() - m.slow.Value()
	m.signal.Add(m.line)
}

// Value returns the MACD line.
func (m *MACD) Value() float64 { return m.line }
func (m *MACD) Ready() bool    { return m.slow.Ready() }

// Signal returns the signal line value.
func (m *MACD) Signal() float64 { return m.signal.Value() }

// SignalReady reports whether the signal line is defined.
func (m *MACD) SignalReady() bool { return m.signal.Ready() }

// Histogram returns MACD - signal.
func (m *MACD) Histogram() float64 { return m.line - m.signal.Value() }
