// Package indicator provides technical indicator calculations over candle data.
//
// Indicators are streaming: each receives candles (or raw values) in
// chronological order through Update and exposes its latest value. The Engine
// feeds a whole Series through fresh instances and collects the per-index
// values into a Frame, so no state survives between passes.
package indicator

import "setup-scanner/internal/model"

// Indicator is the interface for all single-valued technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "EMA", "RSI").
	Name() string

	// Update feeds a new candle and recalculates.
	Update(candle model.Candle)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}
