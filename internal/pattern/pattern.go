// Package pattern holds stateless candle pattern predicates evaluated on the
// last one or two candles of a series.
package pattern

import "setup-scanner/internal/model"

// StrongBodyRatio is how many times larger than each wick the body must be.
const StrongBodyRatio = 1.5

// StrongBody reports whether the last candle's body exceeds StrongBodyRatio
// times both its upper and lower wick. False for fewer than two candles.
func StrongBody(s model.Series) bool {
	if len(s) < 2 {
		return false
	}
	c := s.Last()
	body := c.Body()
	return body > StrongBodyRatio*c.UpperWick() && body > StrongBodyRatio*c.LowerWick()
}

// BullishEngulfing reports a bearish candle followed by a bullish one that
// opens below the previous close and closes above the previous open.
// False for fewer than two candles.
func BullishEngulfing(s model.Series) bool {
	if len(s) < 2 {
		return false
	}
	prev, last := s[len(s)-2], s[len(s)-1]
	return last.Bullish() &&
		prev.Bearish() &&
		last.Open < prev.Close &&
		last.Close > prev.Open
}
