package indicator

import "math"

// Supertrend derives a trend-is-up flag per index from ATR bands around the
// candle midpoint:
//
//	hl2   = (high + low) / 2
//	upper = hl2 + multiplier*ATR
//	lower = hl2 - multiplier*ATR
//
// Index 0 starts up with the trend line on lower[0]. For i > 0 a close above
// the previous trend line keeps (or turns) the trend up and moves the line to
// lower[i]; otherwise the trend is down and the line moves to upper[i].
//
// ATR values before its first defined (non-NaN) index are treated as 0.
// If ATR is undefined at the final index, the input lengths differ, or a band
// value is not finite, Supertrend returns true for every index and ok=false.
func Supertrend(highs, lows, closes, atr []float64, multiplier float64) (up []bool, ok bool) {
	n := len(closes)
	if n == 0 || len(highs) != n || len(lows) != n || len(atr) != n {
		return allUp(n), false
	}
	if math.IsNaN(atr[n-1]) {
		return allUp(n), false
	}

	up = make([]bool, n)
	warm := true
	var line float64
	for i := 0; i < n; i++ {
		a := atr[i]
		if warm && math.IsNaN(a) {
			a = 0
		} else {
			warm = false
		}

		hl2 := (highs[i] + lows[i]) / 2
		upper := hl2 + multiplier*a
		lower := hl2 - multiplier*a
		if !finite(upper) || !finite(lower) || !finite(closes[i]) {
			return allUp(n), false
		}

		if i == 0 || closes[i] > line {
			up[i] = true
			line = lower
		} else {
			line = upper
		}
	}
	return up, true
}

func allUp(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
