package model

import (
	"fmt"
	"math"
)

// Series is a chronological sequence of candles for one asset and timeframe.
// It is owned by the caller for the duration of a single analysis pass.
type Series []Candle

// Last returns the most recent candle. Panics on an empty series.
func (s Series) Last() Candle { return s[len(s)-1] }

// Closes returns the close prices in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Highs returns the high prices in order.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Lows returns the low prices in order.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// Volumes returns the volumes in order.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// MeanVolume returns the arithmetic mean volume over the whole series,
// NaN when the series is empty.
func (s Series) MeanVolume() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, c := range s {
		sum += c.Volume
	}
	return sum / float64(len(s))
}

// MaxClose returns the highest close among the last n candles (all candles
// when n exceeds the length), NaN when the series is empty.
func (s Series) MaxClose(n int) float64 {
	if len(s) == 0 || n <= 0 {
		return math.NaN()
	}
	start := len(s) - n
	if start < 0 {
		start = 0
	}
	m := s[start].Close
	for _, c := range s[start+1:] {
		if c.Close > m {
			m = c.Close
		}
	}
	return m
}

// Validate checks every candle and that timestamps strictly increase.
// Validation errors wrap ErrDataUnavailable.
func (s Series) Validate() error {
	for i, c := range s {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: candle %d: %v", ErrDataUnavailable, i, err)
		}
		if i > 0 && !c.TS.After(s[i-1].TS) {
			return fmt.Errorf("%w: candle %d: timestamps not increasing", ErrDataUnavailable, i)
		}
	}
	return nil
}
