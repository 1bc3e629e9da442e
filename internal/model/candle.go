package model

import (
	"fmt"
	"time"
)

// Candle represents one closed (or forming) OHLCV bar for a single asset.
// Prices are in quote currency units as reported by the venue.
type Candle struct {
	TS     time.Time `json:"ts"` // bar open time (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"` // base-asset volume
}

// Bullish reports close > open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish reports close < open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Body returns |close - open|.
func (c Candle) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// UpperWick returns high - max(open, close).
func (c Candle) UpperWick() float64 {
	return c.High - max(c.Open, c.Close)
}

// LowerWick returns min(open, close) - low.
func (c Candle) LowerWick() float64 {
	return min(c.Open, c.Close) - c.Low
}

// Validate checks the OHLC invariants of a single candle.
func (c Candle) Validate() error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("non-positive price at %s", c.TS.Format(time.RFC3339))
	}
	if c.High < max(c.Open, c.Close) {
		return fmt.Errorf("high below body at %s", c.TS.Format(time.RFC3339))
	}
	if c.Low > min(c.Open, c.Close) {
		return fmt.Errorf("low above body at %s", c.TS.Format(time.RFC3339))
	}
	if c.Volume < 0 {
		return fmt.Errorf("negative volume at %s", c.TS.Format(time.RFC3339))
	}
	return nil
}
