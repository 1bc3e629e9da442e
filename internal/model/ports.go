package model

import (
	"context"
	"errors"
	"time"
)

// ErrDataUnavailable marks a failed or short candle fetch, or a series that
// cannot be analysed. The scanner aborts the affected asset and moves on.
var ErrDataUnavailable = errors.New("data unavailable")

// ── Collaborator Port Interfaces ──
// These interfaces decouple the scanner from concrete venues and data
// providers (OKX, CoinGecko). Tests substitute in-memory fakes.

// CandleSource fetches closed and forming candles from a venue.
type CandleSource interface {
	// FetchCandles returns the latest count candles for asset, oldest first.
	// Fails with an error wrapping ErrDataUnavailable when the venue does not
	// list the asset or returns fewer than count candles.
	FetchCandles(ctx context.Context, asset string, timeframe time.Duration, count int) (Series, error)
}

// ContextSource produces a short, human-readable market summary.
type ContextSource interface {
	// MarketContext never fails: on error it returns a placeholder string.
	MarketContext(ctx context.Context) string
}
