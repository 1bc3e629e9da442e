package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"setup-scanner/internal/throttle"
)

// Multipliers scale the ATR into stop and target distances from the close.
type Multipliers struct {
	Stop   float64
	Target float64
}

// DefaultMultipliers apply to assets without an explicit entry.
var DefaultMultipliers = Multipliers{Stop: 1.5, Target: 3.0}

// DefaultLevels returns the built-in per-asset multipliers.
func DefaultLevels() map[string]Multipliers {
	return map[string]Multipliers{"BTC/USDT": {Stop: 1.2, Target: 2.5}}
}

// Config is the explicit pipeline configuration.
type Config struct {
	Assets      []string
	Timeframe   time.Duration
	CandleCount int
	// Cooldown, when positive, replaces the window of the injected Throttle.
	Cooldown time.Duration
	// HeartbeatInterval spaces status-only messages; zero disables them.
	HeartbeatInterval time.Duration
	// Levels maps asset to multipliers. Nil selects DefaultLevels.
	Levels map[string]Multipliers
}

// DefaultConfig returns the BTC/ETH 4h configuration.
func DefaultConfig() Config {
	return Config{
		Assets:            []string{"BTC/USDT", "ETH/USDT"},
		Timeframe:         4 * time.Hour,
		CandleCount:       250,
		Cooldown:          throttle.DefaultCooldown,
		HeartbeatInterval: 4 * time.Hour,
		Levels:            DefaultLevels(),
	}
}

// MultipliersFor returns the multipliers configured for asset.
func (c Config) MultipliersFor(asset string) Multipliers {
	if m, ok := c.Levels[asset]; ok {
		return m
	}
	return DefaultMultipliers
}

// ParseLevels parses comma-separated "asset:stop:target" entries, e.g.
// "BTC/USDT:1.2:2.5,ETH/USDT:1.5:3".
func ParseLevels(s string) (map[string]Multipliers, error) {
	out := make(map[string]Multipliers)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("scanner: level multipliers %q: want asset:stop:target", entry)
		}
		stop, err1 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		target, err2 := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err1 != nil || err2 != nil || stop <= 0 || target <= 0 {
			return nil, fmt.Errorf("scanner: level multipliers %q: stop and target must be positive numbers", entry)
		}
		out[strings.TrimSpace(parts[0])] = Multipliers{Stop: stop, Target: target}
	}
	return out, nil
}
