// Package scoring computes the descriptive 0-10 quality score attached to an
// alert. The score does not depend on which setup matched.
package scoring

import (
	"github.com/shopspring/decimal"

	"setup-scanner/internal/indicator"
	"setup-scanner/internal/model"
	"setup-scanner/internal/pattern"
)

// Max is the upper bound of a score.
const Max = 10.0

// Item is one weighted checklist entry.
type Item struct {
	Name   string
	Weight float64
	Cond   func(c *Context) bool
}

// Context carries what the checklist is evaluated against.
type Context struct {
	Row        indicator.Row
	Last       model.Candle
	MeanVolume float64
	StrongBody bool
}

// NewContext derives a Context from a series and its frame's last row.
func NewContext(series model.Series, row indicator.Row) *Context {
	return &Context{
		Row:        row,
		Last:       series.Last(),
		MeanVolume: series.MeanVolume(),
		StrongBody: pattern.StrongBody(series),
	}
}

// Checklist is the fixed weighted checklist.
var Checklist = []Item{
	{"25<rsi<70", 1, func(c *Context) bool { return c.Row.RSI > 25 && c.Row.RSI < 70 }},
	{"ema_fast>ema_mid", 1, func(c *Context) bool { return c.Row.EMAFast > c.Row.EMAMid }},
	{"macd>signal", 1, func(c *Context) bool { return c.Row.MACD > c.Row.MACDSignal }},
	{"volume>mean", 1, func(c *Context) bool { return c.Last.Volume > c.MeanVolume }},

	{"adx>20", 1.5, func(c *Context) bool { return c.Row.ADX > 20 }},
	{"close>ema_long", 1.5, func(c *Context) bool { return c.Last.Close > c.Row.EMALong }},
	{"supertrend_up", 1.5, func(c *Context) bool { return c.Row.SupertrendUp }},

	{"strong_body", 2, func(c *Context) bool { return c.StrongBody }},
	{"volume>1.5x", 2, func(c *Context) bool { return c.Last.Volume > c.MeanVolume*1.5 }},
}

// Evaluate returns the satisfied checklist items.
func Evaluate(c *Context) []Item {
	var out []Item
	for _, it := range Checklist {
		if it.Cond(c) {
			out = append(out, it)
		}
	}
	return out
}

// Sum turns satisfied item weights into a score clamped to [0, Max] and
// rounded half away from zero to one decimal.
func Sum(items []Item) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Weight))
	}
	if total.GreaterThan(decimal.NewFromFloat(Max)) {
		total = decimal.NewFromFloat(Max)
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(1).InexactFloat64()
}

// Score evaluates the checklist for the final candle of series.
func Score(series model.Series, row indicator.Row) float64 {
	return Sum(Evaluate(NewContext(series, row)))
}

// Verdict classifies a score as high, moderate or weak.
type Verdict string

const (
	VerdictHigh     Verdict = "high"
	VerdictModerate Verdict = "moderate"
	VerdictWeak     Verdict = "weak"
)

// VerdictFor returns high for >= 7.5, moderate for >= 6, weak otherwise.
func VerdictFor(score float64) Verdict {
	switch {
	case score >= 7.5:
		return VerdictHigh
	case score >= 6:
		return VerdictModerate
	default:
		return VerdictWeak
	}
}
