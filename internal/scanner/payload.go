package scanner

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"setup-scanner/internal/notification"
	"setup-scanner/internal/scoring"
	"setup-scanner/internal/strategy"
	"setup-scanner/internal/throttle"
)

// Payload is the content of one setup alert.
type Payload struct {
	Asset       string
	Match       strategy.Match
	Multipliers Multipliers

	Close  float64
	ATR    float64
	Score  float64
	RSI    float64
	ADX    float64
	Volume float64

	MACDBullish  bool // macd > signal
	TrendUp      bool // ema_fast > ema_mid
	Strong       bool // adx > 20
	Momentum     bool // volume > 1.2x mean
	SupertrendUp bool

	Verdict       scoring.Verdict
	MarketContext string
	EvaluatedAt   time.Time
}

// NewPayload builds the payload for a match on in.
func NewPayload(asset string, m strategy.Match, in *strategy.Input, score float64, mult Multipliers, at time.Time) *Payload {
	row := in.Row
	return &Payload{
		Asset:        asset,
		Match:        m,
		Multipliers:  mult,
		Close:        in.Last.Close,
		ATR:          row.ATR,
		Score:        score,
		RSI:          row.RSI,
		ADX:          row.ADX,
		Volume:       in.Last.Volume,
		MACDBullish:  row.MACD > row.MACDSignal,
		TrendUp:      row.EMAFast > row.EMAMid,
		Strong:       row.ADX > 20,
		Momentum:     in.VolumeAbove(1.2),
		SupertrendUp: row.SupertrendUp,
		Verdict:      scoring.VerdictFor(score),
		EvaluatedAt:  at,
	}
}

// Key returns the throttle key of the alert.
func (p *Payload) Key() throttle.Key {
	return throttle.Key{Asset: p.Asset, SetupID: p.Match.SetupID}
}

// Levels returns close + target·ATR and close − stop·ATR, each rounded half
// away from zero to 2 decimals.
func (p *Payload) Levels() (target, stop float64) {
	c := decimal.NewFromFloat(p.Close)
	atr := decimal.NewFromFloat(p.ATR)
	t := c.Add(atr.Mul(decimal.NewFromFloat(p.Multipliers.Target))).Round(2)
	s := c.Sub(atr.Mul(decimal.NewFromFloat(p.Multipliers.Stop))).Round(2)
	return t.InexactFloat64(), s.InexactFloat64()
}

// Message renders the alert as legacy Telegram Markdown.
func (p *Payload) Message() string {
	target, stop := p.Levels()
	var b strings.Builder

	fmt.Fprintf(&b, "%s *%s*\n%s\n\n", p.Match.Icon, p.Match.Label, p.Match.Tier)
	fmt.Fprintf(&b, "📊 *Pair:* `%s`\n", p.Asset)
	fmt.Fprintf(&b, "💰 *Price:* `$%s`\n", money(p.Close))
	fmt.Fprintf(&b, "🎯 *Target:* `$%s`\n", money(target))
	fmt.Fprintf(&b, "🛑 *Stop:* `$%s`\n", money(stop))
	fmt.Fprintf(&b, "⭐ *Score:* `%.1f/10`\n\n", p.Score)

	b.WriteString("📈 *Technical Indicators:*\n")
	fmt.Fprintf(&b, "• RSI: %.1f\n", p.RSI)
	fmt.Fprintf(&b, "• MACD: %s\n", pick(p.MACDBullish, "✅", "❌"))
	fmt.Fprintf(&b, "• ADX: %.1f\n", p.ADX)
	fmt.Fprintf(&b, "• Volume: %s\n", grouped(decimal.NewFromFloat(p.Volume).StringFixed(0)))
	fmt.Fprintf(&b, "• ATR: $%.2f\n\n", p.ATR)

	fmt.Fprintf(&b, "🕒 *Evaluated:* %s\n\n", p.EvaluatedAt.UTC().Format("02/01 15:04 UTC"))
	if p.MarketContext != "" {
		b.WriteString(p.MarketContext)
		b.WriteString("\n\n")
	}

	b.WriteString("📋 *Analysis:*\n")
	fmt.Fprintf(&b, "• Trend: %s\n", pick(p.TrendUp, "Up", "Down"))
	fmt.Fprintf(&b, "• Strength: %s\n", pick(p.Strong, "💪", "👤"))
	fmt.Fprintf(&b, "• Momentum: %s\n", pick(p.Momentum, "🚀", "😴"))
	fmt.Fprintf(&b, "• Supertrend: %s\n\n", pick(p.SupertrendUp, "🟢", "🔴"))

	switch p.Verdict {
	case scoring.VerdictHigh:
		b.WriteString("💡 *High quality setup* with multiple indicators aligned!")
	case scoring.VerdictModerate:
		b.WriteString("⚖️ *Moderate setup* - needs more confirmation before trading.")
	default:
		b.WriteString("⚠️ *Weak setup* - wait for better opportunities.")
	}
	return b.String()
}

// Fields returns the structured payload for machine consumers.
func (p *Payload) Fields() map[string]any {
	target, stop := p.Levels()
	return map[string]any{
		"asset":          p.Asset,
		"setup_id":       p.Match.SetupID,
		"label":          p.Match.Label,
		"tier":           p.Match.Tier,
		"matched":        p.Match.Matched,
		"total":          p.Match.Total,
		"conditions":     p.Match.Conditions,
		"close":          p.Close,
		"target":         target,
		"stop":           stop,
		"score":          p.Score,
		"rsi":            p.RSI,
		"macd_bullish":   p.MACDBullish,
		"adx":            p.ADX,
		"volume":         p.Volume,
		"atr":            p.ATR,
		"trend_up":       p.TrendUp,
		"strong":         p.Strong,
		"momentum":       p.Momentum,
		"supertrend_up":  p.SupertrendUp,
		"verdict":        string(p.Verdict),
		"market_context": p.MarketContext,
		"evaluated_at":   p.EvaluatedAt.UTC(),
	}
}

// Alert wraps the payload for delivery.
func (p *Payload) Alert() notification.Alert {
	return notification.Alert{
		Level:   notification.AlertInfo,
		Title:   fmt.Sprintf("%s %s", p.Asset, p.Match.SetupID),
		Message: p.Message(),
		Key:     p.Key().String(),
		Fields:  p.Fields(),
		TS:      p.EvaluatedAt,
	}
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

// money formats v with two decimals and thousands separators.
func money(v float64) string {
	return grouped(decimal.NewFromFloat(v).StringFixed(2))
}

// grouped inserts commas into the integer part of a plain decimal string.
func grouped(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

// heartbeatKey gates status-only messages through the throttle store.
var heartbeatKey = throttle.Key{Asset: "*", SetupID: "heartbeat"}

func heartbeatAlert(assets []string, interval time.Duration, at time.Time) notification.Alert {
	msg := fmt.Sprintf("🤖 *Setup Scanner*\n\n"+
		"⏰ Ran at %s\n"+
		"📊 Assets analyzed: %s\n"+
		"📈 Status: no clear signals\n"+
		"🔄 Next status update: in %s\n\n"+
		"💤 *Waiting for opportunities...*",
		at.UTC().Format("15:04 UTC"), strings.Join(assets, ", "), interval)
	return notification.Alert{
		Level:   notification.AlertInfo,
		Title:   "scanner heartbeat",
		Message: msg,
		Key:     heartbeatKey.String(),
		TS:      at,
	}
}

// FailureAlert builds the critical message for a failed run. The error text
// is cut to 100 runes.
func FailureAlert(err error, at time.Time) notification.Alert {
	text := err.Error()
	if r := []rune(text); len(r) > 100 {
		text = string(r[:100]) + "..."
	}
	msg := fmt.Sprintf("🚨 *SCANNER ERROR*\n\n"+
		"❌ %s\n"+
		"⏰ %s\n"+
		"🔧 Check the run logs",
		text, at.UTC().Format("15:04 UTC"))
	return notification.Alert{
		Level:   notification.AlertCritical,
		Title:   "scanner failure",
		Message: msg,
		Fields:  map[string]any{"error": err.Error()},
		TS:      at,
	}
}
