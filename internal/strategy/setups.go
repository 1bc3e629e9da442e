package strategy

// Setup identifiers. They are part of the throttle key, so changing one
// resets its cooldown history.
const (
	SetupConservative = "conservative"
	SetupMomentum     = "momentum"
	SetupReversal     = "reversal"
)

// Shared conditions.
var (
	emaFastAboveMid = Rule{"ema_fast>ema_mid", func(in *Input) bool { return in.Row.EMAFast > in.Row.EMAMid }}
	macdAboveSignal = Rule{"macd>signal", func(in *Input) bool { return in.Row.MACD > in.Row.MACDSignal }}
)

// Conservative: trend-following with confirmation, 5 of 7.
func Conservative() *RuleSet {
	return &RuleSet{
		SetupID:    SetupConservative,
		Label:      "🛡️ CONSERVATIVE SETUP",
		Tier:       "🟢 HIGH QUALITY",
		Icon:       "🛡️",
		MinMatches: 5,
		MinCandles: 2,
		Rules: []Rule{
			{"rsi<45", func(in *Input) bool { return in.Row.RSI < 45 }},
			emaFastAboveMid,
			macdAboveSignal,
			{"adx>18", func(in *Input) bool { return in.Row.ADX > 18 }},
			{"volume>1.2x", func(in *Input) bool { return in.VolumeAbove(1.2) }},
			{"close>ema_long", func(in *Input) bool { return in.Last.Close > in.Row.EMALong }},
			{"supertrend_up", func(in *Input) bool { return in.Row.SupertrendUp }},
		},
	}
}

// Momentum: fast continuation on strong volume, 4 of 6.
func Momentum() *RuleSet {
	return &RuleSet{
		SetupID:    SetupMomentum,
		Label:      "⚡ MOMENTUM SETUP",
		Tier:       "🟡 FAST OPPORTUNITY",
		Icon:       "⚡",
		MinMatches: 4,
		MinCandles: 2,
		Rules: []Rule{
			{"35<rsi<65", func(in *Input) bool { return in.Row.RSI > 35 && in.Row.RSI < 65 }},
			emaFastAboveMid,
			macdAboveSignal,
			{"volume>1.5x", func(in *Input) bool { return in.VolumeAbove(1.5) }},
			{"strong_body|engulfing", func(in *Input) bool { return in.StrongBody || in.Engulfing }},
			{"adx>15", func(in *Input) bool { return in.Row.ADX > 15 }},
		},
	}
}

// ReversalPullback is the fraction of the recent high the close must be
// below for a pullback.
const ReversalPullback = 0.97

// Reversal: counter-trend bounce after a pullback, 3 of 5.
func Reversal() *RuleSet {
	return &RuleSet{
		SetupID:    SetupReversal,
		Label:      "🔄 REVERSAL SETUP",
		Tier:       "🟠 COUNTER-TREND",
		Icon:       "🔄",
		MinMatches: 3,
		MinCandles: 5,
		Rules: []Rule{
			{"rsi<35", func(in *Input) bool { return in.Row.RSI < 35 }},
			{"pullback", func(in *Input) bool {
				return in.Last.Close < in.Series.MaxClose(5)*ReversalPullback
			}},
			{"engulfing", func(in *Input) bool { return in.Engulfing }},
			{"obv>obv_mean10", func(in *Input) bool { return in.Row.OBV > in.Frame.MeanOBV(10) }},
			{"volume>1.3x", func(in *Input) bool { return in.VolumeAbove(1.3) }},
		},
	}
}
