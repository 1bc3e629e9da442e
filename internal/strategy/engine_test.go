package strategy

import (
	"math"
	"testing"
	"time"

	"setup-scanner/internal/indicator"
	"setup-scanner/internal/model"
)

// flatSeries returns n valid candles closing at 100 with volume 100, the last
// one closing at lastClose with lastVolume.
func flatSeries(n int, lastClose, lastVolume float64) model.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.Series, n)
	for i := range s {
		s[i] = model.Candle{
			TS:   start.Add(time.Duration(i) * 4 * time.Hour),
			Open: 100, High: 101, Low: 99, Close: 100, Volume: 100,
		}
	}
	last := &s[n-1]
	last.Close = lastClose
	last.High = math.Max(last.High, lastClose+1)
	last.Low = math.Min(last.Low, lastClose-1)
	last.Volume = lastVolume
	return s
}

// frameWith returns a frame whose final row carries row's values.
func frameWith(n int, row indicator.Row) *indicator.Frame {
	f := indicator.NewFrame(n)
	i := n - 1
	f.EMAFast[i] = row.EMAFast
	f.EMAMid[i] = row.EMAMid
	f.EMALong[i] = row.EMALong
	f.RSI[i] = row.RSI
	f.ATR[i] = row.ATR
	f.MACD[i] = row.MACD
	f.MACDSignal[i] = row.MACDSignal
	f.ADX[i] = row.ADX
	f.SupertrendUp[i] = row.SupertrendUp
	for j := range f.OBV {
		f.OBV[j] = 0
	}
	f.OBV[i] = row.OBV
	return f
}

// bullRow satisfies every conservative condition for a last close of 110.
func bullRow() indicator.Row {
	return indicator.Row{
		EMAFast: 105, EMAMid: 100, EMALong: 90,
		RSI: 40, ATR: 2, MACD: 2, MACDSignal: 1, ADX: 25,
		SupertrendUp: true,
	}
}

type countingStrategy struct {
	Strategy
	calls int
}

func (c *countingStrategy) Evaluate(in *Input) *Match {
	c.calls++
	return c.Strategy.Evaluate(in)
}

func TestConservative_AllConditions(t *testing.T) {
	s := flatSeries(10, 110, 300)
	in := NewInput(s, frameWith(len(s), bullRow()))

	m := Conservative().Evaluate(in)
	if m == nil {
		t.Fatal("expected conservative match")
	}
	if m.SetupID != SetupConservative || m.Matched != 7 || m.Total != 7 {
		t.Errorf("got %+v, want conservative 7/7", m)
	}
	if len(m.Conditions) != 7 {
		t.Errorf("expected 7 condition names, got %v", m.Conditions)
	}
}

func TestConservative_Threshold(t *testing.T) {
	s := flatSeries(10, 110, 300)

	// Five of seven: rsi and adx fail
	row := bullRow()
	row.RSI = 60
	row.ADX = 10
	if m := Conservative().Evaluate(NewInput(s, frameWith(len(s), row))); m == nil || m.Matched != 5 {
		t.Fatalf("expected 5/7 match, got %+v", m)
	}

	// Four of seven: macd also fails
	row.MACD = 0
	if m := Conservative().Evaluate(NewInput(s, frameWith(len(s), row))); m != nil {
		t.Fatalf("expected no match at 4/7, got %+v", m)
	}
}

func TestRules_UndefinedValuesAreFalse(t *testing.T) {
	s := flatSeries(10, 110, 300)
	nan := math.NaN()
	row := indicator.Row{
		EMAFast: nan, EMAMid: nan, EMALong: nan, RSI: nan, ATR: nan,
		MACD: nan, MACDSignal: nan, ADX: nan, OBV: nan, SupertrendUp: true,
	}
	in := NewInput(s, frameWith(len(s), row))
	// Only volume and supertrend can hold
	if n, names := Conservative().Count(in); n != 2 {
		t.Errorf("expected 2 conditions with undefined indicators, got %d %v", n, names)
	}
}

func TestMomentum_PatternCondition(t *testing.T) {
	s := flatSeries(10, 105, 300)
	// Strong bullish body: open 100, close 105, wicks of 0.5
	s[9].Open, s[9].High, s[9].Low = 100, 105.5, 99.5
	row := indicator.Row{RSI: 50, EMAFast: 1, EMAMid: 2, MACD: 0, MACDSignal: 1, ADX: 10, EMALong: 200}
	in := NewInput(s, frameWith(len(s), row))
	if !in.StrongBody {
		t.Fatal("expected strong body on last candle")
	}
	// rsi, volume, pattern hold → 3 of 6
	if m := Momentum().Evaluate(in); m != nil {
		t.Fatalf("expected no match at 3/6, got %+v", m)
	}
	row.ADX = 16
	m := Momentum().Evaluate(NewInput(s, frameWith(len(s), row)))
	if m == nil || m.Matched != 4 {
		t.Fatalf("expected 4/6 match, got %+v", m)
	}
}

func TestReversal_Conditions(t *testing.T) {
	s := flatSeries(12, 96, 200)
	// Bearish then bullish engulfing at the end
	s[10].Open, s[10].Close, s[10].High, s[10].Low = 99, 95, 99.5, 94.5
	s[11].Open, s[11].Close, s[11].High, s[11].Low = 94, 100, 100.5, 93.5
	row := indicator.Row{RSI: 30, OBV: 50, EMALong: 200}
	in := NewInput(s, frameWith(len(s), row))
	// recent max close 100, close 100 is not a pullback
	n, names := Reversal().Count(in)
	if n != 4 {
		t.Fatalf("expected rsi, engulfing, obv, volume (4), got %d %v", n, names)
	}
	m := Reversal().Evaluate(in)
	if m == nil || m.SetupID != SetupReversal {
		t.Fatalf("expected reversal match, got %+v", m)
	}
}

func TestReversal_Pullback(t *testing.T) {
	s := flatSeries(8, 96, 100)
	in := NewInput(s, frameWith(len(s), indicator.Row{}))
	// max close of last 5 = 100, 96 < 97
	_, names := Reversal().Count(in)
	found := false
	for _, n := range names {
		if n == "pullback" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected pullback condition, got %v", names)
	}
}

func TestReversal_NeedsFiveCandles(t *testing.T) {
	s := flatSeries(4, 90, 500)
	row := indicator.Row{RSI: 20, OBV: 1000}
	if m := Reversal().Evaluate(NewInput(s, frameWith(len(s), row))); m != nil {
		t.Fatalf("expected no match on 4 candles, got %+v", m)
	}
}

func TestEngine_FirstMatchWins(t *testing.T) {
	s := flatSeries(10, 110, 300)
	in := NewInput(s, frameWith(len(s), bullRow()))

	cons := &countingStrategy{Strategy: Conservative()}
	mom := &countingStrategy{Strategy: Momentum()}
	rev := &countingStrategy{Strategy: Reversal()}
	e := NewEngine()
	e.Register(cons)
	e.Register(mom)
	e.Register(rev)

	m := e.Classify(in)
	if m == nil || m.SetupID != SetupConservative {
		t.Fatalf("expected conservative, got %+v", m)
	}
	if cons.calls != 1 || mom.calls != 0 || rev.calls != 0 {
		t.Errorf("calls: conservative=%d momentum=%d reversal=%d, want 1/0/0", cons.calls, mom.calls, rev.calls)
	}
	// Momentum alone would also have matched these inputs
	if Momentum().Evaluate(in) == nil {
		t.Error("test inputs should satisfy momentum too")
	}
}

func TestEngine_FallsThrough(t *testing.T) {
	s := flatSeries(10, 100, 100)
	in := NewInput(s, frameWith(len(s), indicator.Row{RSI: 50, ADX: 10, EMALong: 200}))

	cons := &countingStrategy{Strategy: Conservative()}
	mom := &countingStrategy{Strategy: Momentum()}
	rev := &countingStrategy{Strategy: Reversal()}
	e := NewEngine()
	e.Register(cons)
	e.Register(mom)
	e.Register(rev)

	if m := e.Classify(in); m != nil {
		t.Fatalf("expected no match, got %+v", m)
	}
	if cons.calls != 1 || mom.calls != 1 || rev.calls != 1 {
		t.Errorf("every strategy should be evaluated once, got %d/%d/%d", cons.calls, mom.calls, rev.calls)
	}
}

func TestDefaultEngine_Order(t *testing.T) {
	want := []string{SetupConservative, SetupMomentum, SetupReversal}
	got := DefaultEngine().Strategies()
	if len(got) != len(want) {
		t.Fatalf("got %d strategies", len(got))
	}
	for i, s := range got {
		if s.Name() != want[i] {
			t.Errorf("position %d: got %s, want %s", i, s.Name(), want[i])
		}
	}
}
