package indicator

import (
	"math"
	"testing"
)

func TestSupertrend_FlipsOnBandCross(t *testing.T) {
	highs := []float64{10, 10, 10}
	lows := []float64{8, 8, 8}
	closes := []float64{9, 8.5, 9.5}
	atr := []float64{0, 0, 0}

	up, ok := Supertrend(highs, lows, closes, atr, 1)
	if !ok {
		t.Fatal("expected no fallback")
	}
	want := []bool{true, false, true}
	for i := range want {
		if up[i] != want[i] {
			t.Errorf("index %d: up=%v, want %v", i, up[i], want[i])
		}
	}
}

func TestSupertrend_WarmupATRIsZero(t *testing.T) {
	// idx0: line = lower = 9 (ATR treated as 0)
	// idx1: 8.5 <= 9 → down, line = upper = 9.5
	// idx2: 9.5 <= 9.5 → down
	nan := math.NaN()
	up, ok := Supertrend(
		[]float64{10, 10, 10},
		[]float64{8, 8, 8},
		[]float64{9, 8.5, 9.5},
		[]float64{nan, 0.5, 0.5},
		1,
	)
	if !ok {
		t.Fatal("expected no fallback")
	}
	want := []bool{true, false, false}
	for i := range want {
		if up[i] != want[i] {
			t.Errorf("index %d: up=%v, want %v", i, up[i], want[i])
		}
	}
}

func TestSupertrend_FirstIndexAlwaysUp(t *testing.T) {
	s := synthSeries(120)
	atr := NewATR(10)
	vals := make([]float64, len(s))
	for i, c := range s {
		atr.Update(c)
		vals[i] = math.NaN()
		if atr.Ready() {
			vals[i] = atr.Value()
		}
	}
	up, ok := Supertrend(s.Highs(), s.Lows(), s.Closes(), vals, 3)
	if !ok {
		t.Fatal("expected no fallback on a clean series")
	}
	if !up[0] {
		t.Error("index 0 must be up")
	}
}

func TestSupertrend_Fallback(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name                string
		highs, lows, closes []float64
		atr                 []float64
	}{
		{"atr undefined everywhere", []float64{10, 10}, []float64{8, 8}, []float64{9, 7}, []float64{nan, nan}},
		{"length mismatch", []float64{10, 10}, []float64{8}, []float64{9, 7}, []float64{1, 1}},
		{"nan after warm-up", []float64{10, 10, 10}, []float64{8, 8, 8}, []float64{9, 7, 7}, []float64{0.5, nan, 0.5}},
		{"infinite band", []float64{10, math.Inf(1)}, []float64{8, 8}, []float64{9, 7}, []float64{1, 1}},
		{"empty", nil, nil, nil, nil},
	}
	for _, tc := range cases {
		up, ok := Supertrend(tc.highs, tc.lows, tc.closes, tc.atr, 3)
		if ok {
			t.Errorf("%s: expected fallback", tc.name)
			continue
		}
		if len(up) != len(tc.closes) {
			t.Errorf("%s: got %d flags, want %d", tc.name, len(up), len(tc.closes))
		}
		for i, v := range up {
			if !v {
				t.Errorf("%s: index %d: fallback must report up", tc.name, i)
			}
		}
	}
}
