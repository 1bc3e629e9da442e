package pattern

import (
	"testing"

	"setup-scanner/internal/model"
)

func ohlc(o, h, l, c float64) model.Candle {
	return model.Candle{Open: o, High: h, Low: l, Close: c, Volume: 1}
}

func TestStrongBody(t *testing.T) {
	filler := ohlc(100, 101, 99, 100)
	cases := []struct {
		name string
		s    model.Series
		want bool
	}{
		{"marubozu", model.Series{filler, ohlc(100, 110.5, 99.5, 110)}, true},
		{"long upper wick", model.Series{filler, ohlc(100, 115, 99.5, 104)}, false},
		{"long lower wick", model.Series{filler, ohlc(100, 104.5, 92, 104)}, false},
		// body 4, wicks 2 and 2 → 4 > 3 on both sides
		{"bearish strong", model.Series{filler, ohlc(104, 106, 98, 100)}, true},
		// body exactly 1.5x the wick is not strong
		{"boundary", model.Series{filler, ohlc(100, 104, 98, 103)}, false},
		{"doji", model.Series{filler, ohlc(100, 101, 99, 100)}, false},
		{"single candle", model.Series{ohlc(100, 110.5, 99.5, 110)}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		if got := StrongBody(tc.s); got != tc.want {
			t.Errorf("%s: StrongBody = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBullishEngulfing(t *testing.T) {
	bear := ohlc(105, 106, 99, 100)
	cases := []struct {
		name string
		s    model.Series
		want bool
	}{
		{"engulfing", model.Series{bear, ohlc(99, 107, 98, 106)}, true},
		{"opens above prev close", model.Series{bear, ohlc(101, 107, 100, 106)}, false},
		{"closes below prev open", model.Series{bear, ohlc(99, 105, 98, 104)}, false},
		{"prev bullish", model.Series{ohlc(100, 106, 99, 105), ohlc(99, 107, 98, 106)}, false},
		{"last bearish", model.Series{bear, ohlc(106, 107, 98, 99)}, false},
		{"single candle", model.Series{ohlc(99, 107, 98, 106)}, false},
	}
	for _, tc := range cases {
		if got := BullishEngulfing(tc.s); got != tc.want {
			t.Errorf("%s: BullishEngulfing = %v, want %v", tc.name, got, tc.want)
		}
	}
}
