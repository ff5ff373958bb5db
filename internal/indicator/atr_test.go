package indicator

import (
	"testing"

	"trading-agentv1/internal/model"
)

func flatCandles(n int, price, spread float64) []model.Candle {
	out := make([]model.Candle, n)
	for i := range out {
		out[i] = model.Candle{
			Timestamp: int64(1700000000 + i*900),
			Open:      price,
			High:      price + spread/2,
			Low:       price - spread/2,
			Close:     price,
		}
	}
	return out
}

func TestTrueRanges_FirstCandleHighLow(t *testing.T) {
	candles := []model.Candle{
		{Open: 100, High: 105, Low: 95, Close: 102},
		{Open: 102, High: 104, Low: 101, Close: 103},
	}
	trs := TrueRanges(candles)
	if len(trs) != 2 {
		t.Fatalf("expected 2 true ranges, got %d", len(trs))
	}
	if !almostEqual(trs[0], 10, 1e-9) {
		t.Errorf("expected tr[0]=high-low=10, got %.4f", trs[0])
	}
	// max(104-101, |104-102|, |101-102|) = 3
	if !almostEqual(trs[1], 3, 1e-9) {
		t.Errorf("expected tr[1]=3, got %.4f", trs[1])
	}
}

func TestTrueRanges_GapUsesPrevClose(t *testing.T) {
	candles := []model.Candle{
		{Open: 100, High: 101, Low: 99, Close: 100},
		{Open: 110, High: 111, Low: 109, Close: 110}, // gap up
	}
	trs := TrueRanges(candles)
	// max(111-109, |111-100|, |109-100|) = 11
	if !almostEqual(trs[1], 11, 1e-9) {
		t.Errorf("expected gap tr=11, got %.4f", trs[1])
	}
}

func TestATR_LengthLaw(t *testing.T) {
	cases := []struct {
		n, want int
	}{
		{0, 0},
		{13, 0},
		{14, 1},
		{100, 87},
	}
	for _, tc := range cases {
		got := ATR(flatCandles(tc.n, 100, 2), 14)
		if len(got) != tc.want {
			t.Errorf("ATR(n=%d): expected len=%d, got %d", tc.n, tc.want, len(got))
		}
	}
}

func TestATR_ConstantRange(t *testing.T) {
	// Constant high-low spread of 2 → every true range and ATR is 2
	for i, v := range ATR(flatCandles(60, 100, 2), 14) {
		if !almostEqual(v, 2, 1e-9) {
			t.Fatalf("ATR[%d]=%.6f, expected 2", i, v)
		}
	}
}
