package indicator

import "testing"

func TestMACD_LengthLaw(t *testing.T) {
	for _, n := range []int{0, 10, 25, 26, 40, 100} {
		prices := constSeries(100, n)
		got := MACD(prices)

		ema12 := EMA(prices, 12)
		ema26 := EMA(prices, 26)
		want := len(ema12) - macdOffset
		if len(ema26) < want {
			want = len(ema26)
		}
		if want < 0 {
			want = 0
		}
		if len(got) != want {
			t.Errorf("MACD(n=%d): expected len=%d, got %d", n, want, len(got))
		}
	}
}

func TestMACD_ConstantInputIsZero(t *testing.T) {
	for i, v := range MACD(constSeries(250, 80)) {
		if !almostEqual(v, 0, 1e-9) {
			t.Fatalf("MACD[%d]=%.8f, expected 0 for constant input", i, v)
		}
	}
}

func TestMACD_Alignment(t *testing.T) {
	// Constant series with a single jump on the newest price. Both EMA terms
	// must end on the jump candle: MACD last = 10*(2/13 - 2/27).
	prices := constSeries(100, 80)
	prices[79] = 110

	got := MACD(prices)
	if len(got) == 0 {
		t.Fatal("expected non-empty MACD")
	}
	want := 10 * (2.0/13.0 - 2.0/27.0)
	last := got[len(got)-1]
	if !almostEqual(last, want, 1e-9) {
		t.Errorf("expected last MACD=%.6f, got %.6f", want, last)
	}
	// Everything before the jump is still zero
	for i := 0; i < len(got)-1; i++ {
		if !almostEqual(got[i], 0, 1e-9) {
			t.Fatalf("MACD[%d]=%.8f, expected 0 before the jump", i, got[i])
		}
	}
}
