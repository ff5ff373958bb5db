package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func constSeries(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestEMA_LengthLaw(t *testing.T) {
	cases := []struct {
		n, period, want int
	}{
		{0, 20, 0},
		{19, 20, 0},
		{20, 20, 1},
		{100, 20, 81},
		{100, 50, 51},
	}
	for _, tc := range cases {
		prices := constSeries(100, tc.n)
		got := EMA(prices, tc.period)
		if len(got) != tc.want {
			t.Errorf("EMA(n=%d, period=%d): expected len=%d, got %d", tc.n, tc.period, tc.want, len(got))
		}
	}
}

func TestEMA_ConstantInput(t *testing.T) {
	prices := constSeries(100, 60)
	for _, v := range EMA(prices, 20) {
		if !almostEqual(v, 100, 1e-9) {
			t.Fatalf("expected EMA=100 for constant input, got %.6f", v)
		}
	}
}

func TestEMA_SeedIsSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	got := EMA(prices, 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 value, got %d", len(got))
	}
	if !almostEqual(got[0], 3, 1e-9) {
		t.Errorf("expected seed=3 (mean of 1..5), got %.6f", got[0])
	}
}

func TestEMA_Recurrence(t *testing.T) {
	// Seed = mean(10,10,10) = 10; next = (16-10)*2/4 + 10 = 13
	prices := []float64{10, 10, 10, 16}
	got := EMA(prices, 3)
	if len(got) != 2 {
		t.Fatalf("expected 2 values, got %d", len(got))
	}
	if !almostEqual(got[1], 13, 1e-9) {
		t.Errorf("expected ema[1]=13, got %.6f", got[1])
	}
}

func TestEMA_DoesNotMutateInput(t *testing.T) {
	prices := []float64{5, 6, 7, 8, 9}
	EMA(prices, 3)
	want := []float64{5, 6, 7, 8, 9}
	for i := range prices {
		if prices[i] != want[i] {
			t.Fatalf("input mutated at %d: %v", i, prices)
		}
	}
}
