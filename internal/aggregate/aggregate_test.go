package aggregate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"trading-agentv1/internal/model"
)

// fakeSource serves synthetic flat candles and records requested limits.
type fakeSource struct {
	mu       sync.Mutex
	requests map[string]int // resolution → limit
	failRes  string         // resolution that returns an error
	candles  int            // candles to return per request
}

func (f *fakeSource) GetCandles(ctx context.Context, marketID int, resolution string, limit int) ([]model.Candle, error) {
	f.mu.Lock()
	if f.requests == nil {
		f.requests = make(map[string]int)
	}
	f.requests[resolution] = limit
	f.mu.Unlock()

	if resolution == f.failRes {
		return nil, errors.New("venue timeout")
	}

	n := f.candles
	if n > limit {
		n = limit
	}
	out := make([]model.Candle, n)
	for i := range out {
		out[i] = model.Candle{
			Timestamp: int64(1700000000 + i*900),
			Open:      100, High: 101, Low: 99, Close: 100,
		}
	}
	return out, nil
}

func TestGetIndicators_WarmupFetchSize(t *testing.T) {
	src := &fakeSource{candles: 150}
	svc := New(src, nil)

	snap, err := svc.GetIndicators(context.Background(), 1, "15m", 20)
	if err != nil {
		t.Fatalf("GetIndicators: %v", err)
	}
	if got := src.requests["15m"]; got != 120 {
		t.Errorf("expected fetch limit 20+100=120, got %d", got)
	}
	if len(snap["ema50"]) != 20 {
		t.Errorf("expected 20 ema50 values from 150 candles, got %d", len(snap["ema50"]))
	}
}

func TestGetIndicators_ShortHistoryDegrades(t *testing.T) {
	// Venue returns fewer candles than requested: short indicators still
	// compute, ema50 stays empty, no error.
	src := &fakeSource{candles: 30}
	svc := New(src, nil)

	snap, err := svc.GetIndicators(context.Background(), 1, "1h", 20)
	if err != nil {
		t.Fatalf("GetIndicators: %v", err)
	}
	if len(snap["ema50"]) != 0 {
		t.Errorf("expected empty ema50, got %d values", len(snap["ema50"]))
	}
	if len(snap["midPrices"]) != 20 {
		t.Errorf("expected 20 mid prices, got %d", len(snap["midPrices"]))
	}
}

func TestGetFullAnalysis_AllTimeframes(t *testing.T) {
	src := &fakeSource{candles: 150}
	svc := New(src, nil)

	analysis := svc.GetFullAnalysis(context.Background(), 1)
	if analysis.Symbol != "BTC" {
		t.Errorf("expected symbol BTC for market 1, got %s", analysis.Symbol)
	}
	for _, tf := range AnalysisTimeframes {
		snap, ok := analysis.IndicatorData[tf]
		if !ok {
			t.Fatalf("missing timeframe %s", tf)
		}
		if len(snap["midPrices"]) != DefaultOutputCount {
			t.Errorf("%s: expected %d mid prices, got %d", tf, DefaultOutputCount, len(snap["midPrices"]))
		}
	}
	if got := analysis.MarkPrice(); got != 100 {
		t.Errorf("expected mark price 100, got %.4f", got)
	}
}

func TestGetFullAnalysis_FailedTimeframeDegrades(t *testing.T) {
	src := &fakeSource{candles: 150, failRes: "4h"}
	svc := New(src, nil)

	analysis := svc.GetFullAnalysis(context.Background(), 0)
	if len(analysis.IndicatorData["4h"]) != 0 {
		t.Errorf("expected empty snapshot for failed 4h fetch")
	}
	if len(analysis.IndicatorData["15m"]["midPrices"]) != DefaultOutputCount {
		t.Errorf("expected healthy 15m snapshot alongside failed 4h")
	}
}

func TestGetFullAnalysis_MarkPriceUnavailable(t *testing.T) {
	src := &fakeSource{candles: 150, failRes: "15m"}
	svc := New(src, nil)

	analysis := svc.GetFullAnalysis(context.Background(), 2)
	if got := analysis.MarkPrice(); got != 0 {
		t.Errorf("expected 0 mark price when 15m data missing, got %.4f", got)
	}
}

func TestSymbolFor(t *testing.T) {
	cases := map[int]string{0: "ETH", 1: "BTC", 2: "SOL", 9: "UNKNOWN"}
	for id, want := range cases {
		if got := SymbolFor(id); got != want {
			t.Errorf("SymbolFor(%d) = %s, want %s", id, got, want)
		}
	}
}
