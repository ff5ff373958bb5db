package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupResolution(t *testing.T) {
	cases := []struct {
		in        string
		canonical string
		seconds   int64
	}{
		{"1m", "1m", 60},
		{"1min", "1m", 60},
		{"5min", "5m", 300},
		{"15m", "15m", 900},
		{"1hr", "1h", 3600},
		{"4h", "4h", 14400},
		{"1d", "1d", 86400},
		{"30m", "30m", 3600}, // unknown: pass-through with default seconds
	}
	for _, tc := range cases {
		got := LookupResolution(tc.in)
		if got.Canonical != tc.canonical || got.Seconds != tc.seconds {
			t.Errorf("LookupResolution(%q) = %+v, want {%s %d}", tc.in, got, tc.canonical, tc.seconds)
		}
	}
}

func TestGetCandles_NormalizesAndSorts(t *testing.T) {
	// Out of order, with string-typed prices — the client must normalize both.
	body := `{"candlesticks":[
		{"timestamp":1700001800,"open":"101.5","high":"103","low":"100","close":"102.25"},
		{"timestamp":1700000000,"open":100,"high":102,"low":99,"close":101.5},
		{"timestamp":1700000900,"open":"101","high":102.5,"low":"100.5","close":101}
	]}`

	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != routeCandles {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = map[string]string{
			"market_id":  r.URL.Query().Get("market_id"),
			"resolution": r.URL.Query().Get("resolution"),
			"count_back": r.URL.Query().Get("count_back"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	candles, err := client.GetCandles(context.Background(), 1, "15min", 3)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}

	if gotQuery["market_id"] != "1" || gotQuery["resolution"] != "15m" || gotQuery["count_back"] != "3" {
		t.Errorf("unexpected query params: %v", gotQuery)
	}

	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp <= candles[i-1].Timestamp {
			t.Fatalf("candles not sorted ascending: %d after %d", candles[i].Timestamp, candles[i-1].Timestamp)
		}
	}
	if candles[0].Open != 100 || candles[2].Close != 102.25 {
		t.Errorf("normalization wrong: first=%+v last=%+v", candles[0], candles[2])
	}
}

func TestGetCandles_TrimsToLimit(t *testing.T) {
	body := `{"candlesticks":[
		{"timestamp":1,"open":1,"high":1,"low":1,"close":1},
		{"timestamp":2,"open":2,"high":2,"low":2,"close":2},
		{"timestamp":3,"open":3,"high":3,"low":3,"close":3}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	candles, err := client.GetCandles(context.Background(), 0, "1h", 2)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected trim to 2 candles, got %d", len(candles))
	}
	if candles[0].Timestamp != 2 || candles[1].Timestamp != 3 {
		t.Errorf("expected newest 2 candles kept, got %+v", candles)
	}
}

func TestGetCandles_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "venue down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	if _, err := client.GetCandles(context.Background(), 1, "1h", 5); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}
