package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"trading-agentv1/internal/agent"
	"trading-agentv1/internal/aggregate"
	"trading-agentv1/internal/ledger"
	"trading-agentv1/internal/model"
)

type fakeSource struct{}

func (fakeSource) GetCandles(ctx context.Context, marketID int, resolution string, limit int) ([]model.Candle, error) {
	out := make([]model.Candle, 150)
	for i := range out {
		out[i] = model.Candle{
			Timestamp: int64(1700000000 + i*900),
			Open:      100, High: 101, Low: 99, Close: 100,
		}
	}
	return out, nil
}

type fakeOracle struct {
	decisions []model.TradeDecision
}

func (f fakeOracle) Decide(ctx context.Context, req model.DecisionRequest) ([]model.TradeDecision, error) {
	return f.decisions, nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	account := ledger.New(1000, nil, nil, nil)
	aggregator := aggregate.New(fakeSource{}, nil)
	orchestrator := agent.New(aggregator, account, fakeOracle{
		decisions: []model.TradeDecision{{Coin: "BTC", Signal: model.SignalHold}},
	}, nil, nil, nil, nil)

	s := NewServer(Config{Addr: ":0"}, aggregator, orchestrator, account, nil, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	_, srv := newTestServer(t)

	var body map[string]any
	if code := getJSON(t, srv.URL+"/api/v1/health", &body); code != http.StatusOK {
		t.Fatalf("health status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("health body = %v", body)
	}
}

func TestIndicatorsEndpoint(t *testing.T) {
	_, srv := newTestServer(t)

	var body struct {
		Symbol     string               `json:"symbol"`
		Timeframe  string               `json:"timeframe"`
		Indicators map[string][]float64 `json:"indicators"`
	}
	code := getJSON(t, srv.URL+"/api/v1/indicators?market_id=1&timeframe=1h&limit=10", &body)
	if code != http.StatusOK {
		t.Fatalf("indicators status = %d", code)
	}
	if body.Symbol != "BTC" || body.Timeframe != "1h" {
		t.Errorf("unexpected body: %+v", body)
	}
	if len(body.Indicators["midPrices"]) != 10 {
		t.Errorf("expected 10 mid prices, got %d", len(body.Indicators["midPrices"]))
	}
}

func TestIndicatorsEndpoint_BadParams(t *testing.T) {
	_, srv := newTestServer(t)

	if code := getJSON(t, srv.URL+"/api/v1/indicators", nil); code != http.StatusBadRequest {
		t.Errorf("missing market_id: status = %d", code)
	}
	if code := getJSON(t, srv.URL+"/api/v1/indicators?market_id=1&limit=-5", nil); code != http.StatusBadRequest {
		t.Errorf("negative limit: status = %d", code)
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	_, srv := newTestServer(t)

	var body struct {
		Symbol        string                          `json:"symbol"`
		IndicatorData map[string]map[string][]float64 `json:"indicator_data"`
	}
	if code := getJSON(t, srv.URL+"/api/v1/analysis?market_id=2", &body); code != http.StatusOK {
		t.Fatalf("analysis status = %d", code)
	}
	if body.Symbol != "SOL" || len(body.IndicatorData) != 3 {
		t.Errorf("unexpected body: symbol=%s timeframes=%d", body.Symbol, len(body.IndicatorData))
	}
}

func TestTradeDecisionEndpoint(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/trade_decision", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("trade_decision status = %d", resp.StatusCode)
	}

	var result struct {
		Status    string                `json:"status"`
		Decisions []model.TradeDecision `json:"decisions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != "success" || len(result.Decisions) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestAccountEndpoint(t *testing.T) {
	_, srv := newTestServer(t)

	var body model.AccountSummary
	if code := getJSON(t, srv.URL+"/api/v1/account", &body); code != http.StatusOK {
		t.Fatalf("account status = %d", code)
	}
	if body.Cash != 1000 || body.TotalValue != 1000 {
		t.Errorf("unexpected account: %+v", body)
	}
}

func TestSentimentEndpoint_NotConfigured(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/sentiment", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("sentiment status = %d, want 502", resp.StatusCode)
	}
}

func TestJournalEndpoint_NotConfigured(t *testing.T) {
	_, srv := newTestServer(t)
	if code := getJSON(t, srv.URL+"/api/v1/journal", nil); code != http.StatusServiceUnavailable {
		t.Errorf("journal status = %d, want 503", code)
	}
}
