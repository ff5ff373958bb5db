// Package agent runs the decision cycle: gather market data, mark the
// ledger to market, ask the oracle, execute the validated decisions.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"trading-agentv1/internal/aggregate"
	"trading-agentv1/internal/ledger"
	"trading-agentv1/internal/metrics"
	"trading-agentv1/internal/model"
)

// Broadcaster pushes cycle results to connected stream clients.
type Broadcaster interface {
	Broadcast(msgType string, data any)
}

// CycleCache stores the most recent cycle result for later retrieval.
type CycleCache interface {
	SetLastCycle(ctx context.Context, result any)
}

// CycleResult is the outcome of one decision cycle.
type CycleResult struct {
	Status         string                `json:"status"`
	Message        string                `json:"message,omitempty"`
	Decisions      []model.TradeDecision `json:"decisions"`
	AccountSummary model.AccountSummary  `json:"account_summary"`
	StartedAt      string                `json:"started_at"`
	DurationMS     int64                 `json:"duration_ms"`
}

// SentimentOracle is the optional market-regime analysis surface.
type SentimentOracle interface {
	Sentiment(ctx context.Context, marketDataJSON string) (json.RawMessage, error)
}

// Orchestrator wires the aggregate service, ledger, and oracle into the
// cycle loop. One cycle in flight at a time.
type Orchestrator struct {
	mu sync.Mutex

	aggregator *aggregate.Service
	account    *ledger.Ledger
	oracle     model.DecisionOracle
	sentiment  SentimentOracle

	broadcaster Broadcaster // may be nil
	cache       CycleCache  // may be nil
	prom        *metrics.Metrics
}

// New builds the orchestrator. broadcaster, cache, and prom may be nil;
// sentiment may be nil when the oracle client doesn't support it.
func New(aggregator *aggregate.Service, account *ledger.Ledger, oracle model.DecisionOracle, sentiment SentimentOracle, broadcaster Broadcaster, cache CycleCache, prom *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		aggregator:  aggregator,
		account:     account,
		oracle:      oracle,
		sentiment:   sentiment,
		broadcaster: broadcaster,
		cache:       cache,
		prom:        prom,
	}
}

// gatherMarketData fetches full analysis for every tracked market
// concurrently and extracts per-coin mark prices. A failed instrument
// degrades to empty indicator data; its price stays unknown.
func (o *Orchestrator) gatherMarketData(ctx context.Context) (map[string]map[string]any, map[string]float64) {
	analyses := make([]*aggregate.Analysis, len(aggregate.Markets))

	var wg sync.WaitGroup
	for i, market := range aggregate.Markets {
		wg.Add(1)
		go func(slot, marketID int) {
			defer wg.Done()
			analyses[slot] = o.aggregator.GetFullAnalysis(ctx, marketID)
		}(i, market.ID)
	}
	wg.Wait()

	marketData := make(map[string]map[string]any, len(analyses))
	prices := make(map[string]float64, len(analyses))
	for _, a := range analyses {
		data := make(map[string]any, len(a.IndicatorData))
		for tf, snap := range a.IndicatorData {
			data[tf] = snap
		}
		marketData[a.Symbol] = data

		if price := a.MarkPrice(); price != 0 {
			prices[a.Symbol] = price
		} else {
			log.Printf("[agent] no mark price for %s, excluded from execution", a.Symbol)
		}
	}
	return marketData, prices
}

// RunCycle executes one full decision cycle. An oracle or serialization
// failure aborts the cycle with an error result; the ledger keeps the
// state from the mark-to-market pass.
func (o *Orchestrator) RunCycle(ctx context.Context) *CycleResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	result := &CycleResult{
		Status:    "success",
		StartedAt: start.UTC().Format(time.RFC3339),
	}
	defer func() {
		result.DurationMS = time.Since(start).Milliseconds()
		if o.prom != nil {
			o.prom.CyclesTotal.Inc()
			o.prom.CycleDur.Observe(time.Since(start).Seconds())
		}
		if o.cache != nil {
			o.cache.SetLastCycle(ctx, result)
		}
		if o.broadcaster != nil {
			o.broadcaster.Broadcast("cycle", result)
			o.broadcaster.Broadcast("account", result.AccountSummary)
		}
	}()

	marketData, prices := o.gatherMarketData(ctx)

	o.account.MarkToMarket(ctx, prices)

	marketJSON, err := json.Marshal(marketData)
	if err != nil {
		return o.fail(result, fmt.Errorf("serialize market data: %w", err))
	}

	coins := make([]string, 0, len(aggregate.Markets))
	for _, m := range aggregate.Markets {
		coins = append(coins, m.Symbol)
	}
	o.account.AdvanceLifecycle(coins)

	req := model.DecisionRequest{
		MarketDataJSON: string(marketJSON),
		TotalReturnPct: o.account.TotalReturnPct(),
		AvailableCash:  o.account.Cash(),
		AccountValue:   o.account.TotalValue(),
		OpenPositions:  o.account.PositionsString(),
		Lifecycle:      o.account.LifecycleMemory(),
	}

	decisions, err := o.oracle.Decide(ctx, req)
	if err != nil {
		return o.fail(result, fmt.Errorf("oracle: %w", err))
	}

	executed := make([]model.TradeDecision, 0, len(decisions))
	for _, decision := range decisions {
		price, known := prices[decision.Coin]
		if !known {
			log.Printf("[agent] dropping decision for %s: no known price", decision.Coin)
			continue
		}
		o.account.Execute(ctx, decision, price)
		executed = append(executed, decision)
	}

	result.Decisions = executed
	result.AccountSummary = o.account.Snapshot()
	log.Printf("[agent] cycle complete: %d decisions executed, account value %.2f",
		len(executed), result.AccountSummary.TotalValue)
	return result
}

// RunSentiment runs the market-regime analysis over fresh market data.
func (o *Orchestrator) RunSentiment(ctx context.Context) (json.RawMessage, error) {
	if o.sentiment == nil {
		return nil, fmt.Errorf("sentiment analysis not configured")
	}

	marketData, _ := o.gatherMarketData(ctx)
	marketJSON, err := json.Marshal(marketData)
	if err != nil {
		return nil, fmt.Errorf("serialize market data: %w", err)
	}
	return o.sentiment.Sentiment(ctx, string(marketJSON))
}

// RunLoop triggers a cycle every interval until ctx is cancelled.
func (o *Orchestrator) RunLoop(ctx context.Context, interval time.Duration) {
	log.Printf("[agent] cycle loop started, interval %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[agent] cycle loop stopped")
			return
		case <-ticker.C:
			if result := o.RunCycle(ctx); result.Status != "success" {
				log.Printf("[agent] cycle failed: %s", result.Message)
			}
		}
	}
}

func (o *Orchestrator) fail(result *CycleResult, err error) *CycleResult {
	log.Printf("[agent] cycle aborted: %v", err)
	result.Status = "error"
	result.Message = err.Error()
	result.AccountSummary = o.account.Snapshot()
	return result
}
