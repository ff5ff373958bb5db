// Package aggregate sizes candle fetches for indicator warm-up and builds
// per-timeframe indicator snapshots for the tracked markets.
package aggregate

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"trading-agentv1/internal/indicator"
	"trading-agentv1/internal/metrics"
	"trading-agentv1/internal/model"
)

// warmupBuffer is added to every fetch so the slowest indicator (EMA 50)
// always has enough history ahead of the requested output window.
const warmupBuffer = 100

// DefaultOutputCount is the per-timeframe series length for full analysis.
const DefaultOutputCount = 20

// AnalysisTimeframes is the fixed timeframe set for full analysis.
var AnalysisTimeframes = []string{"15m", "1h", "4h"}

// Market ties a venue market id to its display symbol.
type Market struct {
	ID     int
	Symbol string
}

// Markets is the tracked instrument set, in venue id order.
var Markets = []Market{
	{ID: 0, Symbol: "ETH"},
	{ID: 1, Symbol: "BTC"},
	{ID: 2, Symbol: "SOL"},
}

// SymbolFor maps a market id to its symbol, or "UNKNOWN".
func SymbolFor(marketID int) string {
	for _, m := range Markets {
		if m.ID == marketID {
			return m.Symbol
		}
	}
	return "UNKNOWN"
}

// Analysis is the full multi-timeframe indicator view for one instrument.
type Analysis struct {
	Symbol        string                        `json:"symbol"`
	IndicatorData map[string]indicator.Snapshot `json:"indicator_data"`
}

// Service fetches candle history and derives indicator snapshots.
type Service struct {
	source model.SeriesSource
	prom   *metrics.Metrics
}

// New creates an aggregate service over the given series source.
// prom may be nil (tests).
func New(source model.SeriesSource, prom *metrics.Metrics) *Service {
	return &Service{source: source, prom: prom}
}

// GetIndicators fetches enough history for the longest warm-up and returns
// the aligned snapshot trimmed to limit elements per indicator.
func (s *Service) GetIndicators(ctx context.Context, marketID int, resolution string, limit int) (indicator.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultOutputCount
	}

	start := time.Now()
	candles, err := s.source.GetCandles(ctx, marketID, resolution, limit+warmupBuffer)
	if s.prom != nil {
		s.prom.FetchDur.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.prom != nil {
			s.prom.FetchErrors.Inc()
		}
		return nil, fmt.Errorf("indicators market=%d res=%s: %w", marketID, resolution, err)
	}

	return indicator.BuildSnapshot(candles, limit), nil
}

// GetFullAnalysis computes snapshots for the fixed timeframe set
// concurrently. A failed timeframe degrades to an empty snapshot so the
// remaining timeframes still reach the caller.
func (s *Service) GetFullAnalysis(ctx context.Context, marketID int) *Analysis {
	snaps := make([]indicator.Snapshot, len(AnalysisTimeframes))

	var wg sync.WaitGroup
	for i, tf := range AnalysisTimeframes {
		wg.Add(1)
		go func(slot int, timeframe string) {
			defer wg.Done()
			snap, err := s.GetIndicators(ctx, marketID, timeframe, DefaultOutputCount)
			if err != nil {
				log.Printf("[aggregate] %s %s fetch failed, degrading to empty snapshot: %v",
					SymbolFor(marketID), timeframe, err)
				snap = indicator.Snapshot{}
			}
			snaps[slot] = snap
		}(i, tf)
	}
	wg.Wait()

	data := make(map[string]indicator.Snapshot, len(AnalysisTimeframes))
	for i, tf := range AnalysisTimeframes {
		data[tf] = snaps[i]
	}
	return &Analysis{
		Symbol:        SymbolFor(marketID),
		IndicatorData: data,
	}
}

// MarkPrice extracts the instrument's current mark price from its analysis:
// the newest 15m mid price, or 0 when unavailable.
func (a *Analysis) MarkPrice() float64 {
	snap, ok := a.IndicatorData["15m"]
	if !ok {
		return 0
	}
	return snap.MarkPrice()
}
