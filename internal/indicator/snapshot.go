package indicator

import "trading-agentv1/internal/model"

// Snapshot maps indicator name → trailing aligned float sequence. All
// sequences in one snapshot describe the same trailing window of candles.
type Snapshot map[string][]float64

// Fixed indicator periods for snapshots.
const (
	emaFastPeriod = 20
	emaSlowPeriod = 50
	rsiFastPeriod = 7
	rsiSlowPeriod = 14
	atrPeriod     = 14
)

// BuildSnapshot computes the full indicator set over the candle sequence
// and trims every series to its trailing outputCount elements, rounded to
// 2 decimals. An indicator without enough warm-up history yields an empty
// sequence while the others still compute. Returns an empty snapshot for
// empty input.
func BuildSnapshot(candles []model.Candle, outputCount int) Snapshot {
	if len(candles) == 0 {
		return Snapshot{}
	}

	mids := MidPrices(candles)
	closes := ClosePrices(candles)

	return Snapshot{
		"midPrices": lastN(mids, outputCount),
		"ema20":     lastN(EMA(closes, emaFastPeriod), outputCount),
		"ema50":     lastN(EMA(closes, emaSlowPeriod), outputCount),
		"rsi7":      lastN(RSI(closes, rsiFastPeriod), outputCount),
		"rsi14":     lastN(RSI(closes, rsiSlowPeriod), outputCount),
		"atr14":     lastN(ATR(candles, atrPeriod), outputCount),
		"macd":      lastN(MACD(closes), outputCount),
	}
}

// MarkPrice returns the most recent mid price in the snapshot, or 0 when
// the snapshot has no mid prices (instrument excluded from execution).
func (s Snapshot) MarkPrice() float64 {
	mids := s["midPrices"]
	if len(mids) == 0 {
		return 0
	}
	return mids[len(mids)-1]
}

// lastN copies the trailing n elements (all, if fewer) rounded to 2
// decimals. Always returns a non-nil slice so snapshots marshal as [].
func lastN(arr []float64, n int) []float64 {
	start := 0
	if len(arr) > n {
		start = len(arr) - n
	}
	out := make([]float64, 0, len(arr)-start)
	for _, v := range arr[start:] {
		out = append(out, roundTo(v, 2))
	}
	return out
}
