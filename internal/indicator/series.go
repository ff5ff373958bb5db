package indicator

import "trading-agentv1/internal/model"

// ClosePrices extracts the close price series from a candle sequence.
func ClosePrices(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// MidPrices derives the mid price series, round((open+close)/2, 3) per
// candle, same length and order as the source.
func MidPrices(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = roundTo((c.Open+c.Close)/2, 3)
	}
	return out
}
