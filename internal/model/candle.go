package model

// Candle represents a single OHLC bar for one instrument and timeframe.
// Timestamp is the bucket start in epoch seconds. Sequences of candles are
// always ordered oldest → newest; the exchange client normalizes ordering
// at the fetch boundary.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}
