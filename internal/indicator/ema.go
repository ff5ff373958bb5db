package indicator

// EMA calculates the Exponential Moving Average of a price series.
//
// The first value is the arithmetic mean of the first period prices and
// aligns with source index period-1. Each following value uses
// ema = (price - prev) * 2/(period+1) + prev. Returns an empty slice when
// fewer than period prices are available; output length is
// len(prices) - period + 1 otherwise.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	out := make([]float64, 0, len(prices)-period+1)

	// SMA seed over the first period prices
	sum := 0.0
	for _, p := range prices[:period] {
		sum += p
	}
	out = append(out, sum/float64(period))

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		last := out[len(out)-1]
		out = append(out, (prices[i]-last)*multiplier+last)
	}
	return out
}
