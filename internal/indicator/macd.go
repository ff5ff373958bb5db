package indicator

// macdOffset realigns the 12-period EMA to the 26-period EMA: the first
// EMA26 value sits 26-12 = 14 source candles after the first EMA12 value.
const macdOffset = 26 - 12

// MACD calculates the Moving Average Convergence Divergence as the
// difference of the 12- and 26-period EMAs of the price series.
//
// MACD[i] = EMA12[i+14] - EMA26[i], so both terms end at the same source
// candle. Output length is min(len(EMA12)-14, len(EMA26)), empty when
// non-positive.
func MACD(prices []float64) []float64 {
	ema12 := EMA(prices, 12)
	ema26 := EMA(prices, 26)

	n := len(ema12) - macdOffset
	if len(ema26) < n {
		n = len(ema26)
	}
	if n <= 0 {
		return []float64{}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = ema12[i+macdOffset] - ema26[i]
	}
	return out
}
