package indicator

import (
	"math"

	"trading-agentv1/internal/model"
)

// TrueRanges computes the true range per candle: high-low for the first
// candle, then max(high-low, |high-prevClose|, |low-prevClose|). Output
// length equals the input length.
func TrueRanges(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		tr := c.High - c.Low
		if i > 0 {
			prevClose := candles[i-1].Close
			if hc := math.Abs(c.High - prevClose); hc > tr {
				tr = hc
			}
			if lc := math.Abs(c.Low - prevClose); lc > tr {
				tr = lc
			}
		}
		out[i] = tr
	}
	return out
}

// ATR calculates the Average True Range with Wilder smoothing.
//
// The seed is the mean of the first period true ranges and aligns with
// candle index period-1; each following value is
// (prev*(period-1) + tr) / period. Needs at least period candles; output
// length is len(candles) - period + 1.
func ATR(candles []model.Candle, period int) []float64 {
	if period <= 0 || len(candles) < period {
		return []float64{}
	}

	trs := TrueRanges(candles)

	sum := 0.0
	for _, tr := range trs[:period] {
		sum += tr
	}

	out := make([]float64, 0, len(trs)-period+1)
	out = append(out, sum/float64(period))

	p := float64(period)
	for i := period; i < len(trs); i++ {
		last := out[len(out)-1]
		out = append(out, (last*(p-1)+trs[i])/p)
	}
	return out
}
