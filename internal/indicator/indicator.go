// Package indicator provides technical indicator calculations over candle data.
//
// All functions are pure: they take a price or candle sequence, never mutate
// their inputs, and return a shorter sequence aligned to the right edge of
// the source. Index i of an indicator array corresponds to source index
// (warmup + i), where warmup is fixed per indicator. Because every array is
// right-aligned to the newest candle, taking the trailing N elements of each
// yields time-consistent values across indicators without timestamp matching.
package indicator

import "math"

// roundTo rounds x to the given number of decimal places.
func roundTo(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}
