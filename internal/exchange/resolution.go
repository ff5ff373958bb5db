package exchange

// Resolution maps a caller-supplied duration alias to the canonical
// resolution string the venue expects and the seconds per candle used to
// size fetch time ranges.
type Resolution struct {
	Canonical string
	Seconds   int64
}

// One canonical alias table. Every alias maps to exactly one entry; the
// venue-native strings map to themselves so canonical input round-trips.
var resolutionAliases = map[string]Resolution{
	"1m":    {"1m", 60},
	"1min":  {"1m", 60},
	"5m":    {"5m", 300},
	"5min":  {"5m", 300},
	"15m":   {"15m", 900},
	"15min": {"15m", 900},
	"1h":    {"1h", 3600},
	"1hr":   {"1h", 3600},
	"4h":    {"4h", 14400},
	"4hr":   {"4h", 14400},
	"1d":    {"1d", 86400},
	"1day":  {"1d", 86400},
}

// LookupResolution resolves a duration alias. Unknown strings pass through
// verbatim with 3600 seconds per candle, so venue-native resolutions we do
// not alias still produce a usable time range.
func LookupResolution(duration string) Resolution {
	if r, ok := resolutionAliases[duration]; ok {
		return r
	}
	return Resolution{Canonical: duration, Seconds: 3600}
}
