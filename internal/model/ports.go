package model

import "context"

// ── Port Interfaces ──
// These interfaces decouple the orchestrator and ledger from concrete
// collaborators (exchange REST API, LLM oracle, Redis, SQLite). Each
// implementation satisfies one or more of these interfaces.

// SeriesSource returns OHLC candles for a market, ordered oldest → newest.
// It may return fewer candles than requested; callers degrade gracefully.
type SeriesSource interface {
	// GetCandles fetches up to limit candles at the given resolution.
	GetCandles(ctx context.Context, marketID int, resolution string, limit int) ([]Candle, error)
}

// DecisionRequest is the payload assembled for one oracle call.
type DecisionRequest struct {
	// MarketDataJSON is the serialized per-instrument indicator snapshots.
	MarketDataJSON string

	TotalReturnPct float64
	AvailableCash  float64
	AccountValue   float64
	OpenPositions  string

	// Lifecycle carries the per-coin trade lifecycle memory objects.
	Lifecycle []Lifecycle
}

// DecisionOracle turns a decision request into trade decisions.
// Stateless request/response; output is untrusted until validated.
type DecisionOracle interface {
	Decide(ctx context.Context, req DecisionRequest) ([]TradeDecision, error)
}

// LedgerStore persists the account document. Writes are whole-document
// replacements, so partial-write corruption is impossible.
type LedgerStore interface {
	SaveAccount(ctx context.Context, doc *AccountDocument) error

	// LoadAccount returns nil, nil when no document exists yet.
	LoadAccount(ctx context.Context) (*AccountDocument, error)
}

// JournalWriter appends ledger history entries to a durable audit log.
// Journal failures are logged and never block ledger mutations.
type JournalWriter interface {
	RecordEntry(entry HistoryEntry) error
}
