package model

// Direction is the side of an open position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Position represents a single open leveraged paper position.
// Positions are owned exclusively by the ledger; callers only ever see
// copies. The JSON field names match the persisted account document.
type Position struct {
	Coin          string    `json:"coin"`
	Direction     Direction `json:"sign"`
	EntryPrice    float64   `json:"entry_price"`
	Quantity      float64   `json:"quantity"`
	Leverage      int       `json:"leverage"`
	Margin        float64   `json:"margin"`
	StopLoss      *float64  `json:"stop_loss,omitempty"`
	TakeProfit    *float64  `json:"take_profit,omitempty"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	OpenedAt      string    `json:"timestamp"` // RFC3339 UTC
}

// PnLAt computes the unrealized profit/loss at the given mark price.
func (p *Position) PnLAt(price float64) float64 {
	if p.Direction == DirectionLong {
		return (price - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - price) * p.Quantity
}

// HistoryEntry is an immutable append-only record of a ledger action.
type HistoryEntry struct {
	Action string   `json:"action"`
	Coin   string   `json:"coin"`
	Price  float64  `json:"price"`
	PnL    *float64 `json:"pnl,omitempty"`
	Reason string   `json:"reason,omitempty"`
	Time   string   `json:"time"` // RFC3339 UTC
	Result string   `json:"result"`
}

// AccountDocument is the persisted form of the whole ledger: one document,
// replaced wholesale on every mutation.
type AccountDocument struct {
	ID          string              `json:"id"`
	Cash        float64             `json:"cash"`
	Positions   map[string]Position `json:"positions"`
	History     []HistoryEntry      `json:"history"`
	LastUpdated string              `json:"last_updated"`
}

// AccountSummary is the read-only account view returned by the API.
type AccountSummary struct {
	Cash       float64             `json:"cash"`
	Positions  map[string]Position `json:"positions"`
	History    []HistoryEntry      `json:"history"`
	TotalValue float64             `json:"total_value"`
}
