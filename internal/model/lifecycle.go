package model

// LifecycleState tracks where a coin is in its trade lifecycle.
type LifecycleState string

const (
	LifecycleFlat        LifecycleState = "FLAT"
	LifecycleEntered     LifecycleState = "ENTERED"
	LifecycleActive      LifecycleState = "ACTIVE"
	LifecycleInvalidated LifecycleState = "INVALIDATED"
	LifecycleCooldown    LifecycleState = "COOLDOWN"
)

// Lifecycle is the per-coin trade lifecycle memory object handed to the
// oracle on every cycle. It is the oracle's only source of historical
// state, so the ledger keeps it consistent with position changes.
type Lifecycle struct {
	Coin                  string         `json:"coin"`
	State                 LifecycleState `json:"state"`
	Direction             string         `json:"direction"`
	EntryPrice            float64        `json:"entry_price"`
	EntryTimestamp        string         `json:"entry_timestamp"`
	PositionSizeUSD       float64        `json:"position_size_usd"`
	Leverage              int            `json:"leverage"`
	StopLoss              float64        `json:"stop_loss"`
	ProfitTarget          float64        `json:"profit_target"`
	InvalidationCondition string         `json:"invalidation_condition"`
	BarsInTrade           int            `json:"bars_in_trade"`
	ConfirmationBars      int            `json:"confirmation_bars"`
	CooldownRemaining     int            `json:"cooldown_remaining"`
	LastDecision          string         `json:"last_decision"`
	LastDecisionReason    string         `json:"last_decision_reason"`
}

// NewLifecycle returns a flat lifecycle object for a coin.
func NewLifecycle(coin string) *Lifecycle {
	return &Lifecycle{Coin: coin, State: LifecycleFlat}
}
