package model

import "fmt"

// Signal is a trade instruction emitted by the decision oracle.
type Signal string

const (
	SignalBuyToEnter  Signal = "buy_to_enter"
	SignalSellToEnter Signal = "sell_to_enter"
	SignalClose       Signal = "close"
	SignalHold        Signal = "hold"
	SignalSkipTrade   Signal = "skip_trade"
)

// Valid reports whether the signal is one of the fixed enum values.
// Oracle output is untrusted free-form JSON; anything outside the enum is
// rejected before it can touch ledger state.
func (s Signal) Valid() bool {
	switch s {
	case SignalBuyToEnter, SignalSellToEnter, SignalClose, SignalHold, SignalSkipTrade:
		return true
	}
	return false
}

// Entry reports whether the signal opens a new position.
func (s Signal) Entry() bool {
	return s == SignalBuyToEnter || s == SignalSellToEnter
}

// Direction derives the position side from an entry signal.
func (s Signal) Direction() Direction {
	if s == SignalSellToEnter {
		return DirectionShort
	}
	return DirectionLong
}

// TradeDecision is one decision from the oracle. Produced once per cycle,
// consumed once, discarded. The JSON field names follow the prompt contract.
type TradeDecision struct {
	Coin                  string   `json:"coin"`
	Signal                Signal   `json:"signal"`
	Quantity              float64  `json:"quantity,omitempty"`
	Leverage              int      `json:"leverage,omitempty"`
	StopLoss              *float64 `json:"stop_loss,omitempty"`
	ProfitTarget          *float64 `json:"profit_target,omitempty"`
	Confidence            float64  `json:"confidence,omitempty"`
	InvalidationCondition string   `json:"invalidation_condition,omitempty"`
	Reason                string   `json:"reason,omitempty"`
}

// Validate checks the structural contract of a single decision.
func (d *TradeDecision) Validate() error {
	if d.Coin == "" {
		return fmt.Errorf("decision missing coin")
	}
	if !d.Signal.Valid() {
		return fmt.Errorf("unknown signal %q for %s", d.Signal, d.Coin)
	}
	return nil
}
