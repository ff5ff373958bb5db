// Package ledger owns the paper-trading account: cash balance, open
// leveraged positions, append-only history, and the per-coin trade
// lifecycle memory handed to the decision oracle.
//
// All mutating operations are serialized behind one mutex and are atomic:
// a rejected operation leaves no partial debit or position insert behind.
// The account is persisted as a single document after every mutation; a
// failed save is logged and the in-memory state stays authoritative until
// the next save.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"trading-agentv1/internal/metrics"
	"trading-agentv1/internal/model"
)

// AccountDocID is the fixed id of the single persisted account document.
const AccountDocID = "account_main"

// Named rejection outcomes. These are reported to the caller, not raised
// as fatal errors: the orchestrator keeps the cycle going for other coins.
var (
	ErrAlreadyOpen      = errors.New("position already open")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInsufficientCash = errors.New("insufficient cash")
)

// Close reasons recorded in history entries.
const (
	ReasonSignal     = "SIGNAL"
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTakeProfit = "TAKE_PROFIT"
)

// Ledger is the paper-trading account state machine. Per coin:
// FLAT → OPEN → FLAT, at most one open position, no averaging-in.
type Ledger struct {
	mu sync.Mutex

	initialBalance float64
	cash           float64
	positions      map[string]*model.Position
	history        []model.HistoryEntry
	lifecycle      map[string]*model.Lifecycle

	store   model.LedgerStore   // may be nil: in-memory only
	journal model.JournalWriter // may be nil
	prom    *metrics.Metrics    // may be nil
}

// New creates a ledger with the given starting cash. store, journal, and
// prom are optional collaborators.
func New(initialBalance float64, store model.LedgerStore, journal model.JournalWriter, prom *metrics.Metrics) *Ledger {
	return &Ledger{
		initialBalance: initialBalance,
		cash:           initialBalance,
		positions:      make(map[string]*model.Position),
		lifecycle:      make(map[string]*model.Lifecycle),
		store:          store,
		journal:        journal,
		prom:           prom,
	}
}

// Load restores the account document from the store, or saves a fresh one
// when none exists yet. Store errors degrade to in-memory operation.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.store.LoadAccount(ctx)
	if err != nil {
		log.Printf("[ledger] load failed, continuing with fresh state: %v", err)
		return nil
	}
	if doc == nil {
		log.Println("[ledger] no existing account document, starting fresh")
		l.persistLocked(ctx)
		return nil
	}

	l.cash = doc.Cash
	l.positions = make(map[string]*model.Position, len(doc.Positions))
	for coin, pos := range doc.Positions {
		p := pos
		l.positions[coin] = &p
	}
	l.history = append([]model.HistoryEntry(nil), doc.History...)
	log.Printf("[ledger] account restored: cash=%.2f positions=%d history=%d",
		l.cash, len(l.positions), len(l.history))
	return nil
}

// Open opens a new position. Fails with ErrAlreadyOpen, ErrInvalidQuantity,
// or ErrInsufficientCash; no state changes on failure.
func (l *Ledger) Open(ctx context.Context, coin string, direction model.Direction, quantity, price float64, leverage int, stopLoss, takeProfit *float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.openLocked(coin, direction, quantity, price, leverage, stopLoss, takeProfit, ""); err != nil {
		return err
	}
	l.persistLocked(ctx)
	return nil
}

func (l *Ledger) openLocked(coin string, direction model.Direction, quantity, price float64, leverage int, stopLoss, takeProfit *float64, invalidation string) error {
	if _, exists := l.positions[coin]; exists {
		l.countOp("open", "already_open")
		return fmt.Errorf("%s: %w", coin, ErrAlreadyOpen)
	}
	if quantity <= 0 {
		l.countOp("open", "invalid_quantity")
		return fmt.Errorf("%s: %w", coin, ErrInvalidQuantity)
	}
	if leverage < 1 {
		leverage = 1
	}
	// A zero level means "no level set", not an exit at price 0; the
	// oracle sometimes emits explicit zeros instead of omitting the field.
	stopLoss = normalizeLevel(stopLoss)
	takeProfit = normalizeLevel(takeProfit)

	margin := quantity * price / float64(leverage)
	if margin > l.cash {
		l.countOp("open", "insufficient_cash")
		return fmt.Errorf("%s: need %.2f, have %.2f: %w", coin, margin, l.cash, ErrInsufficientCash)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	l.cash -= margin
	l.positions[coin] = &model.Position{
		Coin:          coin,
		Direction:     direction,
		EntryPrice:    price,
		Quantity:      quantity,
		Leverage:      leverage,
		Margin:        margin,
		StopLoss:      stopLoss,
		TakeProfit:    takeProfit,
		UnrealizedPnL: 0,
		OpenedAt:      now,
	}

	action := string(model.SignalBuyToEnter)
	if direction == model.DirectionShort {
		action = string(model.SignalSellToEnter)
	}
	l.appendHistoryLocked(model.HistoryEntry{
		Action: action,
		Coin:   coin,
		Price:  price,
		Time:   now,
		Result: "OPEN",
	})

	lc := l.lifecycleLocked(coin)
	lc.State = model.LifecycleEntered
	lc.Direction = string(direction)
	lc.EntryPrice = price
	lc.EntryTimestamp = now
	lc.PositionSizeUSD = quantity * price
	lc.Leverage = leverage
	lc.StopLoss = deref(stopLoss)
	lc.ProfitTarget = deref(takeProfit)
	lc.InvalidationCondition = invalidation
	lc.BarsInTrade = 0
	lc.ConfirmationBars = 0
	lc.CooldownRemaining = 0

	l.countOp("open", "ok")
	log.Printf("[ledger] opened %s %s qty=%.4f @ %.2f lev=%dx margin=%.2f cash=%.2f",
		direction, coin, quantity, price, leverage, margin, l.cash)
	return nil
}

// Close closes the coin's position at the given price. No-op when the coin
// is not open.
func (l *Ledger) Close(ctx context.Context, coin string, price float64, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closeLocked(coin, price, reason) {
		l.persistLocked(ctx)
	}
}

func (l *Ledger) closeLocked(coin string, price float64, reason string) bool {
	pos, exists := l.positions[coin]
	if !exists {
		return false
	}

	pnl := pos.PnLAt(price)
	l.cash += pos.Margin + pnl
	delete(l.positions, coin)

	now := time.Now().UTC().Format(time.RFC3339)
	l.appendHistoryLocked(model.HistoryEntry{
		Action: "close",
		Coin:   coin,
		Price:  price,
		PnL:    &pnl,
		Reason: reason,
		Time:   now,
		Result: "CLOSED",
	})

	lc := l.lifecycleLocked(coin)
	lc.State = model.LifecycleCooldown
	lc.CooldownRemaining = 1
	lc.Direction = ""
	lc.EntryPrice = 0
	lc.EntryTimestamp = ""
	lc.PositionSizeUSD = 0
	lc.Leverage = 0
	lc.StopLoss = 0
	lc.ProfitTarget = 0
	lc.BarsInTrade = 0
	lc.ConfirmationBars = 0

	l.countOp("close", "ok")
	log.Printf("[ledger] closed %s (%s): pnl=%.2f cash=%.2f", coin, reason, pnl, l.cash)
	return true
}

// MarkToMarket recomputes unrealized PnL for every open position with a
// known current price, then evaluates exits: stop-loss before take-profit,
// at most one close per coin per call. Persists once if anything changed.
func (l *Ledger) MarkToMarket(ctx context.Context, currentPrices map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	coins := make([]string, 0, len(l.positions))
	for coin := range l.positions {
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	changed := false
	for _, coin := range coins {
		pos := l.positions[coin]
		price, known := currentPrices[coin]
		if !known || price == 0 {
			continue
		}

		if unrealized := pos.PnLAt(price); pos.UnrealizedPnL != unrealized {
			pos.UnrealizedPnL = unrealized
			changed = true
		}

		if sl := pos.StopLoss; sl != nil && stopHit(pos.Direction, price, *sl) {
			l.closeLocked(coin, price, ReasonStopLoss)
			changed = true
			continue
		}
		if tp := pos.TakeProfit; tp != nil && targetHit(pos.Direction, price, *tp) {
			l.closeLocked(coin, price, ReasonTakeProfit)
			changed = true
		}
	}

	if changed {
		l.persistLocked(ctx)
	}
}

func stopHit(direction model.Direction, price, stop float64) bool {
	if direction == model.DirectionLong {
		return price <= stop
	}
	return price >= stop
}

func targetHit(direction model.Direction, price, target float64) bool {
	if direction == model.DirectionLong {
		return price >= target
	}
	return price <= target
}

// Execute routes one oracle decision. Entry rejections (already open,
// invalid quantity, insufficient cash) are logged skips, not failures:
// oracle output is untrusted and the cycle continues for other coins.
func (l *Ledger) Execute(ctx context.Context, decision model.TradeDecision, currentPrice float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lc := l.lifecycleLocked(decision.Coin)
	lc.LastDecision = string(decision.Signal)
	lc.LastDecisionReason = decision.Reason

	if l.prom != nil {
		l.prom.DecisionsTotal.WithLabelValues(string(decision.Signal)).Inc()
	}

	switch {
	case decision.Signal.Entry():
		err := l.openLocked(decision.Coin, decision.Signal.Direction(), decision.Quantity,
			currentPrice, decision.Leverage, decision.StopLoss, decision.ProfitTarget,
			decision.InvalidationCondition)
		if err != nil {
			log.Printf("[ledger] skipping %s on %s: %v", decision.Signal, decision.Coin, err)
			return
		}
		l.persistLocked(ctx)

	case decision.Signal == model.SignalClose:
		if l.closeLocked(decision.Coin, currentPrice, ReasonSignal) {
			l.persistLocked(ctx)
		}

	default:
		// hold / skip_trade: informational only
		log.Printf("[ledger] %s on %s: no action", decision.Signal, decision.Coin)
	}
}

// AdvanceLifecycle moves lifecycle memory forward by one decision cycle:
// ENTERED becomes ACTIVE, open trades age by one bar, cooldowns count down
// to FLAT. ensureCoins get a lifecycle object if they lack one.
func (l *Ledger) AdvanceLifecycle(ensureCoins []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, coin := range ensureCoins {
		l.lifecycleLocked(coin)
	}

	for _, lc := range l.lifecycle {
		switch lc.State {
		case model.LifecycleEntered:
			lc.State = model.LifecycleActive
			lc.BarsInTrade++
		case model.LifecycleActive:
			lc.BarsInTrade++
		case model.LifecycleCooldown:
			lc.CooldownRemaining--
			if lc.CooldownRemaining <= 0 {
				lc.CooldownRemaining = 0
				lc.State = model.LifecycleFlat
			}
		case model.LifecycleInvalidated:
			lc.State = model.LifecycleCooldown
			if lc.CooldownRemaining == 0 {
				lc.CooldownRemaining = 1
			}
		}
	}
}

// LifecycleMemory returns the per-coin lifecycle objects, sorted by coin.
func (l *Ledger) LifecycleMemory() []model.Lifecycle {
	l.mu.Lock()
	defer l.mu.Unlock()

	coins := make([]string, 0, len(l.lifecycle))
	for coin := range l.lifecycle {
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	out := make([]model.Lifecycle, 0, len(coins))
	for _, coin := range coins {
		out = append(out, *l.lifecycle[coin])
	}
	return out
}

// Cash returns the available cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// TotalValue is cash + Σ margin + Σ unrealized PnL.
func (l *Ledger) TotalValue() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalValueLocked()
}

func (l *Ledger) totalValueLocked() float64 {
	total := l.cash
	for _, pos := range l.positions {
		total += pos.Margin + pos.UnrealizedPnL
	}
	return total
}

// TotalReturnPct is the account return relative to the initial balance.
func (l *Ledger) TotalReturnPct() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return (l.totalValueLocked() - l.initialBalance) / l.initialBalance * 100
}

// PositionsString renders the open positions for the oracle prompt.
func (l *Ledger) PositionsString() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.positions) == 0 {
		return "no open positions"
	}

	coins := make([]string, 0, len(l.positions))
	for coin := range l.positions {
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	out := ""
	for i, coin := range coins {
		pos := l.positions[coin]
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("Symbol: %s Side: %s Entry: %g Lev: %dx Margin: %.2f Unr. PNL: %.2f",
			coin, pos.Direction, pos.EntryPrice, pos.Leverage, pos.Margin, pos.UnrealizedPnL)
	}
	return out
}

// Snapshot returns a deep copy of the account state for read endpoints.
func (l *Ledger) Snapshot() model.AccountSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make(map[string]model.Position, len(l.positions))
	for coin, pos := range l.positions {
		positions[coin] = *pos
	}
	return model.AccountSummary{
		Cash:       l.cash,
		Positions:  positions,
		History:    append([]model.HistoryEntry(nil), l.history...),
		TotalValue: l.totalValueLocked(),
	}
}

// Save persists the current account state (used at shutdown).
func (l *Ledger) Save(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.persistLocked(ctx)
}

func (l *Ledger) lifecycleLocked(coin string) *model.Lifecycle {
	lc, ok := l.lifecycle[coin]
	if !ok {
		lc = model.NewLifecycle(coin)
		l.lifecycle[coin] = lc
	}
	return lc
}

func (l *Ledger) appendHistoryLocked(entry model.HistoryEntry) {
	l.history = append(l.history, entry)
	if l.journal != nil {
		if err := l.journal.RecordEntry(entry); err != nil {
			log.Printf("[ledger] journal write failed: %v", err)
			if l.prom != nil {
				l.prom.JournalErrors.Inc()
			}
		}
	}
}

// persistLocked replaces the whole account document in the store. A failed
// write is logged; in-memory state remains authoritative.
func (l *Ledger) persistLocked(ctx context.Context) {
	if l.prom != nil {
		l.prom.OpenPositions.Set(float64(len(l.positions)))
		l.prom.AccountValue.Set(l.totalValueLocked())
	}
	if l.store == nil {
		return
	}

	positions := make(map[string]model.Position, len(l.positions))
	for coin, pos := range l.positions {
		positions[coin] = *pos
	}
	doc := &model.AccountDocument{
		ID:          AccountDocID,
		Cash:        l.cash,
		Positions:   positions,
		History:     append([]model.HistoryEntry(nil), l.history...),
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
	if err := l.store.SaveAccount(ctx, doc); err != nil {
		log.Printf("[ledger] save failed (state kept in memory): %v", err)
		if l.prom != nil {
			l.prom.PersistErrors.Inc()
		}
	}
}

func (l *Ledger) countOp(op, outcome string) {
	if l.prom != nil {
		l.prom.LedgerOpsTotal.WithLabelValues(op, outcome).Inc()
	}
}

func normalizeLevel(f *float64) *float64 {
	if f == nil || *f == 0 {
		return nil
	}
	return f
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
