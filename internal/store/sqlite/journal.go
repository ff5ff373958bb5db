// Package sqlite keeps an append-only audit journal of ledger history
// entries. The journal mirrors the account history for offline analysis;
// the Redis account document stays the source of truth.
package sqlite

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"trading-agentv1/internal/model"
)

// Journal persists ledger history entries to SQLite.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS ledger_history (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		action      TEXT NOT NULL,
		coin        TEXT NOT NULL,
		price       REAL NOT NULL,
		pnl         REAL,
		reason      TEXT,
		entry_time  DATETIME NOT NULL,
		result      TEXT NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_history_coin ON ledger_history(coin);
	CREATE INDEX IF NOT EXISTS idx_history_entry_time ON ledger_history(entry_time);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened ledger journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// RecordEntry appends one history entry to the journal.
func (j *Journal) RecordEntry(entry model.HistoryEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var pnl sql.NullFloat64
	if entry.PnL != nil {
		pnl = sql.NullFloat64{Float64: *entry.PnL, Valid: true}
	}

	_, err := j.db.Exec(
		`INSERT INTO ledger_history (action, coin, price, pnl, reason, entry_time, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Action,
		entry.Coin,
		entry.Price,
		pnl,
		entry.Reason,
		entry.Time,
		entry.Result,
	)
	return err
}

// RecentEntries returns the last N history entries, newest first.
func (j *Journal) RecentEntries(limit int) ([]model.HistoryEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT action, coin, price, pnl, reason, entry_time, result
		 FROM ledger_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var pnl sql.NullFloat64
		if err := rows.Scan(&e.Action, &e.Coin, &e.Price, &pnl, &e.Reason, &e.Time, &e.Result); err != nil {
			continue
		}
		if pnl.Valid {
			v := pnl.Float64
			e.PnL = &v
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
