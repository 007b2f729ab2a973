package store

import (
	"sync"

	"github.com/cofleet/exchange/internal/domain"
)

// TradeLedger is the append-only list of executed trades. Records are
// appended in execution order and read back newest first; nothing ever
// mutates or deletes a trade after creation.
type TradeLedger struct {
	mu     sync.RWMutex
	trades []*domain.Trade // chronological
}

// NewTradeLedger creates an empty TradeLedger.
func NewTradeLedger() *TradeLedger {
	return &TradeLedger{}
}

// Append records an executed trade.
func (l *TradeLedger) Append(t *domain.Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades = append(l.trades, t)
}

// List returns trades newest first. An empty symbol returns the whole
// ledger; otherwise only trades for that symbol. The returned slice is
// a copy.
func (l *TradeLedger) List(symbol string) []*domain.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*domain.Trade, 0, len(l.trades))
	for i := len(l.trades) - 1; i >= 0; i-- {
		t := l.trades[i]
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		result = append(result, t)
	}
	return result
}

// All returns the full ledger in chronological order, for replay and
// snapshotting.
func (l *TradeLedger) All() []*domain.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*domain.Trade, len(l.trades))
	copy(result, l.trades)
	return result
}

// LoadAll seeds the ledger from a snapshot (chronological order). Only
// called at startup, before any concurrent access.
func (l *TradeLedger) LoadAll(trades []*domain.Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades = append(l.trades[:0], trades...)
}
