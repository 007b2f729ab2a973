package engine

import (
	"sync"

	"github.com/google/btree"

	"github.com/cofleet/exchange/internal/domain"
)

// BookEntry represents a single open order resting on the book.
type BookEntry struct {
	Price   int64
	OrderID string
	Order   *domain.Order
}

// PriceLevel is an aggregated price level in the order book.
type PriceLevel struct {
	Price         int64
	TotalQuantity int64
	OrderCount    int
}

// buyLess orders the buy side: price descending, then order id. The
// order id tie-break is an arbitrary stable key, not arrival order:
// there is deliberately no time priority among equal prices. Min()
// returns the best bid (highest price).
func buyLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.OrderID < b.OrderID
}

// sellLess orders the sell side: price ascending, then order id. Min()
// returns the best ask (lowest price).
func sellLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.OrderID < b.OrderID
}

// OrderBook holds the open BUY and SELL orders for a single symbol in
// B-trees with a secondary index for O(log n) removal by order id. RFQ
// orders never rest on the book, and orders leave it the moment they
// leave OPEN.
//
// The book's mutex is the per-symbol write lock: every mutating engine
// operation (place, cancel, match, quote, accept, request, agree) runs
// start to finish under it, which is what makes each intent a single
// atomic transition over the store, ledger, and volume cache together.
type OrderBook struct {
	symbol string
	mu     sync.Mutex
	buys   *btree.BTreeG[BookEntry]
	sells  *btree.BTreeG[BookEntry]
	index  map[string]BookEntry // order id → entry
}

// NewOrderBook creates an order book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol: symbol,
		buys:   btree.NewG[BookEntry](degree, buyLess),
		sells:  btree.NewG[BookEntry](degree, sellLess),
		index:  make(map[string]BookEntry),
	}
}

// Lock acquires the per-symbol write lock.
func (b *OrderBook) Lock() {
	b.mu.Lock()
}

// Unlock releases the per-symbol write lock.
func (b *OrderBook) Unlock() {
	b.mu.Unlock()
}

// Insert rests an open BUY or SELL order on the book. RFQ orders and
// non-open orders are ignored.
func (b *OrderBook) Insert(o *domain.Order) {
	if !o.Matchable() {
		return
	}
	entry := BookEntry{Price: o.Price, OrderID: o.ID, Order: o}
	if o.Side == domain.SideBuy {
		b.buys.ReplaceOrInsert(entry)
	} else {
		b.sells.ReplaceOrInsert(entry)
	}
	b.index[o.ID] = entry
}

// Remove deletes an order from the book by id. It tries both sides
// since Delete is a no-op when the entry isn't found.
func (b *OrderBook) Remove(orderID string) {
	entry, ok := b.index[orderID]
	if !ok {
		return
	}
	delete(b.index, orderID)
	b.buys.Delete(entry)
	b.sells.Delete(entry)
}

// BestOpponent returns the best-priced resting order on the side
// opposite to aggressorSide: the lowest sell for a BUY, the highest
// buy for a SELL. RFQ has no opponents.
func (b *OrderBook) BestOpponent(aggressorSide domain.Side) (BookEntry, bool) {
	switch aggressorSide {
	case domain.SideBuy:
		return b.sells.Min()
	case domain.SideSell:
		return b.buys.Min()
	}
	return BookEntry{}, false
}

// TopBuys returns up to n aggregated price levels from the buy side,
// best price first.
func (b *OrderBook) TopBuys(n int) []PriceLevel {
	return topLevels(b.buys, n)
}

// TopSells returns up to n aggregated price levels from the sell side,
// best price first.
func (b *OrderBook) TopSells(n int) []PriceLevel {
	return topLevels(b.sells, n)
}

// topLevels iterates the B-tree in order and aggregates entries into
// at most n price levels.
func topLevels(tree *btree.BTreeG[BookEntry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(entry BookEntry) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == entry.Price {
			levels[len(levels)-1].TotalQuantity += entry.Order.Quantity
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         entry.Price,
			TotalQuantity: entry.Order.Quantity,
			OrderCount:    1,
		})
		return true
	})
	return levels
}

// BuyCount returns the number of resting buy orders.
func (b *OrderBook) BuyCount() int {
	return b.buys.Len()
}

// SellCount returns the number of resting sell orders.
func (b *OrderBook) SellCount() int {
	return b.sells.Len()
}

// BookManager is a thread-safe map of symbol → OrderBook.
type BookManager struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
}

// NewBookManager creates a new BookManager.
func NewBookManager() *BookManager {
	return &BookManager{
		books: make(map[string]*OrderBook),
	}
}

// GetOrCreate returns the order book for the given symbol, creating
// one if it doesn't already exist.
func (m *BookManager) GetOrCreate(symbol string) *OrderBook {
	m.mu.RLock()
	book, ok := m.books[symbol]
	m.mu.RUnlock()
	if ok {
		return book
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Double-check after acquiring write lock.
	if book, ok = m.books[symbol]; ok {
		return book
	}
	book = NewOrderBook(symbol)
	m.books[symbol] = book
	return book
}
