package store

import (
	"sort"
	"sync"

	"github.com/cofleet/exchange/internal/domain"
)

// OrderStore is the single owner of all order records, live and
// historical, with a primary index by order id and a secondary index by
// symbol. Other components borrow and mutate records under the
// per-symbol book lock; the store's own mutex only guards its indexes.
type OrderStore struct {
	mu       sync.RWMutex
	orders   map[string]*domain.Order
	bySymbol map[string][]*domain.Order // symbol → orders, insertion order
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:   make(map[string]*domain.Order),
		bySymbol: make(map[string][]*domain.Order),
	}
}

// Place inserts a new order into both indexes.
func (s *OrderStore) Place(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o
	s.bySymbol[o.Symbol] = append(s.bySymbol[o.Symbol], o)
}

// Get retrieves an order by id. It returns domain.ErrOrderNotFound if
// the order does not exist.
func (s *OrderStore) Get(id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// Cancel soft-deletes a live order: status DELETED, deleted flag set,
// record retained for administrative audit visibility. Returns
// domain.ErrOrderNotFound for an unknown id and domain.ErrInvalidState
// for an order already in a terminal state.
func (s *OrderStore) Cancel(id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if !o.IsLive() {
		return nil, domain.ErrInvalidState
	}

	o.Status = domain.OrderStatusDeleted
	o.Deleted = true
	return o, nil
}

// Remove hard-deletes an order from both indexes. Only the matching
// engine calls this, when an order's quantity is fully consumed.
func (s *OrderStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return
	}
	delete(s.orders, id)

	list := s.bySymbol[o.Symbol]
	for i, cand := range list {
		if cand.ID == id {
			s.bySymbol[o.Symbol] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

// List returns the orders for a symbol, deleted included, newest
// first. An empty symbol returns every order across symbols. The slice
// is a copy; the records are the store-owned pointers, so callers that
// redact must clone first.
func (s *OrderStore) List(symbol string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if symbol != "" {
		list := s.bySymbol[symbol]
		result := make([]*domain.Order, 0, len(list))
		for i := len(list) - 1; i >= 0; i-- {
			result = append(result, list[i])
		}
		return result
	}

	result := make([]*domain.Order, 0, len(s.orders))
	for _, sym := range sortedKeys(s.bySymbol) {
		list := s.bySymbol[sym]
		for i := len(list) - 1; i >= 0; i-- {
			result = append(result, list[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Live returns all non-deleted orders for a symbol, newest first.
func (s *OrderStore) Live(symbol string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.bySymbol[symbol]
	result := make([]*domain.Order, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		if !list[i].Deleted {
			result = append(result, list[i])
		}
	}
	return result
}

// Dump returns deep copies of every order, for snapshotting.
func (s *OrderStore) Dump() []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Order, 0, len(s.orders))
	for _, symbol := range sortedKeys(s.bySymbol) {
		for _, o := range s.bySymbol[symbol] {
			result = append(result, o.Clone())
		}
	}
	return result
}

// LoadAll seeds the store from a snapshot. Only called at startup,
// before any concurrent access.
func (s *OrderStore) LoadAll(orders []*domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range orders {
		s.orders[o.ID] = o
		s.bySymbol[o.Symbol] = append(s.bySymbol[o.Symbol], o)
	}
}

func sortedKeys(m map[string][]*domain.Order) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Map iteration order is not stable; sort for a deterministic
	// snapshot layout.
	sort.Strings(keys)
	return keys
}
