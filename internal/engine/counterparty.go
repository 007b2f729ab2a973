package engine

import "github.com/cofleet/exchange/internal/domain"

// FindCounterparty selects the single best-priced open opposite order
// that crosses o's limit price, without executing anything. This is the
// negotiation protocol's selection step and uses the same eligibility
// and ordering rule as matching.
//
// Must be called with the book lock held.
func FindCounterparty(book *OrderBook, o *domain.Order) (*domain.Order, bool) {
	entry, found := book.BestOpponent(o.Side)
	if !found || !o.Crosses(entry.Price) {
		return nil, false
	}
	return entry.Order, true
}
