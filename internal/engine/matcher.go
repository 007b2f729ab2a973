package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/store"
)

// Matcher implements continuous matching for BUY and SELL orders.
type Matcher struct {
	books   *BookManager
	orders  *store.OrderStore
	ledger  *store.TradeLedger
	volumes *store.VolumeCache
}

// NewMatcher creates a Matcher over the given state.
func NewMatcher(
	books *BookManager,
	orders *store.OrderStore,
	ledger *store.TradeLedger,
	volumes *store.VolumeCache,
) *Matcher {
	return &Matcher{
		books:   books,
		orders:  orders,
		ledger:  ledger,
		volumes: volumes,
	}
}

// Match executes the aggressor order against resting opponents of the
// opposite side on the same symbol. Opponents are walked best price
// first; each fill executes at the opponent's resting price, so the
// aggressor trades at whatever the book already offered.
//
// A fully consumed order — aggressor or opponent — is removed from the
// store outright rather than kept at zero quantity. A partially
// consumed aggressor stays live with the unmatched remainder at its
// original limit price.
//
// Returns domain.ErrOrderNotFound for an unknown id. Everything else
// succeeds: an aggressor with no eligible opponents (including one that
// is no longer open, or an RFQ order) yields zero trades.
//
// The per-symbol book lock is held for the entire matching pass, and
// each trade updates the trade ledger and the volume cache inside it.
func (m *Matcher) Match(aggressorID string) ([]*domain.Trade, error) {
	order, err := m.orders.Get(aggressorID)
	if err != nil {
		return nil, err
	}

	book := m.books.GetOrCreate(order.Symbol)
	book.Lock()
	defer book.Unlock()

	if !order.Matchable() {
		return nil, nil
	}

	executedAt := time.Now()
	remaining := order.Quantity
	var trades []*domain.Trade

	for remaining > 0 {
		entry, found := book.BestOpponent(order.Side)
		if !found {
			break
		}
		if !order.Crosses(entry.Price) {
			break
		}

		opponent := entry.Order

		fillQty := remaining
		if opponent.Quantity < fillQty {
			fillQty = opponent.Quantity
		}
		execPrice := opponent.Price

		trade := &domain.Trade{
			ID:          uuid.New().String(),
			ExecutedAt:  executedAt,
			Symbol:      order.Symbol,
			Kind:        domain.TradeKindMatch,
			Quantity:    fillQty,
			Price:       execPrice,
			AggressorID: order.ID,
		}
		if order.Side == domain.SideBuy {
			trade.Buyer = order.Owner
			trade.Seller = opponent.Owner
		} else {
			trade.Buyer = opponent.Owner
			trade.Seller = order.Owner
		}

		trades = append(trades, trade)
		m.ledger.Append(trade)
		m.volumes.Record(order.Symbol, execPrice, fillQty)

		if opponent.Quantity <= fillQty {
			book.Remove(opponent.ID)
			m.orders.Remove(opponent.ID)
		} else {
			opponent.Quantity -= fillQty
		}
		remaining -= fillQty
	}

	if remaining <= 0 {
		book.Remove(order.ID)
		m.orders.Remove(order.ID)
	} else {
		order.Quantity = remaining
	}

	return trades, nil
}
