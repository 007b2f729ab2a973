package engine

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/cofleet/exchange/internal/domain"
)

// Fill conservation: the total matched quantity equals the smaller of
// the aggressor's quantity and the total crossing opponent quantity,
// and the aggressor's remainder accounts for every fill.
func TestProperty_FillConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, orders, _, _, books := newTestMatcher()

		aggressorPrice := rapid.Int64Range(1, 10000).Draw(t, "aggressorPrice")
		aggressorQty := rapid.Int64Range(1, 500).Draw(t, "aggressorQty")

		n := rapid.IntRange(0, 8).Draw(t, "numOpponents")
		var eligibleQty int64
		for i := 0; i < n; i++ {
			price := rapid.Int64Range(1, 10000).Draw(t, "opponentPrice")
			qty := rapid.Int64Range(1, 200).Draw(t, "opponentQty")
			place(orders, books, "seller", domain.SideSell, "EUA", price, qty)
			if price <= aggressorPrice {
				eligibleQty += qty
			}
		}

		buy := place(orders, books, "buyer", domain.SideBuy, "EUA", aggressorPrice, aggressorQty)
		trades, err := m.Match(buy.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var filled int64
		for _, tr := range trades {
			filled += tr.Quantity
		}

		want := aggressorQty
		if eligibleQty < want {
			want = eligibleQty
		}
		if filled != want {
			t.Fatalf("filled %d, want min(aggressor=%d, eligible=%d)=%d", filled, aggressorQty, eligibleQty, want)
		}

		remainder := aggressorQty - filled
		_, err = orders.Get(buy.ID)
		if remainder == 0 && err == nil {
			t.Fatal("fully consumed aggressor must be removed")
		}
		if remainder > 0 {
			if err != nil {
				t.Fatal("partially filled aggressor must remain in the store")
			}
			if buy.Quantity != remainder {
				t.Fatalf("aggressor quantity %d, want remainder %d", buy.Quantity, remainder)
			}
		}
	})
}

// Price crossing: a BUY aggressor never trades above its limit, a SELL
// aggressor never below it, and every fill is at a resting price.
func TestProperty_TradesNeverViolateLimitPrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, orders, _, _, books := newTestMatcher()

		side := domain.SideBuy
		if rapid.Bool().Draw(t, "sellAggressor") {
			side = domain.SideSell
		}
		limit := rapid.Int64Range(1, 10000).Draw(t, "limit")
		qty := rapid.Int64Range(1, 500).Draw(t, "qty")

		opposite, _ := side.Opposite()
		restingPrices := make(map[int64]bool)
		n := rapid.IntRange(0, 8).Draw(t, "numOpponents")
		for i := 0; i < n; i++ {
			price := rapid.Int64Range(1, 10000).Draw(t, "price")
			oppQty := rapid.Int64Range(1, 200).Draw(t, "oppQty")
			place(orders, books, "resting", opposite, "EUA", price, oppQty)
			restingPrices[price] = true
		}

		aggressor := place(orders, books, "aggressor", side, "EUA", limit, qty)
		trades, err := m.Match(aggressor.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, tr := range trades {
			if side == domain.SideBuy && tr.Price > limit {
				t.Fatalf("BUY limit %d violated by fill at %d", limit, tr.Price)
			}
			if side == domain.SideSell && tr.Price < limit {
				t.Fatalf("SELL limit %d violated by fill at %d", limit, tr.Price)
			}
			if !restingPrices[tr.Price] {
				t.Fatalf("fill at %d does not correspond to any resting price", tr.Price)
			}
		}
	})
}

// The book never ends a matching pass crossed: after matching, the
// best buy is strictly below the best sell.
func TestProperty_BookUncrossedAfterMatch(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, orders, _, _, books := newTestMatcher()

		n := rapid.IntRange(1, 6).Draw(t, "numOrders")
		var last *domain.Order
		for i := 0; i < n; i++ {
			side := domain.SideBuy
			if rapid.Bool().Draw(t, "sell") {
				side = domain.SideSell
			}
			price := rapid.Int64Range(1, 100).Draw(t, "price")
			qty := rapid.Int64Range(1, 50).Draw(t, "qty")
			last = place(orders, books, "p", side, "EUA", price, qty)
			if _, err := m.Match(last.ID); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		book := books.GetOrCreate("EUA")
		bestBuy, hasBuy := book.BestOpponent(domain.SideSell)
		bestSell, hasSell := book.BestOpponent(domain.SideBuy)
		if hasBuy && hasSell && bestBuy.Price >= bestSell.Price {
			t.Fatalf("book crossed: best buy %d >= best sell %d", bestBuy.Price, bestSell.Price)
		}
	})
}
