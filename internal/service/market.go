package service

import (
	"time"

	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/engine"
	"github.com/cofleet/exchange/internal/store"
)

// DepthResponse is the aggregated order-book view for a symbol.
type DepthResponse struct {
	Symbol     string
	Buys       []engine.PriceLevel
	Sells      []engine.PriceLevel
	Spread     *int64 // nil if either side empty
	SnapshotAt time.Time
}

// PriceResponse is the reference-price view for a symbol: VWAP over
// the configured window, falling back to the last executed price.
type PriceResponse struct {
	Symbol         string
	CurrentPrice   *int64 // nil when no trades ever
	TradesInWindow int
	LastTradeAt    *time.Time
}

// MarketService serves the read side: trade history, executed-volume
// buckets, book depth, and reference prices.
type MarketService struct {
	books      *engine.BookManager
	ledger     *store.TradeLedger
	volumes    *store.VolumeCache
	vwapWindow time.Duration
	depth      int
}

// NewMarketService creates a MarketService.
func NewMarketService(
	books *engine.BookManager,
	ledger *store.TradeLedger,
	volumes *store.VolumeCache,
	vwapWindow time.Duration,
	depth int,
) *MarketService {
	return &MarketService{
		books:      books,
		ledger:     ledger,
		volumes:    volumes,
		vwapWindow: vwapWindow,
		depth:      depth,
	}
}

// History returns executed trades newest first, optionally filtered by
// symbol.
func (s *MarketService) History(symbol string) []*domain.Trade {
	return s.ledger.List(symbol)
}

// Volumes returns the executed-volume buckets for a symbol, keyed by
// the 2-decimal price string.
func (s *MarketService) Volumes(symbol string) map[string]int64 {
	buckets := s.volumes.BySymbol(symbol)
	result := make(map[string]int64, len(buckets))
	for price, qty := range buckets {
		result[domain.FormatCents(price)] = qty
	}
	return result
}

// Depth returns up to the configured number of aggregated price levels
// per side, plus the spread when both sides have liquidity.
func (s *MarketService) Depth(symbol string) *DepthResponse {
	book := s.books.GetOrCreate(symbol)
	book.Lock()
	defer book.Unlock()

	resp := &DepthResponse{
		Symbol:     symbol,
		Buys:       book.TopBuys(s.depth),
		Sells:      book.TopSells(s.depth),
		SnapshotAt: time.Now(),
	}
	if len(resp.Buys) > 0 && len(resp.Sells) > 0 {
		spread := resp.Sells[0].Price - resp.Buys[0].Price
		resp.Spread = &spread
	}
	return resp
}

// Price computes the VWAP of trades inside the window, falling back to
// the most recent execution when the window is empty.
func (s *MarketService) Price(symbol string) *PriceResponse {
	trades := s.ledger.List(symbol) // newest first
	resp := &PriceResponse{Symbol: symbol}
	if len(trades) == 0 {
		return resp
	}

	last := trades[0]
	resp.LastTradeAt = &last.ExecutedAt

	windowStart := time.Now().Add(-s.vwapWindow)
	var sumPriceQty, sumQty int64
	for _, t := range trades {
		if t.ExecutedAt.Before(windowStart) {
			break
		}
		sumPriceQty += t.Price * t.Quantity
		sumQty += t.Quantity
		resp.TradesInWindow++
	}

	if sumQty > 0 {
		vwap := sumPriceQty / sumQty
		resp.CurrentPrice = &vwap
	} else {
		price := last.Price
		resp.CurrentPrice = &price
	}
	return resp
}
