package service

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/engine"
	"github.com/cofleet/exchange/internal/snapshot"
	"github.com/cofleet/exchange/internal/store"
)

var orderSymbolRegex = regexp.MustCompile(`^[A-Z]{1,10}$`)

// PlaceOrderRequest represents the input for order placement. Price is
// in euros; it is required for BUY/SELL and must be absent for RFQ.
type PlaceOrderRequest struct {
	OwnerID  string
	Symbol   string
	Side     domain.Side
	Quantity int64
	Price    *float64
}

// MatchResult summarizes one matching pass.
type MatchResult struct {
	ExecutedQty int64
	Trades      []*domain.Trade
}

// TradingService handles order placement, cancellation, continuous
// matching, the administrative status annotation, and viewer-projected
// order queries.
type TradingService struct {
	books       *engine.BookManager
	matcher     *engine.Matcher
	orders      *store.OrderStore
	ledger      *store.TradeLedger
	volumes     *store.VolumeCache
	directory   domain.Directory
	instruments *domain.InstrumentRegistry
	notifier    Notifier
	snapshots   snapshot.Writer
	logger      *slog.Logger
}

// NewTradingService creates a TradingService with the given dependencies.
func NewTradingService(
	books *engine.BookManager,
	matcher *engine.Matcher,
	orders *store.OrderStore,
	ledger *store.TradeLedger,
	volumes *store.VolumeCache,
	directory domain.Directory,
	instruments *domain.InstrumentRegistry,
	notifier Notifier,
	snapshots snapshot.Writer,
	logger *slog.Logger,
) *TradingService {
	return &TradingService{
		books:       books,
		matcher:     matcher,
		orders:      orders,
		ledger:      ledger,
		volumes:     volumes,
		directory:   directory,
		instruments: instruments,
		notifier:    notifier,
		snapshots:   snapshots,
		logger:      logger,
	}
}

// PlaceOrder validates the request, resolves the owner, inserts the
// order (status OPEN) and, for an RFQ, broadcasts the request to the
// instrument desk's trader contacts.
func (s *TradingService) PlaceOrder(req PlaceOrderRequest) (*domain.Order, error) {
	switch req.Side {
	case domain.SideBuy, domain.SideSell, domain.SideRFQ:
	default:
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("side must be one of: BUY, SELL, RFQ (got %q)", req.Side),
		}
	}
	if !orderSymbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{Message: "symbol must match ^[A-Z]{1,10}$"}
	}
	if req.Quantity <= 0 {
		return nil, &domain.ValidationError{Message: "quantity must be a positive integer"}
	}

	var priceCents int64
	if req.Side == domain.SideRFQ {
		if req.Price != nil {
			return nil, &domain.ValidationError{Message: "RFQ orders must not include price"}
		}
	} else {
		if req.Price == nil {
			return nil, &domain.ValidationError{Message: "price is required for BUY and SELL orders"}
		}
		if *req.Price <= 0 {
			return nil, &domain.ValidationError{Message: "price must be greater than 0"}
		}
		cents, err := domain.EurosToCents(*req.Price)
		if err != nil {
			return nil, &domain.ValidationError{Message: "price must have at most 2 decimal places"}
		}
		priceCents = cents
	}

	owner, err := s.directory.Resolve(req.OwnerID)
	if err != nil {
		return nil, err
	}
	inst := s.instruments.Ensure(req.Symbol)

	order := &domain.Order{
		ID:           uuid.New().String(),
		Symbol:       req.Symbol,
		Side:         req.Side,
		Quantity:     req.Quantity,
		Price:        priceCents,
		Status:       domain.OrderStatusOpen,
		OwnerID:      owner.ID,
		Owner:        owner.Name,
		OwnerCompany: ownerCompany(owner),
		CreatedAt:    time.Now(),
	}
	if order.Side == domain.SideRFQ {
		order.Quotes = make(map[string]*domain.Quote)
	}

	book := s.books.GetOrCreate(order.Symbol)
	book.Lock()
	s.orders.Place(order)
	book.Insert(order)
	book.Unlock()

	if order.Side == domain.SideRFQ {
		s.broadcastRFQ(order, inst)
	}

	publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
	return order, nil
}

// ownerCompany falls back to the display name when the directory has no
// company on record.
func ownerCompany(p *domain.Participant) string {
	if p.Company != "" {
		return p.Company
	}
	return p.Name
}

// broadcastRFQ notifies the desk's trader contacts that a new request
// for quote is open. Blind bidding: the message names the instrument,
// never the requester.
func (s *TradingService) broadcastRFQ(order *domain.Order, inst domain.Instrument) {
	contacts := s.directory.DeskContacts(inst.Desk)
	recipients := make([]string, 0, len(contacts))
	for _, c := range contacts {
		recipients = append(recipients, c.Email)
	}

	today := time.Now().Format("2006-01-02")
	subject := fmt.Sprintf("[Cofleet] RFQ Notification (%s)", today)
	body := fmt.Sprintf(
		"An RFQ has been received.\n\nSymbol: %s\nQuantity: %d\n\nPlease sign in to Cofleet with your issued ID to submit a quote.",
		order.Symbol, order.Quantity,
	)
	s.notifier.Notify(recipients, subject, body)
}

// CancelOrder soft-deletes a live order and removes it from the book.
// The record is retained (status DELETED) for administrative audit.
func (s *TradingService) CancelOrder(id string) (*domain.Order, error) {
	order, err := s.orders.Get(id)
	if err != nil {
		return nil, err
	}

	book := s.books.GetOrCreate(order.Symbol)
	book.Lock()
	order, err = s.orders.Cancel(id)
	if err != nil {
		book.Unlock()
		return nil, err
	}
	book.Remove(id)
	book.Unlock()

	publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
	return order, nil
}

// MatchOrder runs the continuous matching pass for an aggressor order.
func (s *TradingService) MatchOrder(id string) (*MatchResult, error) {
	trades, err := s.matcher.Match(id)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{Trades: trades}
	for _, t := range trades {
		result.ExecutedQty += t.Quantity
	}

	if len(trades) > 0 {
		publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
	}
	return result, nil
}

// Annotate records an administrative override note on an order. The
// note is an auxiliary annotation for settlement-desk tracking; the
// status state machine is untouched.
func (s *TradingService) Annotate(id, note string) (*domain.Order, error) {
	order, err := s.orders.Get(id)
	if err != nil {
		return nil, err
	}

	book := s.books.GetOrCreate(order.Symbol)
	book.Lock()
	order.Annotation = note
	book.Unlock()

	s.logger.Info("order annotated",
		slog.String("order_id", id),
		slog.String("annotation", note),
	)
	publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
	return order, nil
}

// QueryOrders returns the orders for a symbol as seen by viewerID,
// after visibility projection. An unresolved viewer sees nothing.
func (s *TradingService) QueryOrders(symbol, viewerID string) []*domain.Order {
	viewer := Viewer{}
	if p, err := s.directory.Resolve(viewerID); err == nil {
		viewer = Viewer{ID: p.ID, Name: p.Name, Role: p.Role, Known: true}
	}

	return ProjectOrders(s.orders.List(symbol), viewer)
}
