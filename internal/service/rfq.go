package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/engine"
	"github.com/cofleet/exchange/internal/snapshot"
	"github.com/cofleet/exchange/internal/store"
)

// RFQService manages the quote-and-accept protocol on RFQ orders.
type RFQService struct {
	books       *engine.BookManager
	orders      *store.OrderStore
	ledger      *store.TradeLedger
	volumes     *store.VolumeCache
	directory   domain.Directory
	instruments *domain.InstrumentRegistry
	notifier    Notifier
	snapshots   snapshot.Writer
	logger      *slog.Logger
}

// NewRFQService creates an RFQService with the given dependencies.
func NewRFQService(
	books *engine.BookManager,
	orders *store.OrderStore,
	ledger *store.TradeLedger,
	volumes *store.VolumeCache,
	directory domain.Directory,
	instruments *domain.InstrumentRegistry,
	notifier Notifier,
	snapshots snapshot.Writer,
	logger *slog.Logger,
) *RFQService {
	return &RFQService{
		books:       books,
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

// SubmitQuote inserts or overwrites the trader's private quote on an
// open RFQ order. Only participants the directory resolves to a TRADER
// role may quote.
func (s *RFQService) SubmitQuote(orderID, traderID string, price float64) (*domain.Quote, error) {
	if price <= 0 {
		return nil, &domain.ValidationError{Message: "price must be greater than 0"}
	}
	cents, err := domain.EurosToCents(price)
	if err != nil {
		return nil, &domain.ValidationError{Message: "price must have at most 2 decimal places"}
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		return nil, err
	}

	// Read-only directory lookup, before the lock.
	trader, err := s.directory.Resolve(traderID)
	if err != nil || trader.Role != domain.RoleTrader {
		return nil, domain.ErrForbidden
	}

	book := s.books.GetOrCreate(order.Symbol)
	book.Lock()
	if order.Side != domain.SideRFQ || order.Status != domain.OrderStatusOpen || order.Deleted {
		book.Unlock()
		return nil, domain.ErrInvalidState
	}
	quote := &domain.Quote{
		Price:       cents,
		TraderName:  trader.Name,
		SubmittedAt: time.Now(),
	}
	if order.Quotes == nil {
		order.Quotes = make(map[string]*domain.Quote)
	}
	order.Quotes[traderID] = quote
	book.Unlock()

	publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
	return quote, nil
}

// AcceptQuote accepts a trader's quote on an open RFQ order: one
// RFQ_MATCH trade is written at the quote's price for the order's full
// quantity, the order moves to PROCESSING, and the accepted trader's
// settlement contact is notified with both counterparties' details.
//
// The accepting party's contact phone, when provided, is persisted via
// the directory after the transition has committed.
func (s *RFQService) AcceptQuote(orderID, traderID, phone string) (*domain.Trade, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return nil, err
	}

	book := s.books.GetOrCreate(order.Symbol)
	book.Lock()
	quote, ok := order.Quotes[traderID]
	if !ok {
		book.Unlock()
		return nil, domain.ErrQuoteNotFound
	}
	if order.Status != domain.OrderStatusOpen || order.Deleted {
		book.Unlock()
		return nil, domain.ErrInvalidState
	}

	trade := &domain.Trade{
		ID:          uuid.New().String(),
		ExecutedAt:  time.Now(),
		Symbol:      order.Symbol,
		Kind:        domain.TradeKindRFQMatch,
		Quantity:    order.Quantity,
		Price:       quote.Price,
		Buyer:       order.Owner,
		Seller:      quote.TraderName,
		AggressorID: order.ID,
	}
	s.ledger.Append(trade)

	order.Status = domain.OrderStatusProcessing
	order.FilledPrice = quote.Price
	order.FilledBy = quote.TraderName
	order.FilledByID = traderID
	book.Unlock()

	// Committed. External side effects only from here on.
	if phone != "" {
		if err := s.directory.SetPhone(order.OwnerID, phone); err != nil {
			s.logger.Error("failed to persist contact phone",
				slog.String("participant_id", order.OwnerID),
				slog.String("error", err.Error()),
			)
		}
	}
	s.notifyAccepted(order, quote, traderID, phone)

	publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
	return trade, nil
}

// notifyAccepted tells the winning trader's settlement contact that
// their quote was accepted, with the accepting party's resolved
// contact details.
func (s *RFQService) notifyAccepted(order *domain.Order, quote *domain.Quote, traderID, phone string) {
	trader, err := s.directory.Resolve(traderID)
	if err != nil || trader.Email == "" {
		s.logger.Warn("no settlement contact for accepted quote",
			slog.String("order_id", order.ID),
			slog.String("trader_id", traderID),
		)
		return
	}

	buyerCompany := order.OwnerCompany
	buyerName := order.Owner
	buyerEmail := "-"
	buyerPhone := phone
	if buyer, err := s.directory.Resolve(order.OwnerID); err == nil {
		buyerCompany = buyer.Company
		buyerName = buyer.Name
		buyerEmail = buyer.Email
		if buyer.Phone != "" {
			buyerPhone = buyer.Phone
		}
	}
	if buyerPhone == "" {
		buyerPhone = "Not Provided"
	}

	subject := "[Cofleet] Quote Accepted - Action Required"
	body := fmt.Sprintf(`Dear Trader,

Your quote has been accepted.

Transaction Details:
- Symbol: %s
- Quantity: %d
- Price: EUR %s

Buyer Details:
- Company: %s
- Name: %s
- Email: %s
- Phone: %s

Please proceed with the transaction.`,
		order.Symbol, order.Quantity, domain.FormatCents(quote.Price),
		buyerCompany, buyerName, buyerEmail, buyerPhone,
	)
	s.notifier.Notify([]string{trader.Email}, subject, body)
}

// CompleteOrder finishes a settled RFQ or negotiated order:
// PROCESSING → FILLED.
func (s *RFQService) CompleteOrder(orderID string) (*domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return nil, err
	}

	book := s.books.GetOrCreate(order.Symbol)
	book.Lock()
	if order.Status != domain.OrderStatusProcessing {
		book.Unlock()
		return nil, domain.ErrInvalidState
	}
	order.Status = domain.OrderStatusFilled
	book.Unlock()

	publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
	return order, nil
}
