package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/engine"
	"github.com/cofleet/exchange/internal/snapshot"
	"github.com/cofleet/exchange/internal/store"
)

// NegotiationService runs the two-phase request/agree handshake used
// where continuous matching is unsuitable. No trade record is written
// and no quantity changes hands here: mutual agreement moves both
// linked orders to PROCESSING and settlement is handed off to the desk.
type NegotiationService struct {
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

// NewNegotiationService creates a NegotiationService with the given
// dependencies.
func NewNegotiationService(
	books *engine.BookManager,
	orders *store.OrderStore,
	ledger *store.TradeLedger,
	volumes *store.VolumeCache,
	directory domain.Directory,
	instruments *domain.InstrumentRegistry,
	notifier Notifier,
	snapshots snapshot.Writer,
	logger *slog.Logger,
) *NegotiationService {
	return &NegotiationService{
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

// RequestTransaction selects the best-priced eligible counterparty for
// an open order and links the pair: the initiator moves to REQUESTING,
// the counterparty to REQUESTED, both gaining reciprocal link ids.
// Both transitions happen under the one per-symbol lock, so the pair
// update is atomic. The desk settlement contact is notified with both
// parties' details and the proposed quantity and price.
func (s *NegotiationService) RequestTransaction(orderID string) (*domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return nil, err
	}

	book := s.books.GetOrCreate(order.Symbol)
	book.Lock()
	if order.Status != domain.OrderStatusOpen || order.Deleted {
		book.Unlock()
		return nil, domain.ErrInvalidState
	}

	counterparty, found := engine.FindCounterparty(book, order)
	if !found {
		book.Unlock()
		return nil, domain.ErrNoMatch
	}

	order.Status = domain.OrderStatusRequesting
	order.LinkedOrderID = counterparty.ID
	counterparty.Status = domain.OrderStatusRequested
	counterparty.LinkedOrderID = order.ID

	// Neither order is OPEN anymore; both leave the book.
	book.Remove(order.ID)
	book.Remove(counterparty.ID)
	book.Unlock()

	s.notifyHandshake(order, counterparty,
		"A transaction has been requested. Please proceed with the trade quantity.",
		order.Quantity, order.Price)

	publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
	return counterparty, nil
}

// AgreeTransaction is the counterparty's second-phase confirmation.
// The order must be REQUESTED and its linked order still REQUESTING;
// otherwise the order rolls back to OPEN with the link cleared and the
// call fails with ErrStaleLink. On success both orders move to
// PROCESSING and the mutual-agreement notification is sent.
func (s *NegotiationService) AgreeTransaction(orderID string) (*domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return nil, err
	}

	book := s.books.GetOrCreate(order.Symbol)
	book.Lock()
	if order.Status != domain.OrderStatusRequested || order.Deleted {
		book.Unlock()
		return nil, domain.ErrInvalidState
	}

	initiator, err := s.orders.Get(order.LinkedOrderID)
	if err != nil || initiator.Status != domain.OrderStatusRequesting || initiator.Deleted {
		// The partner moved on (cancelled or relinked); roll this
		// order back to the book and report the stale link.
		order.Status = domain.OrderStatusOpen
		order.LinkedOrderID = ""
		book.Insert(order)
		book.Unlock()

		publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
		return nil, domain.ErrStaleLink
	}

	order.Status = domain.OrderStatusProcessing
	initiator.Status = domain.OrderStatusProcessing
	book.Unlock()

	// The agreed quantity is whatever both sides can cover; the
	// reported price is the confirming order's resting price.
	qty := order.Quantity
	if initiator.Quantity < qty {
		qty = initiator.Quantity
	}
	s.notifyHandshake(order, initiator,
		"Both parties have requested the transaction. Please proceed.\nStatus: MUTUALLY AGREED (PROCESSING)",
		qty, order.Price)

	publishSnapshot(s.orders, s.ledger, s.volumes, s.snapshots)
	return initiator, nil
}

// notifyHandshake sends the settlement desk both parties' resolved
// contact details plus the proposed quantity and price.
func (s *NegotiationService) notifyHandshake(a, b *domain.Order, headline string, qty, price int64) {
	buyOrder, sellOrder := a, b
	if a.Side == domain.SideSell {
		buyOrder, sellOrder = b, a
	}

	inst := s.instruments.Ensure(a.Symbol)
	contacts := s.directory.DeskContacts(inst.Desk)
	recipients := make([]string, 0, len(contacts))
	for _, c := range contacts {
		recipients = append(recipients, c.Email)
	}

	today := time.Now().Format("2006-01-02")
	subject := fmt.Sprintf("[Cofleet] %s Trading (%s)", inst.Desk, today)
	body := fmt.Sprintf(`%s

[Buy Side]
%s
[Sell Side]
%s
Quantity: %d
Price: EUR %s`,
		headline,
		s.partyDetails(buyOrder),
		s.partyDetails(sellOrder),
		qty, domain.FormatCents(price),
	)
	s.notifier.Notify(recipients, subject, body)
}

// partyDetails renders one side's contact block, preferring the
// directory record over the order's denormalized display values.
func (s *NegotiationService) partyDetails(o *domain.Order) string {
	company, name, email, phone := o.OwnerCompany, o.Owner, "-", "-"
	if p, err := s.directory.Resolve(o.OwnerID); err == nil {
		company, name = p.Company, p.Name
		if p.Email != "" {
			email = p.Email
		}
		if p.Phone != "" {
			phone = p.Phone
		}
	}
	return fmt.Sprintf("Company: %s\nName: %s\nEmail: %s\nPhone: %s\n", company, name, email, phone)
}
