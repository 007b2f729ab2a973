package service

import (
	"io"
	"log/slog"
	"sync"

	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/engine"
	"github.com/cofleet/exchange/internal/snapshot"
	"github.com/cofleet/exchange/internal/store"
)

type sentMessage struct {
	Recipients []string
	Subject    string
	Body       string
}

// recordingNotifier captures outbound notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Notify(recipients []string, subject, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{Recipients: recipients, Subject: subject, Body: body})
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type fixture struct {
	books       *engine.BookManager
	orders      *store.OrderStore
	ledger      *store.TradeLedger
	volumes     *store.VolumeCache
	directory   *store.Directory
	instruments *domain.InstrumentRegistry
	notifier    *recordingNotifier
	trading     *TradingService
	rfq         *RFQService
	negotiation *NegotiationService
}

// newFixture wires the full service stack against in-memory stores and
// a seeded participant directory.
func newFixture() *fixture {
	f := &fixture{
		books:       engine.NewBookManager(),
		orders:      store.NewOrderStore(),
		ledger:      store.NewTradeLedger(),
		volumes:     store.NewVolumeCache(),
		directory:   store.NewDirectory(),
		instruments: domain.NewInstrumentRegistry("ETS"),
		notifier:    &recordingNotifier{},
	}

	f.instruments.Register(domain.Instrument{Symbol: "EUA", Desk: "ETS"})
	f.instruments.Register(domain.Instrument{Symbol: "FEM", Desk: "FuelEU", Negotiated: true})

	f.directory.Upsert(&domain.Participant{
		ID: "alice", Name: "Alice Ahlgren", Company: "Nordic Shipping AS",
		Email: "alice@nordic.example", Role: domain.RoleUser,
	})
	f.directory.Upsert(&domain.Participant{
		ID: "dave", Name: "Dave Dekker", Company: "Rotterdam Bunkering BV",
		Email: "dave@rotterdam.example", Role: domain.RoleUser,
	})
	f.directory.Upsert(&domain.Participant{
		ID: "bob", Name: "Bob Berg", Company: "Carbon Desk Ltd",
		Email: "bob@desk.example", Role: domain.RoleTrader, Desk: "ETS",
	})
	f.directory.Upsert(&domain.Participant{
		ID: "carol", Name: "Carol Chen", Company: "Carbon Desk Ltd",
		Email: "carol@desk.example", Role: domain.RoleTrader, Desk: "ETS",
	})
	f.directory.Upsert(&domain.Participant{
		ID: "erik", Name: "Erik Eide", Company: "FuelEU Desk",
		Email: "erik@desk.example", Role: domain.RoleTrader, Desk: "FuelEU",
	})
	f.directory.Upsert(&domain.Participant{
		ID: "root", Name: "Site Admin", Company: "Cofleet",
		Email: "admin@cofleet.example", Role: domain.RoleAdmin,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	matcher := engine.NewMatcher(f.books, f.orders, f.ledger, f.volumes)

	f.trading = NewTradingService(f.books, matcher, f.orders, f.ledger, f.volumes,
		f.directory, f.instruments, f.notifier, snapshot.Nop{}, logger)
	f.rfq = NewRFQService(f.books, f.orders, f.ledger, f.volumes,
		f.directory, f.instruments, f.notifier, snapshot.Nop{}, logger)
	f.negotiation = NewNegotiationService(f.books, f.orders, f.ledger, f.volumes,
		f.directory, f.instruments, f.notifier, snapshot.Nop{}, logger)
	return f
}

func euros(v float64) *float64 { return &v }

// mustPlace places an order through the service and fails the fixture's
// caller on error.
func (f *fixture) mustPlace(req PlaceOrderRequest) *domain.Order {
	order, err := f.trading.PlaceOrder(req)
	if err != nil {
		panic(err)
	}
	return order
}
