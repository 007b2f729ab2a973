package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/engine"
	"github.com/cofleet/exchange/internal/service"
	"github.com/cofleet/exchange/internal/snapshot"
	"github.com/cofleet/exchange/internal/store"
)

type nopNotifier struct{}

func (nopNotifier) Notify([]string, string, string) {}

// newTestRouter wires the full stack against in-memory stores.
func newTestRouter() chi.Router {
	books := engine.NewBookManager()
	orders := store.NewOrderStore()
	ledger := store.NewTradeLedger()
	volumes := store.NewVolumeCache()
	directory := store.NewDirectory()
	instruments := domain.NewInstrumentRegistry("ETS")
	instruments.Register(domain.Instrument{Symbol: "EUA", Desk: "ETS"})

	directory.Upsert(&domain.Participant{
		ID: "alice", Name: "Alice Ahlgren", Company: "Nordic Shipping AS",
		Email: "alice@nordic.example", Role: domain.RoleUser,
	})
	directory.Upsert(&domain.Participant{
		ID: "dave", Name: "Dave Dekker", Company: "Rotterdam Bunkering BV",
		Email: "dave@rotterdam.example", Role: domain.RoleUser,
	})
	directory.Upsert(&domain.Participant{
		ID: "bob", Name: "Bob Berg", Company: "Carbon Desk Ltd",
		Email: "bob@desk.example", Role: domain.RoleTrader, Desk: "ETS",
	})
	directory.Upsert(&domain.Participant{
		ID: "root", Name: "Site Admin", Company: "Cofleet",
		Email: "admin@cofleet.example", Role: domain.RoleAdmin,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	matcher := engine.NewMatcher(books, orders, ledger, volumes)

	tradingSvc := service.NewTradingService(books, matcher, orders, ledger, volumes,
		directory, instruments, nopNotifier{}, snapshot.Nop{}, logger)
	rfqSvc := service.NewRFQService(books, orders, ledger, volumes,
		directory, instruments, nopNotifier{}, snapshot.Nop{}, logger)
	negotiationSvc := service.NewNegotiationService(books, orders, ledger, volumes,
		directory, instruments, nopNotifier{}, snapshot.Nop{}, logger)
	marketSvc := service.NewMarketService(books, ledger, volumes, 5*time.Minute, 10)

	return NewRouter(tradingSvc, rfqSvc, negotiationSvc, marketSvc, logger)
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealthz(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status %d, want 200", rec.Code)
	}
}

func TestPlaceOrderEndpoint(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "BUY",
		"quantity": 5000, "price": 85.5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	order, ok := body["order"].(map[string]any)
	if !ok {
		t.Fatalf("missing order in response: %v", body)
	}
	if order["price"] != 85.5 {
		t.Errorf("price %v, want 85.5", order["price"])
	}
	if order["status"] != "OPEN" {
		t.Errorf("status %v, want OPEN", order["status"])
	}
	if order["id"] == "" {
		t.Error("order id missing")
	}
}

func TestPlaceOrderEndpoint_Validation(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "BUY", "quantity": -1, "price": 85.5,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative quantity: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "ghost", "symbol": "EUA", "side": "BUY", "quantity": 10, "price": 85.5,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown owner: status %d, want 404", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte(`{}`)))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("missing content type: status %d, want 400", rec2.Code)
	}
}

func TestMatchEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "dave", "symbol": "EUA", "side": "SELL", "quantity": 2000, "price": 85.5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sell placement failed: %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "BUY", "quantity": 5000, "price": 86.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy placement failed: %s", rec.Body.String())
	}
	buyID := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/orders/match", map[string]any{"order_id": buyID})
	if rec.Code != http.StatusOK {
		t.Fatalf("match failed: %s", rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["executed_qty"] != float64(2000) {
		t.Errorf("executed_qty %v, want 2000", body["executed_qty"])
	}

	rec = doJSON(t, router, http.MethodGet, "/trades?symbol=EUA", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trades failed: %s", rec.Body.String())
	}
	var trades []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &trades); err != nil {
		t.Fatalf("invalid trades response: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0]["price"] != 85.5 {
		t.Errorf("trade price %v, want the resting 85.5", trades[0]["price"])
	}

	rec = doJSON(t, router, http.MethodGet, "/instruments/EUA/volumes", nil)
	vols, ok := decodeBody(t, rec)["volumes"].(map[string]any)
	if !ok {
		t.Fatalf("missing volumes in response: %s", rec.Body.String())
	}
	if vols["85.50"] != float64(2000) {
		t.Errorf(`volume bucket "85.50" = %v, want 2000`, vols["85.50"])
	}
}

func TestRFQFlowEndpoints(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "RFQ", "quantity": 1000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("RFQ placement failed: %s", rec.Body.String())
	}
	orderID := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/rfq/quotes", map[string]any{
		"order_id": orderID, "trader_id": "bob", "price": 95.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("quote failed: %s", rec.Body.String())
	}

	// A plain user may not quote.
	rec = doJSON(t, router, http.MethodPost, "/rfq/quotes", map[string]any{
		"order_id": orderID, "trader_id": "dave", "price": 94.0,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("user quoting: status %d, want 403", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/rfq/accept", map[string]any{
		"order_id": orderID, "trader_id": "bob", "phone": "+47 555 0100",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("accept failed: %s", rec.Body.String())
	}
	trade := decodeBody(t, rec)["trade"].(map[string]any)
	if trade["kind"] != "RFQ_MATCH" {
		t.Errorf("trade kind %v, want RFQ_MATCH", trade["kind"])
	}
	if trade["price"] != 95.0 {
		t.Errorf("trade price %v, want 95.0", trade["price"])
	}

	rec = doJSON(t, router, http.MethodPost, "/rfq/complete", map[string]any{"order_id": orderID})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete failed: %s", rec.Body.String())
	}

	// Settled; no further quotes.
	rec = doJSON(t, router, http.MethodPost, "/rfq/quotes", map[string]any{
		"order_id": orderID, "trader_id": "bob", "price": 93.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("quoting a FILLED order: status %d, want 400", rec.Code)
	}
}

func TestListOrdersEndpoint_ViewerProjection(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "RFQ", "quantity": 1000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("RFQ placement failed: %s", rec.Body.String())
	}

	listOrders := func(viewer string) []map[string]any {
		rec := doJSON(t, router, http.MethodGet, "/orders?symbol=EUA&viewer_id="+viewer, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list failed: %s", rec.Body.String())
		}
		var orders []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &orders); err != nil {
			t.Fatalf("invalid list response: %v", err)
		}
		return orders
	}

	if got := listOrders("ghost"); len(got) != 0 {
		t.Errorf("unknown viewer should see nothing, got %d", len(got))
	}
	if got := listOrders("dave"); len(got) != 0 {
		t.Errorf("another user should not see alice's RFQ, got %d", len(got))
	}

	got := listOrders("bob")
	if len(got) != 1 {
		t.Fatalf("trader should see the RFQ, got %d", len(got))
	}
	if got[0]["owner"] != "" {
		t.Errorf("trader view should blank the owner, got %v", got[0]["owner"])
	}

	got = listOrders("root")
	if len(got) != 1 || got[0]["owner"] != "Alice Ahlgren" {
		t.Errorf("admin should see the owner, got %v", got)
	}
}

func TestNegotiationEndpoints(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "BUY", "quantity": 100, "price": 9.0,
	})
	buyID := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "dave", "symbol": "EUA", "side": "SELL", "quantity": 100, "price": 8.9,
	})
	sellID := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/negotiations/request", map[string]any{"order_id": buyID})
	if rec.Code != http.StatusOK {
		t.Fatalf("request failed: %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/negotiations/agree", map[string]any{"order_id": sellID})
	if rec.Code != http.StatusOK {
		t.Fatalf("agree failed: %s", rec.Body.String())
	}

	// Agreed orders are PROCESSING; a second request is invalid.
	rec = doJSON(t, router, http.MethodPost, "/negotiations/request", map[string]any{"order_id": buyID})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("re-request: status %d, want 400", rec.Code)
	}
}

func TestNegotiationRequestEndpoint_NoCounterparty(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "BUY", "quantity": 100, "price": 9.0,
	})
	buyID := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/negotiations/request", map[string]any{"order_id": buyID})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty book request: status %d, want 400", rec.Code)
	}
}

func TestCancelOrderEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "SELL", "quantity": 100, "price": 90.0,
	})
	orderID := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodDelete, "/orders/"+orderID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel failed: %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodDelete, "/orders/"+orderID, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("double cancel: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/orders/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown order: status %d, want 404", rec.Code)
	}
}

func TestAnnotateEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "BUY", "quantity": 100, "price": 80.0,
	})
	orderID := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/admin/orders/"+orderID+"/annotation", map[string]any{
		"annotation": "settled off-platform",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("annotate failed: %s", rec.Body.String())
	}
	order := decodeBody(t, rec)["order"].(map[string]any)
	if order["annotation"] != "settled off-platform" {
		t.Errorf("annotation %v", order["annotation"])
	}
	if order["status"] != "OPEN" {
		t.Errorf("annotation must not change status, got %v", order["status"])
	}
}

func TestDepthEndpoint(t *testing.T) {
	router := newTestRouter()

	doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "alice", "symbol": "EUA", "side": "BUY", "quantity": 100, "price": 85.0,
	})
	doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"owner_id": "dave", "symbol": "EUA", "side": "SELL", "quantity": 200, "price": 86.0,
	})

	rec := doJSON(t, router, http.MethodGet, "/instruments/EUA/book", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("depth failed: %s", rec.Body.String())
	}
	body := decodeBody(t, rec)
	buys, ok := body["buys"].([]any)
	if !ok || len(buys) != 1 {
		t.Fatalf("expected 1 buy level, got %v", body["buys"])
	}
	if body["spread"] != 1.0 {
		t.Errorf("spread %v, want 1.0", body["spread"])
	}
}
