package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/service"
)

// OrderHandler handles HTTP requests for order placement, cancellation,
// and viewer-projected listing.
type OrderHandler struct {
	tradingSvc *service.TradingService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(tradingSvc *service.TradingService) *OrderHandler {
	return &OrderHandler{tradingSvc: tradingSvc}
}

// placeOrderRequest is the JSON request body for POST /orders.
type placeOrderRequest struct {
	OwnerID  string   `json:"owner_id"`
	Symbol   string   `json:"symbol"`
	Side     string   `json:"side"`
	Quantity int64    `json:"quantity"`
	Price    *float64 `json:"price"`
}

// quoteResponse is a single quote inside an order response.
type quoteResponse struct {
	Price       float64 `json:"price"`
	TraderName  string  `json:"trader_name"`
	SubmittedAt string  `json:"submitted_at"`
}

// orderResponse is the JSON shape of an order. Price and filled_price
// are euros; RFQ orders carry price 0.
type orderResponse struct {
	ID            string                   `json:"id"`
	Symbol        string                   `json:"symbol"`
	Side          string                   `json:"side"`
	Quantity      int64                    `json:"quantity"`
	Price         float64                  `json:"price"`
	Status        string                   `json:"status"`
	Annotation    string                   `json:"annotation,omitempty"`
	OwnerID       string                   `json:"owner_id,omitempty"`
	Owner         string                   `json:"owner"`
	OwnerCompany  string                   `json:"owner_company"`
	CreatedAt     string                   `json:"created_at"`
	Deleted       bool                     `json:"deleted,omitempty"`
	LinkedOrderID string                   `json:"linked_order_id,omitempty"`
	FilledBy      string                   `json:"filled_by,omitempty"`
	FilledPrice   *float64                 `json:"filled_price,omitempty"`
	Quotes        map[string]quoteResponse `json:"quotes,omitempty"`
}

// buildOrderResponse converts a (projected) order to its JSON shape.
func buildOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		Symbol:        o.Symbol,
		Side:          string(o.Side),
		Quantity:      o.Quantity,
		Price:         domain.CentsToEuros(o.Price),
		Status:        string(o.Status),
		Annotation:    o.Annotation,
		OwnerID:       o.OwnerID,
		Owner:         o.Owner,
		OwnerCompany:  o.OwnerCompany,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
		Deleted:       o.Deleted,
		LinkedOrderID: o.LinkedOrderID,
		FilledBy:      o.FilledBy,
	}
	if o.FilledPrice != 0 {
		p := domain.CentsToEuros(o.FilledPrice)
		resp.FilledPrice = &p
	}
	if o.Side == domain.SideRFQ {
		quotes := make(map[string]quoteResponse, len(o.Quotes))
		for traderID, q := range o.Quotes {
			quotes[traderID] = quoteResponse{
				Price:       domain.CentsToEuros(q.Price),
				TraderName:  q.TraderName,
				SubmittedAt: q.SubmittedAt.Format(time.RFC3339),
			}
		}
		resp.Quotes = quotes
	}
	return resp
}

// PlaceOrder handles POST /orders.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.tradingSvc.PlaceOrder(service.PlaceOrderRequest{
		OwnerID:  req.OwnerID,
		Symbol:   req.Symbol,
		Side:     domain.Side(req.Side),
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"order":   buildOrderResponse(order),
	})
}

// CancelOrder handles DELETE /orders/{order_id}.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "order_id")

	if _, err := h.tradingSvc.CancelOrder(id); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Order deleted",
	})
}

// ListOrders handles GET /orders?symbol=&viewer_id=. The viewer id is
// the identity context the visibility projection runs under; an
// unknown viewer gets an empty list.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	viewerID := r.URL.Query().Get("viewer_id")

	orders := h.tradingSvc.QueryOrders(symbol, viewerID)
	result := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, buildOrderResponse(o))
	}
	WriteJSON(w, http.StatusOK, result)
}
