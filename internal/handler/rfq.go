package handler

import (
	"net/http"

	"github.com/cofleet/exchange/internal/service"
)

// RFQHandler handles the quote-and-accept endpoints.
type RFQHandler struct {
	rfqSvc *service.RFQService
}

// NewRFQHandler creates a new RFQHandler.
func NewRFQHandler(rfqSvc *service.RFQService) *RFQHandler {
	return &RFQHandler{rfqSvc: rfqSvc}
}

// submitQuoteRequest is the JSON request body for POST /rfq/quotes.
type submitQuoteRequest struct {
	OrderID  string  `json:"order_id"`
	TraderID string  `json:"trader_id"`
	Price    float64 `json:"price"`
}

// SubmitQuote handles POST /rfq/quotes.
func (h *RFQHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	var req submitQuoteRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if _, err := h.rfqSvc.SubmitQuote(req.OrderID, req.TraderID, req.Price); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Quote submitted",
	})
}

// acceptQuoteRequest is the JSON request body for POST /rfq/accept.
type acceptQuoteRequest struct {
	OrderID  string `json:"order_id"`
	TraderID string `json:"trader_id"`
	Phone    string `json:"phone"`
}

// AcceptQuote handles POST /rfq/accept.
func (h *RFQHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	var req acceptQuoteRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	trade, err := h.rfqSvc.AcceptQuote(req.OrderID, req.TraderID, req.Phone)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"trade":   buildTradeResponse(trade),
	})
}

// completeOrderRequest is the JSON request body for POST /rfq/complete.
type completeOrderRequest struct {
	OrderID string `json:"order_id"`
}

// CompleteOrder handles POST /rfq/complete.
func (h *RFQHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	var req completeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if _, err := h.rfqSvc.CompleteOrder(req.OrderID); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
