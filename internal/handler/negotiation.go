package handler

import (
	"net/http"

	"github.com/cofleet/exchange/internal/service"
)

// NegotiationHandler handles the two-phase handshake endpoints.
type NegotiationHandler struct {
	negotiationSvc *service.NegotiationService
}

// NewNegotiationHandler creates a new NegotiationHandler.
func NewNegotiationHandler(negotiationSvc *service.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiationSvc: negotiationSvc}
}

// handshakeRequest is the JSON request body for both handshake phases.
type handshakeRequest struct {
	OrderID string `json:"order_id"`
}

// RequestTransaction handles POST /negotiations/request.
func (h *NegotiationHandler) RequestTransaction(w http.ResponseWriter, r *http.Request) {
	var req handshakeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if _, err := h.negotiationSvc.RequestTransaction(req.OrderID); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Transaction requested. Waiting for counterparty agreement.",
	})
}

// AgreeTransaction handles POST /negotiations/agree.
func (h *NegotiationHandler) AgreeTransaction(w http.ResponseWriter, r *http.Request) {
	var req handshakeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if _, err := h.negotiationSvc.AgreeTransaction(req.OrderID); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Transaction mutually agreed. Waiting for settlement desk processing.",
	})
}
