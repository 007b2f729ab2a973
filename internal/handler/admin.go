package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cofleet/exchange/internal/service"
)

// AdminHandler exposes the administrative override. The override is an
// annotation alongside the status machine, not a status rewrite.
type AdminHandler struct {
	tradingSvc *service.TradingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(tradingSvc *service.TradingService) *AdminHandler {
	return &AdminHandler{tradingSvc: tradingSvc}
}

// annotateRequest is the JSON request body for the override endpoint.
type annotateRequest struct {
	Annotation string `json:"annotation"`
}

// Annotate handles POST /admin/orders/{order_id}/annotation.
func (h *AdminHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "order_id")

	var req annotateRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.tradingSvc.Annotate(id, req.Annotation)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   buildOrderResponse(order),
	})
}
