package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cofleet/exchange/internal/domain"
)

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status
// code, error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Success: false,
		Error:   errorCode,
		Message: message,
	})
}

// WriteDomainError maps domain errors to HTTP responses: not-found
// kinds to 404, role failures to 403, state/validation failures to 400.
func WriteDomainError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		WriteError(w, http.StatusBadRequest, "validation_error", vErr.Message)
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", "Order not found")
	case errors.Is(err, domain.ErrQuoteNotFound):
		WriteError(w, http.StatusNotFound, "quote_not_found", "Quote not found")
	case errors.Is(err, domain.ErrParticipantNotFound):
		WriteError(w, http.StatusNotFound, "participant_not_found", "Participant not found")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "Identity lacks the required role")
	case errors.Is(err, domain.ErrInvalidState):
		WriteError(w, http.StatusBadRequest, "invalid_state", "Operation not legal for the order's current status")
	case errors.Is(err, domain.ErrNoMatch):
		WriteError(w, http.StatusBadRequest, "no_match", "No matching order found to request transaction with")
	case errors.Is(err, domain.ErrStaleLink):
		WriteError(w, http.StatusBadRequest, "stale_link", "Linked order is no longer in the expected state")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// ParseJSON decodes the request body as JSON into v. It validates that
// the Content-Type header is application/json and returns an error for
// missing/incorrect content type or malformed JSON.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	return nil
}
