package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cofleet/exchange/internal/service"
)

// NewRouter creates a chi router with all routes registered, request
// logging, and Content-Type validation middleware.
func NewRouter(
	tradingSvc *service.TradingService,
	rfqSvc *service.RFQService,
	negotiationSvc *service.NegotiationService,
	marketSvc *service.MarketService,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	orderH := NewOrderHandler(tradingSvc)
	tradingH := NewTradingHandler(tradingSvc, marketSvc)
	rfqH := NewRFQHandler(rfqSvc)
	negotiationH := NewNegotiationHandler(negotiationSvc)
	adminH := NewAdminHandler(tradingSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Order routes.
	r.Post("/orders", orderH.PlaceOrder)
	r.Get("/orders", orderH.ListOrders)
	r.Delete("/orders/{order_id}", orderH.CancelOrder)
	r.Post("/orders/match", tradingH.MatchOrder)

	// Market data routes.
	r.Get("/trades", tradingH.ListTrades)
	r.Get("/instruments/{symbol}/volumes", tradingH.GetVolumes)
	r.Get("/instruments/{symbol}/book", tradingH.GetDepth)
	r.Get("/instruments/{symbol}/price", tradingH.GetPrice)

	// RFQ routes.
	r.Post("/rfq/quotes", rfqH.SubmitQuote)
	r.Post("/rfq/accept", rfqH.AcceptQuote)
	r.Post("/rfq/complete", rfqH.CompleteOrder)

	// Negotiation routes.
	r.Post("/negotiations/request", negotiationH.RequestTransaction)
	r.Post("/negotiations/agree", negotiationH.AgreeTransaction)

	// Administrative routes.
	r.Post("/admin/orders/{order_id}/annotation", adminH.Annotate)

	return r
}

// requestLogging returns middleware that logs each request's method,
// path, status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST,
// PUT, and PATCH requests before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
