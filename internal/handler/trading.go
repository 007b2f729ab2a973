package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cofleet/exchange/internal/domain"
	"github.com/cofleet/exchange/internal/service"
)

// TradingHandler handles matching, trade history, executed volumes,
// book depth, and reference-price queries.
type TradingHandler struct {
	tradingSvc *service.TradingService
	marketSvc  *service.MarketService
}

// NewTradingHandler creates a new TradingHandler.
func NewTradingHandler(tradingSvc *service.TradingService, marketSvc *service.MarketService) *TradingHandler {
	return &TradingHandler{tradingSvc: tradingSvc, marketSvc: marketSvc}
}

// matchOrderRequest is the JSON request body for POST /orders/match.
type matchOrderRequest struct {
	OrderID string `json:"order_id"`
}

// tradeResponse is the JSON shape of an executed trade.
type tradeResponse struct {
	ID          string  `json:"id"`
	ExecutedAt  string  `json:"executed_at"`
	Symbol      string  `json:"symbol"`
	Kind        string  `json:"kind"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	Buyer       string  `json:"buyer"`
	Seller      string  `json:"seller"`
	AggressorID string  `json:"aggressor_id"`
}

func buildTradeResponse(t *domain.Trade) tradeResponse {
	return tradeResponse{
		ID:          t.ID,
		ExecutedAt:  t.ExecutedAt.Format(time.RFC3339),
		Symbol:      t.Symbol,
		Kind:        string(t.Kind),
		Quantity:    t.Quantity,
		Price:       domain.CentsToEuros(t.Price),
		Buyer:       t.Buyer,
		Seller:      t.Seller,
		AggressorID: t.AggressorID,
	}
}

// MatchOrder handles POST /orders/match.
func (h *TradingHandler) MatchOrder(w http.ResponseWriter, r *http.Request) {
	var req matchOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.tradingSvc.MatchOrder(req.OrderID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	trades := make([]tradeResponse, 0, len(result.Trades))
	for _, t := range result.Trades {
		trades = append(trades, buildTradeResponse(t))
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"executed_qty":    result.ExecutedQty,
		"executed_trades": trades,
	})
}

// ListTrades handles GET /trades?symbol=.
func (h *TradingHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	history := h.marketSvc.History(symbol)
	result := make([]tradeResponse, 0, len(history))
	for _, t := range history {
		result = append(result, buildTradeResponse(t))
	}
	WriteJSON(w, http.StatusOK, result)
}

// GetVolumes handles GET /instruments/{symbol}/volumes: cumulative
// executed quantity per 2-decimal price bucket.
func (h *TradingHandler) GetVolumes(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	WriteJSON(w, http.StatusOK, map[string]any{
		"symbol":  symbol,
		"volumes": h.marketSvc.Volumes(symbol),
	})
}

// depthLevelResponse is one aggregated price level.
type depthLevelResponse struct {
	Price         float64 `json:"price"`
	TotalQuantity int64   `json:"total_quantity"`
	OrderCount    int     `json:"order_count"`
}

// GetDepth handles GET /instruments/{symbol}/book.
func (h *TradingHandler) GetDepth(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	depth := h.marketSvc.Depth(symbol)

	buys := make([]depthLevelResponse, 0, len(depth.Buys))
	for _, l := range depth.Buys {
		buys = append(buys, depthLevelResponse{
			Price:         domain.CentsToEuros(l.Price),
			TotalQuantity: l.TotalQuantity,
			OrderCount:    l.OrderCount,
		})
	}
	sells := make([]depthLevelResponse, 0, len(depth.Sells))
	for _, l := range depth.Sells {
		sells = append(sells, depthLevelResponse{
			Price:         domain.CentsToEuros(l.Price),
			TotalQuantity: l.TotalQuantity,
			OrderCount:    l.OrderCount,
		})
	}

	resp := map[string]any{
		"symbol":      depth.Symbol,
		"buys":        buys,
		"sells":       sells,
		"snapshot_at": depth.SnapshotAt.Format(time.RFC3339),
	}
	if depth.Spread != nil {
		resp["spread"] = domain.CentsToEuros(*depth.Spread)
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetPrice handles GET /instruments/{symbol}/price.
func (h *TradingHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	price := h.marketSvc.Price(symbol)

	resp := map[string]any{
		"symbol":           price.Symbol,
		"trades_in_window": price.TradesInWindow,
	}
	if price.CurrentPrice != nil {
		resp["current_price"] = domain.CentsToEuros(*price.CurrentPrice)
	}
	if price.LastTradeAt != nil {
		resp["last_trade_at"] = price.LastTradeAt.Format(time.RFC3339)
	}
	WriteJSON(w, http.StatusOK, resp)
}
