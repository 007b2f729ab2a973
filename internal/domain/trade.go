package domain

import "time"

// TradeKind distinguishes continuous-match fills from RFQ acceptances.
type TradeKind string

const (
	TradeKindMatch    TradeKind = "MATCH"
	TradeKindRFQMatch TradeKind = "RFQ_MATCH"
)

// Trade is an immutable execution record. Buyer and Seller carry the
// display names captured at execution time (the ledger is what the
// settlement desk reads, so it keeps the human-facing values).
type Trade struct {
	ID          string    `json:"id"`
	ExecutedAt  time.Time `json:"executed_at"`
	Symbol      string    `json:"symbol"`
	Kind        TradeKind `json:"kind"`
	Quantity    int64     `json:"quantity"`
	Price       int64     `json:"price"` // cents
	Buyer       string    `json:"buyer"`
	Seller      string    `json:"seller"`
	AggressorID string    `json:"aggressor_id"`
}
