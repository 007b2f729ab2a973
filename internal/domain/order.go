package domain

import "time"

// Side indicates whether an order buys, sells, or requests quotes.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideRFQ  Side = "RFQ"
)

// Opposite returns the matching side for BUY and SELL. RFQ orders have
// no opposite side on the book.
func (s Side) Opposite() (Side, bool) {
	switch s {
	case SideBuy:
		return SideSell, true
	case SideSell:
		return SideBuy, true
	default:
		return "", false
	}
}

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOpen       OrderStatus = "OPEN"
	OrderStatusRequesting OrderStatus = "REQUESTING"
	OrderStatusRequested  OrderStatus = "REQUESTED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusFilled     OrderStatus = "FILLED"
	OrderStatusDeleted    OrderStatus = "DELETED"
)

// Quote is a trader's private price offer against an RFQ order. Quotes
// live inside the parent order's Quotes map, keyed by the quoting
// trader's participant id; resubmission overwrites.
type Quote struct {
	Price       int64     `json:"price"` // cents
	TraderName  string    `json:"trader_name"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Order represents a resting or aggressor instruction on an instrument.
//
// OwnerID is the stable participant id; Owner and OwnerCompany are
// display values denormalized at creation time. Ownership checks use
// OwnerID, never the display name.
type Order struct {
	ID            string            `json:"id"`
	Symbol        string            `json:"symbol"`
	Side          Side              `json:"side"`
	Quantity      int64             `json:"quantity"`
	Price         int64             `json:"price"` // cents, 0 for RFQ orders
	Status        OrderStatus       `json:"status"`
	Annotation    string            `json:"annotation,omitempty"` // administrative override note
	OwnerID       string            `json:"owner_id"`
	Owner         string            `json:"owner"`
	OwnerCompany  string            `json:"owner_company"`
	CreatedAt     time.Time         `json:"created_at"`
	Deleted       bool              `json:"deleted,omitempty"`
	LinkedOrderID string            `json:"linked_order_id,omitempty"`
	FilledByID    string            `json:"filled_by_id,omitempty"`
	FilledBy      string            `json:"filled_by,omitempty"`
	FilledPrice   int64             `json:"filled_price,omitempty"`
	Quotes        map[string]*Quote `json:"quotes,omitempty"` // trader id → quote, RFQ only
}

// IsLive reports whether the order is in a non-terminal state.
func (o *Order) IsLive() bool {
	if o.Deleted {
		return false
	}
	switch o.Status {
	case OrderStatusOpen, OrderStatusRequesting, OrderStatusRequested, OrderStatusProcessing:
		return true
	}
	return false
}

// Matchable reports whether the order can participate in continuous
// matching: an open, non-deleted BUY or SELL.
func (o *Order) Matchable() bool {
	return !o.Deleted && o.Status == OrderStatusOpen && o.Side != SideRFQ
}

// Crosses reports whether a resting opponent at restingPrice is price
// compatible with this order (opponent ask ≤ bid for a BUY, opponent
// bid ≥ ask for a SELL).
func (o *Order) Crosses(restingPrice int64) bool {
	if o.Side == SideBuy {
		return restingPrice <= o.Price
	}
	return restingPrice >= o.Price
}

// Clone returns a deep copy of the order, including its quotes map.
// The visibility projector redacts clones, never store-owned records.
func (o *Order) Clone() *Order {
	c := *o
	if o.Quotes != nil {
		c.Quotes = make(map[string]*Quote, len(o.Quotes))
		for k, q := range o.Quotes {
			qc := *q
			c.Quotes[k] = &qc
		}
	}
	return &c
}
