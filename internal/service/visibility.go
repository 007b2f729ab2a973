package service

import "github.com/cofleet/exchange/internal/domain"

// Viewer is the identity context a read passes through the projector.
// Known is false when the identity did not resolve; an unknown viewer
// sees nothing.
type Viewer struct {
	ID    string
	Name  string
	Role  domain.Role
	Known bool
}

// ProjectOrders maps a viewer context over an order list and returns
// the privacy-redacted view. It is a pure function: inputs are never
// mutated, every returned order is a deep copy.
//
// Rules, applied in order:
//  1. deleted orders are dropped for every non-admin viewer;
//  2. a plain user sees their own orders plus all non-RFQ orders
//     (market orders stay public so the book has depth), other owners'
//     RFQ orders are hidden entirely;
//  3. RFQ quote maps are redacted: admins and the owner see all,
//     a trader sees only their own quote, anyone else none;
//  4. traders see the owner blanked on OPEN RFQ orders (blind bidding);
//  5. traders who did not win see the owner blanked on PROCESSING and
//     FILLED orders (anonymity until settlement).
func ProjectOrders(orders []*domain.Order, v Viewer) []*domain.Order {
	if !v.Known {
		return []*domain.Order{}
	}

	isAdmin := v.Role == domain.RoleAdmin
	isTrader := v.Role == domain.RoleTrader

	result := make([]*domain.Order, 0, len(orders))
	for _, src := range orders {
		if src.Deleted && !isAdmin {
			continue
		}
		if !isAdmin && !isTrader && src.OwnerID != v.ID && src.Side == domain.SideRFQ {
			continue
		}

		o := src.Clone()

		if o.Side == domain.SideRFQ && o.Quotes != nil {
			isOwner := o.OwnerID == v.ID
			if !isAdmin && !isOwner {
				if isTrader {
					redacted := make(map[string]*domain.Quote)
					if q, ok := o.Quotes[v.ID]; ok {
						redacted[v.ID] = q
					}
					o.Quotes = redacted
				} else {
					o.Quotes = map[string]*domain.Quote{}
				}
			}
		}

		if isTrader && o.Side == domain.SideRFQ && o.Status == domain.OrderStatusOpen {
			blankOwner(o)
		}

		if isTrader && (o.Status == domain.OrderStatusProcessing || o.Status == domain.OrderStatusFilled) {
			if o.FilledByID != v.ID {
				blankOwner(o)
			}
		}

		result = append(result, o)
	}
	return result
}

func blankOwner(o *domain.Order) {
	o.OwnerID = ""
	o.Owner = ""
}
