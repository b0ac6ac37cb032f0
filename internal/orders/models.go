package orders

import (
	"time"

	"razorkart/internal/visibility"
)

const Entity = "order"

// Order statuses. Transitions are not constrained beyond what sellers and
// admins are allowed to write.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCanceled  = "canceled"
)

// Order represents one placed order. Checkout produces one order per
// fulfilling store, so an order always has a single seller side.
type Order struct {
	ID         string      `json:"id"`
	BuyerID    string      `json:"buyer_id"`
	SellerID   string      `json:"seller_id,omitempty"`
	StoreID    string      `json:"store_id"`
	Items      []OrderItem `json:"items"`
	TotalPrice int64       `json:"total_price"` // smallest currency unit
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderItem is a purchased line with the price captured at checkout time.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

func (o Order) VisibilityAttrs() visibility.Attrs {
	return visibility.Attrs{
		BuyerID:  o.BuyerID,
		SellerID: o.SellerID,
		StoreID:  o.StoreID,
	}
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}
