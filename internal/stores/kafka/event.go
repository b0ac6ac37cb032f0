package kafka

import "time"

// Topics RazorKart publishes to.
const (
	TopicAccountCreated = `razorkart.account-created`
	TopicOrderPlaced    = `razorkart.order-placed`
	TopicStockDepleted  = `razorkart.stock-depleted`
)

// AccountCreatedEvent is published after a successful signup.
type AccountCreatedEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderPlacedEvent is published once per order created by a checkout.
type OrderPlacedEvent struct {
	OrderID    string    `json:"order_id"`
	BuyerID    string    `json:"buyer_id"`
	StoreID    string    `json:"store_id"`
	TotalPrice int64     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// StockDepletedEvent is published when a checkout drains a product to zero.
type StockDepletedEvent struct {
	ProductID  string    `json:"product_id"`
	DepletedAt time.Time `json:"depleted_at"`
}
