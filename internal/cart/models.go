package cart

// Item is one cart line: one entry per distinct product.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// cartDoc is the persisted shape, keyed by the cart key (user id or
// anonymous session id).
type cartDoc struct {
	Key   string `json:"key"`
	Items []Item `json:"items"`
}

// MutationResult reports the line after a successful add or update.
// Limited is the soft stock-clamp signal: the operation committed, but at
// the available stock rather than the requested quantity.
type MutationResult struct {
	Item    Item `json:"item"`
	Limited bool `json:"limited"`
}

// PricedItem is a cart line joined with live product data on read.
type PricedItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

// Adjustment records a line GetCart had to fix up against live stock.
type Adjustment struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"` // quantity after the adjustment, 0 when removed
	Removed   bool   `json:"removed"`
}

// Summary is the priced cart returned by GetCart. Prices are never stored;
// they are read fresh from the product records on every call.
type Summary struct {
	Items       []PricedItem `json:"items"`
	Total       int64        `json:"total"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
}
