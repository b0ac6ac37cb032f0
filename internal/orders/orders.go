// Package orders turns carts into orders. Checkout is the only place product
// stock is decremented; the conditional decrement at the store layer makes
// overselling impossible even across concurrent checkouts.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"razorkart/internal/cart"
	"razorkart/internal/products"
	"razorkart/internal/store"
	"razorkart/internal/users"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock for cart item")
)

type Conf struct {
	store store.Store
	cart  *cart.Conf
}

func NewConf(s store.Store, c *cart.Conf) (*Conf, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if c == nil {
		return nil, fmt.Errorf("cart conf is nil")
	}
	return &Conf{store: s, cart: c}, nil
}

// CheckoutResult reports the orders created and any products whose stock the
// checkout drained to zero (the caller emits events for those).
type CheckoutResult struct {
	Orders   []Order
	Depleted []string
}

// Checkout atomically converts the buyer's cart into orders: every line's
// stock is conditionally decremented, one order is created per fulfilling
// store, and the cart is cleared — all in one transaction. Any line that
// cannot be satisfied in full fails the whole checkout with no effect;
// callers re-read the cart to show the adjusted quantities.
func (c *Conf) Checkout(ctx context.Context, buyerID, cartKey string) (CheckoutResult, error) {
	unlock := c.cart.Lock(cartKey)
	defer unlock()

	var result CheckoutResult
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		result = CheckoutResult{}

		items, err := cart.ItemsTx(ctx, tx, cartKey)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		byStore := make(map[string][]OrderItem)
		for _, item := range items {
			var product products.Product
			if err := tx.GetForUpdate(ctx, products.Entity, item.ProductID, &product); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, item.ProductID)
				}
				return fmt.Errorf("failed to read product: %w", err)
			}

			err := tx.AtomicDecrement(ctx, products.Entity, item.ProductID, "stock", item.Quantity)
			if err != nil {
				if errors.Is(err, store.ErrInsufficient) || errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, item.ProductID)
				}
				return fmt.Errorf("failed to decrement stock: %w", err)
			}

			if product.Stock-item.Quantity == 0 {
				result.Depleted = append(result.Depleted, item.ProductID)
			}

			byStore[product.OwnerStoreID] = append(byStore[product.OwnerStoreID], OrderItem{
				ProductID: item.ProductID,
				Name:      product.Name,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			})
		}

		storeIDs := make([]string, 0, len(byStore))
		for storeID := range byStore {
			storeIDs = append(storeIDs, storeID)
		}
		sort.Strings(storeIDs)

		now := time.Now().UTC()
		for _, storeID := range storeIDs {
			orderItems := byStore[storeID]
			var total int64
			for _, oi := range orderItems {
				total += int64(oi.Quantity) * oi.UnitPrice
			}

			order := Order{
				ID:         uuid.NewString(),
				BuyerID:    buyerID,
				SellerID:   c.sellerForStore(ctx, tx, storeID),
				StoreID:    storeID,
				Items:      orderItems,
				TotalPrice: total,
				Status:     StatusPending,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(ctx, Entity, order.ID, order); err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
			result.Orders = append(result.Orders, order)
		}

		return cart.ClearTx(ctx, tx, cartKey)
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	return result, nil
}

// sellerForStore resolves the seller account that owns a store. Best effort:
// an order without a resolvable seller is still scoped by its store id.
func (c *Conf) sellerForStore(ctx context.Context, tx store.Tx, storeID string) string {
	if storeID == "" {
		return ""
	}
	records, err := tx.Query(ctx, users.Entity, map[string]any{"store_id": storeID})
	if err != nil || len(records) == 0 {
		return ""
	}
	var u users.User
	if err := store.Decode(records[0], &u); err != nil {
		return ""
	}
	return u.ID
}

func (c *Conf) GetOrderByID(ctx context.Context, id string) (Order, error) {
	var order Order
	if err := c.store.Get(ctx, Entity, id, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

func (c *Conf) ListOrders(ctx context.Context) ([]Order, error) {
	records, err := c.store.Query(ctx, Entity, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders := make([]Order, 0, len(records))
	for _, r := range records {
		var o Order
		if err := store.Decode(r, &o); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *Conf) UpdateStatus(ctx context.Context, id, status string) (Order, error) {
	var updated Order
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		var order Order
		if err := tx.GetForUpdate(ctx, Entity, id, &order); err != nil {
			return err
		}
		order.Status = status
		order.UpdatedAt = time.Now().UTC()
		if err := tx.Update(ctx, Entity, id, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		updated = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return updated, nil
}
