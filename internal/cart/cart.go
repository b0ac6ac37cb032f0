// Package cart owns the per-user shopping cart and its consistency rules:
// at most one line per product, quantities always within [1, live stock],
// every mutation all-or-nothing. The cart key is opaque — an authenticated
// user id or an anonymous session id, same invariants either way.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"razorkart/internal/store"
)

// Entity is the record-store entity type carts are stored under.
const Entity = "cart"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// productDoc is the slice of the product record the cart cares about.
// Stock and price are always re-read inside the mutation, never trusted
// from an earlier request.
type productDoc struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

type Conf struct {
	store store.Store
	locks keyedMutex
}

func NewConf(s store.Store) (*Conf, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	return &Conf{store: s}, nil
}

// keyedMutex serializes mutations per cart key so concurrent adds for the
// same user cannot race past the stock clamp.
type keyedMutex struct {
	mus sync.Map
}

func (k *keyedMutex) lock(key string) func() {
	v, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func clamp(q, stock int) int {
	if q > stock {
		return stock
	}
	if q < 1 {
		return 1
	}
	return q
}

// AddItem creates a line for the product or increments an existing one,
// clamped to live stock. Returns ErrOutOfStock when stock is zero and
// ErrInvalidQuantity when qty < 1.
func (c *Conf) AddItem(ctx context.Context, key, productID string, qty int) (MutationResult, error) {
	if qty < 1 {
		return MutationResult{}, ErrInvalidQuantity
	}

	unlock := c.locks.lock(key)
	defer unlock()

	var result MutationResult
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		var product productDoc
		if err := tx.Get(ctx, "product", productID, &product); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to read product: %w", err)
		}
		if product.Stock == 0 {
			return ErrOutOfStock
		}

		doc, created, err := c.loadOrCreate(ctx, tx, key)
		if err != nil {
			return err
		}

		idx := findLine(doc.Items, productID)
		requested := qty
		if idx >= 0 {
			requested = doc.Items[idx].Quantity + qty
		}
		quantity := clamp(requested, product.Stock)

		if idx >= 0 {
			doc.Items[idx].Quantity = quantity
		} else {
			doc.Items = append(doc.Items, Item{ProductID: productID, Quantity: quantity})
			idx = len(doc.Items) - 1
		}

		if err := c.save(ctx, tx, key, doc, created); err != nil {
			return err
		}

		result = MutationResult{Item: doc.Items[idx], Limited: quantity < requested}
		return nil
	})
	if err != nil {
		return MutationResult{}, err
	}
	return result, nil
}

// UpdateQuantity sets an existing line to newQty, clamped to live stock.
// It never removes the line: newQty < 1 is ErrInvalidQuantity and callers
// should use RemoveItem instead.
func (c *Conf) UpdateQuantity(ctx context.Context, key, productID string, newQty int) (MutationResult, error) {
	if newQty < 1 {
		return MutationResult{}, ErrInvalidQuantity
	}

	unlock := c.locks.lock(key)
	defer unlock()

	var result MutationResult
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		var doc cartDoc
		if err := tx.GetForUpdate(ctx, Entity, key, &doc); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrLineNotFound
			}
			return fmt.Errorf("failed to read cart: %w", err)
		}

		idx := findLine(doc.Items, productID)
		if idx < 0 {
			return ErrLineNotFound
		}

		var product productDoc
		if err := tx.Get(ctx, "product", productID, &product); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to read product: %w", err)
		}
		if product.Stock == 0 {
			return ErrOutOfStock
		}

		quantity := clamp(newQty, product.Stock)
		doc.Items[idx].Quantity = quantity

		if err := tx.Update(ctx, Entity, key, doc); err != nil {
			return fmt.Errorf("failed to save cart: %w", err)
		}

		result = MutationResult{Item: doc.Items[idx], Limited: quantity < newQty}
		return nil
	})
	if err != nil {
		return MutationResult{}, err
	}
	return result, nil
}

// RemoveItem deletes the line for productID. Removing an absent line, or
// from an absent cart, is a successful no-op.
func (c *Conf) RemoveItem(ctx context.Context, key, productID string) error {
	unlock := c.locks.lock(key)
	defer unlock()

	return c.store.WithTx(ctx, func(tx store.Tx) error {
		var doc cartDoc
		if err := tx.GetForUpdate(ctx, Entity, key, &doc); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to read cart: %w", err)
		}

		idx := findLine(doc.Items, productID)
		if idx < 0 {
			return nil
		}

		doc.Items = append(doc.Items[:idx], doc.Items[idx+1:]...)
		if err := tx.Update(ctx, Entity, key, doc); err != nil {
			return fmt.Errorf("failed to save cart: %w", err)
		}
		return nil
	})
}

// GetCart returns the priced cart, revalidated against live product data:
// lines whose product has vanished or run out of stock are dropped, lines
// above current stock are clamped. Fix-ups are persisted and reported in
// Summary.Adjustments.
func (c *Conf) GetCart(ctx context.Context, key string) (Summary, error) {
	unlock := c.locks.lock(key)
	defer unlock()

	var summary Summary
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		summary = Summary{Items: []PricedItem{}}

		var doc cartDoc
		if err := tx.GetForUpdate(ctx, Entity, key, &doc); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to read cart: %w", err)
		}

		kept := doc.Items[:0]
		adjusted := false
		for _, item := range doc.Items {
			var product productDoc
			err := tx.Get(ctx, "product", item.ProductID, &product)
			if errors.Is(err, store.ErrNotFound) || (err == nil && product.Stock == 0) {
				summary.Adjustments = append(summary.Adjustments,
					Adjustment{ProductID: item.ProductID, Removed: true})
				adjusted = true
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to read product: %w", err)
			}

			if item.Quantity > product.Stock {
				item.Quantity = product.Stock
				summary.Adjustments = append(summary.Adjustments,
					Adjustment{ProductID: item.ProductID, Quantity: item.Quantity})
				adjusted = true
			}

			kept = append(kept, item)
			summary.Items = append(summary.Items, PricedItem{
				ProductID: item.ProductID,
				Name:      product.Name,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
				Subtotal:  int64(item.Quantity) * product.Price,
			})
			summary.Total += int64(item.Quantity) * product.Price
		}

		if adjusted {
			doc.Items = kept
			if err := tx.Update(ctx, Entity, key, doc); err != nil {
				return fmt.Errorf("failed to save cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// Clear drops the whole cart. Used by checkout after the order commits.
func (c *Conf) Clear(ctx context.Context, key string) error {
	unlock := c.locks.lock(key)
	defer unlock()

	err := c.store.Delete(ctx, Entity, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Items returns the raw cart lines without pricing. Checkout reads these
// inside its own transaction.
func (c *Conf) Items(ctx context.Context, key string) ([]Item, error) {
	var doc cartDoc
	err := c.store.Get(ctx, Entity, key, &doc)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	return doc.Items, nil
}

func (c *Conf) loadOrCreate(ctx context.Context, tx store.Tx, key string) (cartDoc, bool, error) {
	var doc cartDoc
	err := tx.GetForUpdate(ctx, Entity, key, &doc)
	if err == nil {
		return doc, false, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return cartDoc{Key: key}, true, nil
	}
	return cartDoc{}, false, fmt.Errorf("failed to read cart: %w", err)
}

func (c *Conf) save(ctx context.Context, tx store.Tx, key string, doc cartDoc, created bool) error {
	if created {
		if err := tx.Create(ctx, Entity, key, doc); err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
		return nil
	}
	if err := tx.Update(ctx, Entity, key, doc); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Lock serializes external multi-step flows (checkout) against the same
// per-key mutex the mutations use. The returned func releases it.
func (c *Conf) Lock(key string) func() {
	return c.locks.lock(key)
}

// ItemsTx reads the cart lines inside an existing transaction, locking the
// cart row. A missing cart reads as empty.
func ItemsTx(ctx context.Context, tx store.Tx, key string) ([]Item, error) {
	var doc cartDoc
	err := tx.GetForUpdate(ctx, Entity, key, &doc)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	return doc.Items, nil
}

// ClearTx drops the cart inside an existing transaction.
func ClearTx(ctx context.Context, tx store.Tx, key string) error {
	err := tx.Delete(ctx, Entity, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func findLine(items []Item, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
