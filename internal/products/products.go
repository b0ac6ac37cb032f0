// Package products manages catalog listings. Each product is owned by
// exactly one store; ownership checks live in the visibility package, this
// package only persists.
package products

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"razorkart/internal/store"
)

type Conf struct {
	store store.Store
}

func NewConf(s store.Store) (*Conf, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	return &Conf{store: s}, nil
}

func (c *Conf) InsertProduct(ctx context.Context, np NewProduct, ownerStoreID string) (Product, error) {
	now := time.Now().UTC()
	product := Product{
		ID:           uuid.NewString(),
		Name:         np.Name,
		Description:  np.Description,
		Price:        np.Price,
		Category:     np.Category,
		Stock:        np.Stock,
		Images:       np.Images,
		OwnerStoreID: ownerStoreID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.store.Create(ctx, Entity, product.ID, product); err != nil {
		return Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return product, nil
}

func (c *Conf) GetProductByID(ctx context.Context, id string) (Product, error) {
	var product Product
	if err := c.store.Get(ctx, Entity, id, &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

func (c *Conf) UpdateProductInDB(ctx context.Context, id string, up UpdateProduct) (Product, error) {
	var updated Product
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		var product Product
		if err := tx.GetForUpdate(ctx, Entity, id, &product); err != nil {
			return err
		}

		if up.Name != nil {
			product.Name = *up.Name
		}
		if up.Description != nil {
			product.Description = *up.Description
		}
		if up.Price != nil {
			product.Price = *up.Price
		}
		if up.Category != nil {
			product.Category = *up.Category
		}
		if up.Stock != nil {
			product.Stock = *up.Stock
		}
		if up.Images != nil {
			product.Images = *up.Images
		}
		product.UpdatedAt = time.Now().UTC()

		if err := tx.Update(ctx, Entity, id, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		updated = product
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

func (c *Conf) DeleteProductFromDB(ctx context.Context, id string) error {
	return c.store.Delete(ctx, Entity, id)
}

// ListProductsFromDB fetches products with optional name/category filtering,
// limit/offset paging and name ordering. The category filter pushes down to
// the store; the name match is a substring test applied here.
func (c *Conf) ListProductsFromDB(ctx context.Context, nameFilter, categoryFilter string, limit, offset int) ([]Product, error) {
	var filter map[string]any
	if categoryFilter != "" {
		filter = map[string]any{"category": categoryFilter}
	}

	records, err := c.store.Query(ctx, Entity, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]Product, 0, len(records))
	for _, r := range records {
		var p Product
		if err := store.Decode(r, &p); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		if nameFilter != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(nameFilter)) {
			continue
		}
		products = append(products, p)
	}

	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })

	if offset >= len(products) {
		return []Product{}, nil
	}
	products = products[offset:]
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	return products, nil
}

// GetProductStock returns the live stock and price for a product. Used by
// the public stock endpoint.
func (c *Conf) GetProductStock(ctx context.Context, id string) (stock int, price int64, err error) {
	product, err := c.GetProductByID(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	return product.Stock, product.Price, nil
}
