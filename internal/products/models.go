package products

import (
	"time"

	"razorkart/internal/visibility"
)

const Entity = "product"

// Product is the catalog listing document. Prices are in the smallest
// currency unit.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Category     string    `json:"category"`
	Stock        int       `json:"stock"`
	Images       []string  `json:"images"`
	OwnerStoreID string    `json:"owner_store_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p Product) VisibilityAttrs() visibility.Attrs {
	return visibility.Attrs{
		OwnerStoreID: p.OwnerStoreID,
		Public:       true, // the catalog is globally browsable
	}
}

// NewProduct is the creation payload.
type NewProduct struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       int64    `json:"price" validate:"required,gt=0"`
	Category    string   `json:"category" validate:"required"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Images      []string `json:"images"`
}

// UpdateProduct carries the mutable fields; nil means leave unchanged.
type UpdateProduct struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price" validate:"omitempty,gt=0"`
	Category    *string   `json:"category"`
	Stock       *int      `json:"stock" validate:"omitempty,gte=0"`
	Images      *[]string `json:"images"`
}
