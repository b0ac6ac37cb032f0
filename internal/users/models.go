package users

import (
	"time"

	"razorkart/internal/visibility"
)

const Entity = "user"

// User is the stored account document. PasswordHash never leaves this
// package in API responses; handlers return the Public view.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	StoreID      string    `json:"store_id,omitempty"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u User) VisibilityAttrs() visibility.Attrs {
	return visibility.Attrs{OwnerID: u.ID}
}

// Public is the API-safe view of a user.
type Public struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	StoreID   string    `json:"store_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Public() Public {
	return Public{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		StoreID:   u.StoreID,
		CreatedAt: u.CreatedAt,
	}
}

// NewUser is the signup payload.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin seller buyer content-manager inquiry-manager"`
}
