// Package users manages marketplace accounts: signup, credential checks and
// the admin-only role reassignment.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"razorkart/internal/auth"
	"razorkart/internal/store"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role")
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

// InsertUser creates an account. Role defaults to buyer; sellers get a fresh
// store id, which owns every product they list.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	email := strings.ToLower(strings.TrimSpace(nu.Email))

	existing, err := c.store.Query(ctx, Entity, map[string]any{"email": email})
	if err != nil {
		return User{}, fmt.Errorf("failed to check email: %w", err)
	}
	if len(existing) > 0 {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	role := nu.Role
	if role == "" {
		role = auth.RoleBuyer
	}
	if !auth.ValidRole(role) {
		return User{}, ErrInvalidRole
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Name:         nu.Name,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == auth.RoleSeller {
		user.StoreID = uuid.NewString()
	}

	if err := c.store.Create(ctx, Entity, user.ID, user); err != nil {
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

// Authenticate verifies credentials and returns the account.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	records, err := c.store.Query(ctx, Entity, map[string]any{"email": email})
	if err != nil {
		return User{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(records) == 0 {
		return User{}, ErrInvalidCredentials
	}

	var user User
	if err := store.Decode(records[0], &user); err != nil {
		return User{}, fmt.Errorf("failed to decode user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (c *Conf) GetUserByID(ctx context.Context, id string) (User, error) {
	var user User
	if err := c.store.Get(ctx, Entity, id, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Conf) ListUsers(ctx context.Context) ([]User, error) {
	records, err := c.store.Query(ctx, Entity, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]User, 0, len(records))
	for _, r := range records {
		var u User
		if err := store.Decode(r, &u); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// UpdateRole reassigns a user's role. Promoting to seller provisions a store
// id; demoting away from seller keeps it so existing product ownership stays
// resolvable.
func (c *Conf) UpdateRole(ctx context.Context, id, role string) (User, error) {
	if !auth.ValidRole(role) {
		return User{}, ErrInvalidRole
	}

	var updated User
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		var user User
		if err := tx.GetForUpdate(ctx, Entity, id, &user); err != nil {
			return err
		}

		user.Role = role
		if role == auth.RoleSeller && user.StoreID == "" {
			user.StoreID = uuid.NewString()
		}
		user.UpdatedAt = time.Now().UTC()

		if err := tx.Update(ctx, Entity, id, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return updated, nil
}
