package users_test

import (
	"context"
	"errors"
	"testing"

	"razorkart/internal/auth"
	"razorkart/internal/store/storetest"
	"razorkart/internal/users"
)

func newConf(t *testing.T) *users.Conf {
	t.Helper()
	conf, err := users.NewConf(storetest.New())
	if err != nil {
		t.Fatalf("NewConf: %v", err)
	}
	return conf
}

func TestInsertUserDefaultsAndHashing(t *testing.T) {
	conf := newConf(t)
	ctx := context.Background()

	user, err := conf.InsertUser(ctx, users.NewUser{
		Name:     "John Doe",
		Email:    "  John@Example.com ",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	if user.Email != "john@example.com" {
		t.Errorf("got email %q, want normalized lowercase", user.Email)
	}
	if user.Role != auth.RoleBuyer {
		t.Errorf("got role %q, want default buyer", user.Role)
	}
	if user.PasswordHash == "supersecret" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if user.StoreID != "" {
		t.Error("buyers must not get a store id")
	}
}

func TestInsertUserSellerGetsStore(t *testing.T) {
	conf := newConf(t)

	user, err := conf.InsertUser(context.Background(), users.NewUser{
		Name:     "Shop Owner",
		Email:    "shop@example.com",
		Password: "supersecret",
		Role:     auth.RoleSeller,
	})
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	if user.StoreID == "" {
		t.Error("seller signup must provision a store id")
	}
}

func TestInsertUserDuplicateEmail(t *testing.T) {
	conf := newConf(t)
	ctx := context.Background()

	nu := users.NewUser{Name: "John", Email: "john@example.com", Password: "supersecret"}
	if _, err := conf.InsertUser(ctx, nu); err != nil {
		t.Fatalf("first InsertUser: %v", err)
	}

	// Case differences do not dodge the uniqueness check.
	nu.Email = "JOHN@example.com"
	if _, err := conf.InsertUser(ctx, nu); !errors.Is(err, users.ErrEmailTaken) {
		t.Errorf("got %v, want ErrEmailTaken", err)
	}
}

func TestAuthenticate(t *testing.T) {
	conf := newConf(t)
	ctx := context.Background()

	created, err := conf.InsertUser(ctx, users.NewUser{Name: "John", Email: "john@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	user, err := conf.Authenticate(ctx, "John@Example.com", "supersecret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("got user %q, want %q", user.ID, created.ID)
	}

	if _, err := conf.Authenticate(ctx, "john@example.com", "wrongpass"); !errors.Is(err, users.ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials for bad password", err)
	}
	if _, err := conf.Authenticate(ctx, "nobody@example.com", "supersecret"); !errors.Is(err, users.ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials for unknown email", err)
	}
}

func TestUpdateRole(t *testing.T) {
	conf := newConf(t)
	ctx := context.Background()

	user, err := conf.InsertUser(ctx, users.NewUser{Name: "John", Email: "john@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	promoted, err := conf.UpdateRole(ctx, user.ID, auth.RoleSeller)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if promoted.Role != auth.RoleSeller || promoted.StoreID == "" {
		t.Errorf("promotion to seller must provision a store id, got %+v", promoted)
	}

	// Demoting keeps the store id so existing listings stay resolvable.
	demoted, err := conf.UpdateRole(ctx, user.ID, auth.RoleBuyer)
	if err != nil {
		t.Fatalf("UpdateRole demote: %v", err)
	}
	if demoted.StoreID != promoted.StoreID {
		t.Errorf("demotion dropped the store id: %+v", demoted)
	}

	if _, err := conf.UpdateRole(ctx, user.ID, "superuser"); !errors.Is(err, users.ErrInvalidRole) {
		t.Errorf("got %v, want ErrInvalidRole", err)
	}
}
