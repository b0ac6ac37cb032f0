package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"razorkart/internal/cart"
	"razorkart/internal/products"
	"razorkart/internal/store/storetest"
)

func newCart(t *testing.T, seed ...products.Product) (*cart.Conf, *storetest.InMemory) {
	t.Helper()
	s := storetest.New()
	for _, p := range seed {
		s.Seed(products.Entity, p.ID, p)
	}
	conf, err := cart.NewConf(s)
	if err != nil {
		t.Fatalf("NewConf: %v", err)
	}
	return conf, s
}

func TestAddItemCreatesSingleLine(t *testing.T) {
	conf, _ := newCart(t, products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 10})
	ctx := context.Background()

	result, err := conf.AddItem(ctx, "u1", "p1", 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if result.Item.Quantity != 2 || result.Limited {
		t.Errorf("got %+v, want quantity 2 without limiting", result)
	}

	// Re-adding the same product must increment the one line, never create
	// a second one.
	result, err = conf.AddItem(ctx, "u1", "p1", 3)
	if err != nil {
		t.Fatalf("AddItem again: %v", err)
	}
	if result.Item.Quantity != 5 {
		t.Errorf("got quantity %d, want 5", result.Item.Quantity)
	}

	summary, err := conf.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("got %d lines, want exactly 1", len(summary.Items))
	}
	if summary.Items[0].Quantity != 5 {
		t.Errorf("got quantity %d, want 5", summary.Items[0].Quantity)
	}
}

func TestAddItemClampsToStock(t *testing.T) {
	conf, _ := newCart(t, products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 3})
	ctx := context.Background()

	result, err := conf.AddItem(ctx, "u1", "p1", 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if result.Item.Quantity != 2 || result.Limited {
		t.Fatalf("got %+v, want quantity 2 without limiting", result)
	}

	// Requesting five more would be seven; the line clamps to stock and
	// reports the soft limit.
	result, err = conf.AddItem(ctx, "u1", "p1", 5)
	if err != nil {
		t.Fatalf("AddItem over stock: %v", err)
	}
	if result.Item.Quantity != 3 {
		t.Errorf("got quantity %d, want clamp to 3", result.Item.Quantity)
	}
	if !result.Limited {
		t.Error("expected the stock-limited signal")
	}
}

func TestAddItemErrors(t *testing.T) {
	conf, _ := newCart(t,
		products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 5},
		products.Product{ID: "gone", Name: "Sold Out", Price: 100, Stock: 0},
	)
	ctx := context.Background()

	if _, err := conf.AddItem(ctx, "u1", "missing", 1); !errors.Is(err, cart.ErrProductNotFound) {
		t.Errorf("got %v, want ErrProductNotFound", err)
	}
	if _, err := conf.AddItem(ctx, "u1", "gone", 1); !errors.Is(err, cart.ErrOutOfStock) {
		t.Errorf("got %v, want ErrOutOfStock", err)
	}
	if _, err := conf.AddItem(ctx, "u1", "p1", 0); !errors.Is(err, cart.ErrInvalidQuantity) {
		t.Errorf("got %v, want ErrInvalidQuantity", err)
	}

	// Failed adds must leave no line behind.
	summary, err := conf.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Errorf("got %d lines after failed adds, want 0", len(summary.Items))
	}
}

func TestUpdateQuantity(t *testing.T) {
	conf, _ := newCart(t, products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 4})
	ctx := context.Background()

	if _, err := conf.UpdateQuantity(ctx, "u1", "p1", 2); !errors.Is(err, cart.ErrLineNotFound) {
		t.Errorf("got %v, want ErrLineNotFound for missing line", err)
	}

	if _, err := conf.AddItem(ctx, "u1", "p1", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	result, err := conf.UpdateQuantity(ctx, "u1", "p1", 3)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if result.Item.Quantity != 3 || result.Limited {
		t.Errorf("got %+v, want quantity 3 without limiting", result)
	}

	// Over stock clamps with the soft signal.
	result, err = conf.UpdateQuantity(ctx, "u1", "p1", 9)
	if err != nil {
		t.Fatalf("UpdateQuantity over stock: %v", err)
	}
	if result.Item.Quantity != 4 || !result.Limited {
		t.Errorf("got %+v, want clamp to 4 with limiting", result)
	}

	// Update never removes implicitly.
	if _, err := conf.UpdateQuantity(ctx, "u1", "p1", 0); !errors.Is(err, cart.ErrInvalidQuantity) {
		t.Errorf("got %v, want ErrInvalidQuantity for zero", err)
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	conf, _ := newCart(t, products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 4})
	ctx := context.Background()

	if _, err := conf.AddItem(ctx, "u1", "p1", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if err := conf.RemoveItem(ctx, "u1", "p1"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	// Second removal of the same line, and removal from an empty cart,
	// are both no-op successes.
	if err := conf.RemoveItem(ctx, "u1", "p1"); err != nil {
		t.Fatalf("second RemoveItem: %v", err)
	}
	if err := conf.RemoveItem(ctx, "ghost", "p1"); err != nil {
		t.Fatalf("RemoveItem on absent cart: %v", err)
	}

	summary, err := conf.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Errorf("got %d lines, want 0", len(summary.Items))
	}
}

func TestGetCartComputesTotalFromLivePrices(t *testing.T) {
	conf, s := newCart(t,
		products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 10},
		products.Product{ID: "p2", Name: "Mouse", Price: 1500, Stock: 10},
	)
	ctx := context.Background()

	mustAdd(t, conf, "u1", "p1", 2)
	mustAdd(t, conf, "u1", "p2", 1)

	summary, err := conf.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if summary.Total != 2*4500+1500 {
		t.Errorf("got total %d, want %d", summary.Total, 2*4500+1500)
	}

	// A price change is reflected on the very next read; the cart never
	// caches prices.
	s.Update(ctx, products.Entity, "p1", products.Product{ID: "p1", Name: "Keyboard", Price: 5000, Stock: 10})
	summary, err = conf.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart after price change: %v", err)
	}
	if summary.Total != 2*5000+1500 {
		t.Errorf("got total %d, want %d", summary.Total, 2*5000+1500)
	}
}

func TestGetCartRevalidatesAgainstLiveStock(t *testing.T) {
	conf, s := newCart(t,
		products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 10},
		products.Product{ID: "p2", Name: "Mouse", Price: 1500, Stock: 10},
	)
	ctx := context.Background()

	mustAdd(t, conf, "u1", "p1", 6)
	mustAdd(t, conf, "u1", "p2", 2)

	// Another buyer depletes p1 to 4 and p2 entirely.
	s.Update(ctx, products.Entity, "p1", products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 4})
	s.Update(ctx, products.Entity, "p2", products.Product{ID: "p2", Name: "Mouse", Price: 1500, Stock: 0})

	summary, err := conf.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(summary.Items) != 1 || summary.Items[0].Quantity != 4 {
		t.Fatalf("got %+v, want p1 clamped to 4 and p2 removed", summary.Items)
	}
	if len(summary.Adjustments) != 2 {
		t.Fatalf("got %d adjustments, want 2: %+v", len(summary.Adjustments), summary.Adjustments)
	}

	// The fix-ups are persisted: a second read is clean.
	summary, err = conf.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("second GetCart: %v", err)
	}
	if len(summary.Adjustments) != 0 {
		t.Errorf("adjustments reported twice: %+v", summary.Adjustments)
	}
}

func TestConcurrentAddsRespectStockBound(t *testing.T) {
	conf, _ := newCart(t, products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 1})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conf.AddItem(ctx, "u1", "p1", 1)
		}()
	}
	wg.Wait()

	summary, err := conf.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("got %d lines, want exactly 1", len(summary.Items))
	}
	if summary.Items[0].Quantity != 1 {
		t.Errorf("got quantity %d, want 1 (stock bound)", summary.Items[0].Quantity)
	}
}

func TestAnonymousSessionCartsAreIsolated(t *testing.T) {
	conf, _ := newCart(t, products.Product{ID: "p1", Name: "Keyboard", Price: 4500, Stock: 10})
	ctx := context.Background()

	mustAdd(t, conf, "session:abc", "p1", 1)
	mustAdd(t, conf, "u1", "p1", 3)

	anon, err := conf.GetCart(ctx, "session:abc")
	if err != nil {
		t.Fatalf("GetCart anon: %v", err)
	}
	if len(anon.Items) != 1 || anon.Items[0].Quantity != 1 {
		t.Errorf("anonymous cart got %+v, want one line of quantity 1", anon.Items)
	}

	user, err := conf.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart user: %v", err)
	}
	if len(user.Items) != 1 || user.Items[0].Quantity != 3 {
		t.Errorf("user cart got %+v, want one line of quantity 3", user.Items)
	}
}

func mustAdd(t *testing.T, conf *cart.Conf, key, productID string, qty int) {
	t.Helper()
	if _, err := conf.AddItem(context.Background(), key, productID, qty); err != nil {
		t.Fatalf("AddItem(%s, %s, %d): %v", key, productID, qty, err)
	}
}
