package products_test

import (
	"context"
	"errors"
	"testing"

	"razorkart/internal/products"
	"razorkart/internal/store"
	"razorkart/internal/store/storetest"
)

func newConf(t *testing.T) *products.Conf {
	t.Helper()
	conf, err := products.NewConf(storetest.New())
	if err != nil {
		t.Fatalf("NewConf: %v", err)
	}
	return conf
}

func seedCatalog(t *testing.T, conf *products.Conf) {
	t.Helper()
	ctx := context.Background()
	items := []products.NewProduct{
		{Name: "Gaming Keyboard", Description: "RGB", Price: 4500, Category: "electronics", Stock: 10},
		{Name: "Office Mouse", Description: "Quiet", Price: 1500, Category: "electronics", Stock: 5},
		{Name: "Desk Lamp", Description: "Warm light", Price: 2500, Category: "home", Stock: 3},
	}
	for _, np := range items {
		if _, err := conf.InsertProduct(ctx, np, "store-1"); err != nil {
			t.Fatalf("InsertProduct(%s): %v", np.Name, err)
		}
	}
}

func TestInsertAndGetProduct(t *testing.T) {
	conf := newConf(t)
	ctx := context.Background()

	created, err := conf.InsertProduct(ctx, products.NewProduct{
		Name: "Gaming Keyboard", Price: 4500, Category: "electronics", Stock: 10,
	}, "store-1")
	if err != nil {
		t.Fatalf("InsertProduct: %v", err)
	}
	if created.ID == "" || created.OwnerStoreID != "store-1" {
		t.Errorf("got %+v, want generated id and owner store", created)
	}

	got, err := conf.GetProductByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if got.Name != "Gaming Keyboard" || got.Stock != 10 {
		t.Errorf("got %+v", got)
	}

	if _, err := conf.GetProductByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateProductPartial(t *testing.T) {
	conf := newConf(t)
	ctx := context.Background()

	created, err := conf.InsertProduct(ctx, products.NewProduct{
		Name: "Gaming Keyboard", Price: 4500, Category: "electronics", Stock: 10,
	}, "store-1")
	if err != nil {
		t.Fatalf("InsertProduct: %v", err)
	}

	newPrice := int64(3900)
	updated, err := conf.UpdateProductInDB(ctx, created.ID, products.UpdateProduct{Price: &newPrice})
	if err != nil {
		t.Fatalf("UpdateProductInDB: %v", err)
	}
	if updated.Price != 3900 {
		t.Errorf("got price %d, want 3900", updated.Price)
	}
	// Fields not in the patch stay put.
	if updated.Name != "Gaming Keyboard" || updated.Stock != 10 {
		t.Errorf("untouched fields changed: %+v", updated)
	}
}

func TestListProductsFiltering(t *testing.T) {
	conf := newConf(t)
	seedCatalog(t, conf)
	ctx := context.Background()

	list, err := conf.ListProductsFromDB(ctx, "", "electronics", 0, 0)
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("category filter: got %d, want 2", len(list))
	}

	list, err = conf.ListProductsFromDB(ctx, "mouse", "", 0, 0)
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Office Mouse" {
		t.Errorf("name filter: got %+v", list)
	}
}

func TestListProductsPaging(t *testing.T) {
	conf := newConf(t)
	seedCatalog(t, conf)
	ctx := context.Background()

	// Name-ordered: Desk Lamp, Gaming Keyboard, Office Mouse.
	page, err := conf.ListProductsFromDB(ctx, "", "", 2, 0)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page) != 2 || page[0].Name != "Desk Lamp" || page[1].Name != "Gaming Keyboard" {
		t.Errorf("first page: got %+v", page)
	}

	page, err = conf.ListProductsFromDB(ctx, "", "", 2, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(page) != 1 || page[0].Name != "Office Mouse" {
		t.Errorf("second page: got %+v", page)
	}

	page, err = conf.ListProductsFromDB(ctx, "", "", 2, 10)
	if err != nil {
		t.Fatalf("out of range page: %v", err)
	}
	if len(page) != 0 {
		t.Errorf("out of range offset must return empty, got %+v", page)
	}
}

func TestDeleteProduct(t *testing.T) {
	conf := newConf(t)
	ctx := context.Background()

	created, err := conf.InsertProduct(ctx, products.NewProduct{Name: "Lamp", Price: 2500, Stock: 3}, "store-1")
	if err != nil {
		t.Fatalf("InsertProduct: %v", err)
	}
	if err := conf.DeleteProductFromDB(ctx, created.ID); err != nil {
		t.Fatalf("DeleteProductFromDB: %v", err)
	}
	if _, err := conf.GetProductByID(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v after delete, want ErrNotFound", err)
	}
}
