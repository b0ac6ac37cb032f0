package visibility_test

import (
	"testing"
	"time"

	"razorkart/internal/auth"
	"razorkart/internal/banners"
	"razorkart/internal/inquiries"
	"razorkart/internal/orders"
	"razorkart/internal/products"
	"razorkart/internal/visibility"
)

var (
	admin          = &auth.Identity{ID: "admin-1", Role: auth.RoleAdmin, Email: "admin@x.com"}
	sellerOne      = &auth.Identity{ID: "seller-1", Role: auth.RoleSeller, Email: "s1@x.com", StoreID: "store-1"}
	sellerTwo      = &auth.Identity{ID: "seller-2", Role: auth.RoleSeller, Email: "s2@x.com", StoreID: "store-2"}
	buyerOne       = &auth.Identity{ID: "u1", Role: auth.RoleBuyer, Email: "u1@x.com"}
	buyerTwo       = &auth.Identity{ID: "u2", Role: auth.RoleBuyer, Email: "u2@x.com"}
	inquiryManager = &auth.Identity{ID: "im-1", Role: auth.RoleInquiryManager, Email: "im@x.com"}
	contentManager = &auth.Identity{ID: "cm-1", Role: auth.RoleContentManager, Email: "cm@x.com"}
)

func productSet() []products.Product {
	return []products.Product{
		{ID: "p1", Name: "Keyboard", OwnerStoreID: "store-1"},
		{ID: "p2", Name: "Mouse", OwnerStoreID: "store-2"},
		{ID: "p3", Name: "Monitor", OwnerStoreID: "store-2"},
	}
}

func orderSet() []orders.Order {
	return []orders.Order{
		{ID: "o1", BuyerID: "u1", SellerID: "seller-1", StoreID: "store-1"},
		{ID: "o2", BuyerID: "u2", SellerID: "seller-2", StoreID: "store-2"},
	}
}

func TestFilterVisibleAdminSeesEverything(t *testing.T) {
	if got := visibility.FilterVisible(admin, visibility.EntityProduct, productSet()); len(got) != 3 {
		t.Errorf("admin product view: got %d records, want 3", len(got))
	}
	if got := visibility.FilterVisible(admin, visibility.EntityOrder, orderSet()); len(got) != 2 {
		t.Errorf("admin order view: got %d records, want 2", len(got))
	}
}

func TestFilterVisibleProducts(t *testing.T) {
	tests := []struct {
		name     string
		identity *auth.Identity
		want     int
	}{
		{"anonymous browses the catalog", nil, 3},
		{"buyer browses the catalog", buyerOne, 3},
		{"seller sees only own store", sellerTwo, 2},
		{"seller with no products sees none", &auth.Identity{ID: "s3", Role: auth.RoleSeller, StoreID: "store-9"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := visibility.FilterVisible(tt.identity, visibility.EntityProduct, productSet())
			if len(got) != tt.want {
				t.Errorf("got %d records, want %d", len(got), tt.want)
			}
			if tt.identity != nil && tt.identity.Role == auth.RoleSeller {
				for _, p := range got {
					if p.OwnerStoreID != tt.identity.StoreID {
						t.Errorf("seller leaked product %s owned by %s", p.ID, p.OwnerStoreID)
					}
				}
			}
		})
	}
}

func TestFilterVisibleOrders(t *testing.T) {
	set := orderSet()

	got := visibility.FilterVisible(buyerOne, visibility.EntityOrder, set)
	if len(got) != 1 || got[0].ID != "o1" {
		t.Errorf("buyer order view: got %+v, want only o1", got)
	}

	got = visibility.FilterVisible(sellerTwo, visibility.EntityOrder, set)
	if len(got) != 1 || got[0].ID != "o2" {
		t.Errorf("seller order view: got %+v, want only o2", got)
	}

	if got := visibility.FilterVisible(contentManager, visibility.EntityOrder, set); len(got) != 0 {
		t.Errorf("content manager should see no orders, got %d", len(got))
	}
	if got := visibility.FilterVisible(nil, visibility.EntityOrder, set); len(got) != 0 {
		t.Errorf("anonymous should see no orders, got %d", len(got))
	}
}

func TestFilterVisibleInquiries(t *testing.T) {
	inquiry := inquiries.Inquiry{ID: "i1", SubmitterID: "u1", Email: "u1@x.com"}
	anonymous := inquiries.Inquiry{ID: "i2", Email: "guest@x.com"}
	set := []inquiries.Inquiry{inquiry, anonymous}

	if got := visibility.FilterVisible(buyerTwo, visibility.EntityInquiry, set); len(got) != 0 {
		t.Errorf("unrelated buyer should see no inquiries, got %d", len(got))
	}

	got := visibility.FilterVisible(buyerOne, visibility.EntityInquiry, set)
	if len(got) != 1 || got[0].ID != "i1" {
		t.Errorf("submitter view: got %+v, want only i1", got)
	}

	// An anonymous submission is matched back by email.
	guest := &auth.Identity{ID: "u9", Role: auth.RoleBuyer, Email: "guest@x.com"}
	got = visibility.FilterVisible(guest, visibility.EntityInquiry, set)
	if len(got) != 1 || got[0].ID != "i2" {
		t.Errorf("email match view: got %+v, want only i2", got)
	}

	if got := visibility.FilterVisible(inquiryManager, visibility.EntityInquiry, set); len(got) != 2 {
		t.Errorf("inquiry manager should see all inquiries, got %d", len(got))
	}
}

func TestFilterVisibleBanners(t *testing.T) {
	live := banners.Banner{ID: "b1", Active: true, EndsAt: farFuture()}
	dormant := banners.Banner{ID: "b2", Active: false, EndsAt: farFuture()}
	set := []banners.Banner{live, dormant}

	if got := visibility.FilterVisible(nil, visibility.EntityBanner, set); len(got) != 1 {
		t.Errorf("anonymous should see live banners only, got %d", len(got))
	}
	if got := visibility.FilterVisible(contentManager, visibility.EntityBanner, set); len(got) != 2 {
		t.Errorf("content manager should see all banners, got %d", len(got))
	}
}

func TestFilterVisibleUnknownEntityFailsOpen(t *testing.T) {
	set := productSet()
	got := visibility.FilterVisible(buyerOne, "promotion", set)
	if len(got) != len(set) {
		t.Errorf("unknown entity type must pass records through, got %d of %d", len(got), len(set))
	}
	got = visibility.FilterVisible(nil, "promotion", set)
	if len(got) != len(set) {
		t.Errorf("unknown entity type must pass records through for anonymous too, got %d of %d", len(got), len(set))
	}
}

func TestCanMutateProducts(t *testing.T) {
	owned := products.Product{ID: "p1", OwnerStoreID: "store-1"}

	tests := []struct {
		name     string
		identity *auth.Identity
		action   visibility.Action
		want     bool
	}{
		{"owning seller deletes", sellerOne, visibility.ActionDelete, true},
		{"other seller cannot delete", sellerTwo, visibility.ActionDelete, false},
		{"admin deletes anything", admin, visibility.ActionDelete, true},
		{"buyer cannot update", buyerOne, visibility.ActionUpdate, false},
		{"anonymous cannot create", nil, visibility.ActionCreate, false},
		{"owning seller updates", sellerOne, visibility.ActionUpdate, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := visibility.CanMutate(tt.identity, visibility.EntityProduct, owned, tt.action)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanMutateInquiries(t *testing.T) {
	inquiry := inquiries.Inquiry{ID: "i1", SubmitterID: "u1", Email: "u1@x.com"}

	if !visibility.CanMutate(nil, visibility.EntityInquiry, inquiries.Inquiry{}, visibility.ActionCreate) {
		t.Error("anonymous inquiry submission must be allowed")
	}
	if visibility.CanMutate(nil, visibility.EntityInquiry, inquiry, visibility.ActionDelete) {
		t.Error("anonymous must not delete inquiries")
	}
	if !visibility.CanMutate(buyerOne, visibility.EntityInquiry, inquiry, visibility.ActionDelete) {
		t.Error("submitter must be able to delete own inquiry")
	}
	if visibility.CanMutate(buyerTwo, visibility.EntityInquiry, inquiry, visibility.ActionDelete) {
		t.Error("unrelated buyer must not delete inquiries")
	}
	if !visibility.CanMutate(inquiryManager, visibility.EntityInquiry, inquiry, visibility.ActionUpdate) {
		t.Error("inquiry manager must be able to update inquiries")
	}
	if visibility.CanMutate(buyerOne, visibility.EntityInquiry, inquiry, visibility.ActionUpdate) {
		t.Error("submitter must not set inquiry status")
	}
}

func TestCanMutateBannersAndUsers(t *testing.T) {
	banner := banners.Banner{ID: "b1"}
	if !visibility.CanMutate(contentManager, visibility.EntityBanner, banner, visibility.ActionCreate) {
		t.Error("content manager must create banners")
	}
	if visibility.CanMutate(sellerOne, visibility.EntityBanner, banner, visibility.ActionCreate) {
		t.Error("seller must not create banners")
	}
	if !visibility.CanMutate(admin, visibility.EntityBanner, banner, visibility.ActionDelete) {
		t.Error("admin must delete banners")
	}
}

func farFuture() time.Time {
	return time.Now().Add(24 * time.Hour)
}
