// Package visibility centralizes every read-access and mutation-access
// decision in the marketplace. Handlers call FilterVisible before returning
// lists and CanMutate before applying writes; role checks live nowhere else.
//
// Both functions are pure and never error. Unrecognized entity types fail
// open (records pass through unfiltered) so unmodeled entities keep working;
// callers are expected to log when they hit that path.
package visibility

import (
	"razorkart/internal/auth"
)

// Entity types the rules know about.
const (
	EntityProduct = "product"
	EntityOrder   = "order"
	EntityInquiry = "inquiry"
	EntityBanner  = "banner"
	EntityUser    = "user"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Attrs are the ownership fields a record exposes to the rules. Each entity
// type populates only the fields that apply to it.
type Attrs struct {
	OwnerStoreID string // product: the store that owns the listing
	BuyerID      string // order
	SellerID     string // order
	StoreID      string // order: the fulfilling store
	SubmitterID  string // inquiry
	Email        string // inquiry: contact address, matches anonymous submitters
	OwnerID      string // user: the record's own id
	Public       bool   // visible with no identity at all
}

// Scoped is implemented by every domain record the rules cover.
type Scoped interface {
	VisibilityAttrs() Attrs
}

// FilterVisible returns the subset of records the identity may read.
// A nil identity is anonymous and sees public records only.
func FilterVisible[T Scoped](id *auth.Identity, entity string, records []T) []T {
	if !known(entity) {
		return records
	}
	if id != nil && id.Role == auth.RoleAdmin {
		return records
	}

	visible := make([]T, 0, len(records))
	for _, r := range records {
		if canRead(id, entity, r.VisibilityAttrs()) {
			visible = append(visible, r)
		}
	}
	return visible
}

// CanRead reports whether the identity may read a single record.
func CanRead(id *auth.Identity, entity string, record Scoped) bool {
	if !known(entity) {
		return true
	}
	if id != nil && id.Role == auth.RoleAdmin {
		return true
	}
	return canRead(id, entity, record.VisibilityAttrs())
}

func known(entity string) bool {
	switch entity {
	case EntityProduct, EntityOrder, EntityInquiry, EntityBanner, EntityUser:
		return true
	}
	return false
}

func canRead(id *auth.Identity, entity string, a Attrs) bool {
	if id == nil {
		return a.Public
	}

	switch entity {
	case EntityProduct:
		// Sellers listing "their" products see only their own store;
		// every other role browses the full catalog.
		if id.Role == auth.RoleSeller {
			return a.OwnerStoreID == id.StoreID
		}
		return true
	case EntityOrder:
		switch id.Role {
		case auth.RoleSeller:
			return a.SellerID == id.ID || (id.StoreID != "" && a.StoreID == id.StoreID)
		case auth.RoleBuyer:
			return a.BuyerID == id.ID
		}
		return false
	case EntityInquiry:
		if id.Role == auth.RoleInquiryManager {
			return true
		}
		return (a.SubmitterID != "" && a.SubmitterID == id.ID) ||
			(a.Email != "" && a.Email == id.Email)
	case EntityBanner:
		if id.Role == auth.RoleContentManager {
			return true
		}
		return a.Public
	case EntityUser:
		return a.OwnerID == id.ID
	}
	return false
}

// CanMutate reports whether the identity may apply action to the record.
// For creates the record carries the intended field values (e.g. the
// OwnerStoreID a seller wants to list under).
func CanMutate(id *auth.Identity, entity string, record Scoped, action Action) bool {
	a := record.VisibilityAttrs()

	if id == nil {
		// The one anonymous write in the system: submitting an inquiry.
		return entity == EntityInquiry && action == ActionCreate
	}
	if id.Role == auth.RoleAdmin {
		return true
	}

	switch entity {
	case EntityProduct:
		return id.Role == auth.RoleSeller && a.OwnerStoreID == id.StoreID
	case EntityOrder:
		// Fulfillment updates by the responsible seller; creation happens
		// through checkout, deletion is admin-only.
		if action != ActionUpdate {
			return false
		}
		return id.Role == auth.RoleSeller &&
			(a.SellerID == id.ID || (id.StoreID != "" && a.StoreID == id.StoreID))
	case EntityInquiry:
		switch action {
		case ActionCreate:
			return true
		case ActionUpdate:
			return id.Role == auth.RoleInquiryManager
		case ActionDelete:
			return id.Role == auth.RoleInquiryManager ||
				(a.SubmitterID != "" && a.SubmitterID == id.ID)
		}
		return false
	case EntityBanner:
		return id.Role == auth.RoleContentManager
	case EntityUser:
		// Self-service profile edits only; role reassignment is gated to
		// admins in the handler on top of this.
		return action == ActionUpdate && a.OwnerID == id.ID
	}
	return false
}
