// Package store is the generic document record store every domain package
// persists through. Records are JSON documents keyed by (entity, id); the
// Postgres implementation keeps them in a single jsonb table so entity types
// can be added without migrations.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when no record matches (entity, id).
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned by Create when (entity, id) already exists.
	ErrDuplicate = errors.New("record already exists")
	// ErrInsufficient is returned by AtomicDecrement when the decrement would
	// drive the field negative. The record is left untouched.
	ErrInsufficient = errors.New("insufficient value for decrement")
)

// Record is a stored document plus its id.
type Record struct {
	ID  string
	Doc json.RawMessage
}

// Ops is the record-level API shared by the root store and a transaction.
type Ops interface {
	// Get decodes the record (entity, id) into out.
	Get(ctx context.Context, entity, id string, out any) error
	// Query returns all records of entity whose document contains filter
	// (top-level field equality). A nil or empty filter returns everything.
	Query(ctx context.Context, entity string, filter map[string]any) ([]Record, error)
	// Create inserts a new record. Fails with ErrDuplicate on id collision.
	Create(ctx context.Context, entity, id string, doc any) error
	// Update replaces the document of an existing record.
	Update(ctx context.Context, entity, id string, doc any) error
	// Delete removes a record. Fails with ErrNotFound when absent.
	Delete(ctx context.Context, entity, id string) error
	// AtomicDecrement subtracts amount from an integer field, failing with
	// ErrInsufficient (and no change) if the result would be negative.
	AtomicDecrement(ctx context.Context, entity, id, field string, amount int) error
}

// Tx adds the row-locking read used by read-modify-write sequences.
type Tx interface {
	Ops
	// GetForUpdate is Get with the row locked until the transaction ends.
	GetForUpdate(ctx context.Context, entity, id string, out any) error
}

// Store is the full record-store contract consumed by the domain packages.
type Store interface {
	Ops
	// WithTx runs fn inside a transaction; fn's writes commit only if fn
	// returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Decode unmarshals a queried record into out.
func Decode(r Record, out any) error {
	return json.Unmarshal(r.Doc, out)
}
