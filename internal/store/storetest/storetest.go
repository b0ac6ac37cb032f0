// Package storetest provides an in-memory store.Store for tests. It mirrors
// the Postgres implementation's semantics: jsonb-style containment queries,
// conditional decrements and all-or-nothing transactions.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"razorkart/internal/store"
)

type InMemory struct {
	mu   sync.Mutex
	data map[string]map[string]json.RawMessage // entity -> id -> doc
	seq  map[string]map[string]int             // insertion order, for stable listing
	next int
}

func New() *InMemory {
	return &InMemory{
		data: make(map[string]map[string]json.RawMessage),
		seq:  make(map[string]map[string]int),
	}
}

// Seed inserts a record, panicking on failure. Test setup helper.
func (s *InMemory) Seed(entity, id string, doc any) {
	if err := s.Create(context.Background(), entity, id, doc); err != nil {
		panic(fmt.Sprintf("seed %s/%s: %v", entity, id, err))
	}
}

func (s *InMemory) get(entity, id string, out any) error {
	docs, ok := s.data[entity]
	if !ok {
		return store.ErrNotFound
	}
	doc, ok := docs[id]
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(doc, out)
}

func (s *InMemory) Get(ctx context.Context, entity, id string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(entity, id, out)
}

func (s *InMemory) query(entity string, filter map[string]any) ([]store.Record, error) {
	var records []store.Record
	for id, doc := range s.data[entity] {
		if len(filter) > 0 {
			var fields map[string]any
			if err := json.Unmarshal(doc, &fields); err != nil {
				return nil, err
			}
			if !contains(fields, filter) {
				continue
			}
		}
		records = append(records, store.Record{ID: id, Doc: doc})
	}
	seq := s.seq[entity]
	sort.Slice(records, func(i, j int) bool {
		return seq[records[i].ID] < seq[records[j].ID]
	})
	return records, nil
}

// contains reports whether every filter field equals the corresponding
// document field, comparing through a JSON round trip the way jsonb
// containment does.
func contains(fields, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := fields[k]
		if !ok {
			return false
		}
		wantJSON, err := json.Marshal(want)
		if err != nil {
			return false
		}
		var normalized any
		if err := json.Unmarshal(wantJSON, &normalized); err != nil {
			return false
		}
		if !reflect.DeepEqual(got, normalized) {
			return false
		}
	}
	return true
}

func (s *InMemory) Query(ctx context.Context, entity string, filter map[string]any) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query(entity, filter)
}

func (s *InMemory) create(entity, id string, doc any) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if s.data[entity] == nil {
		s.data[entity] = make(map[string]json.RawMessage)
		s.seq[entity] = make(map[string]int)
	}
	if _, exists := s.data[entity][id]; exists {
		return store.ErrDuplicate
	}
	s.data[entity][id] = docJSON
	s.next++
	s.seq[entity][id] = s.next
	return nil
}

func (s *InMemory) Create(ctx context.Context, entity, id string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(entity, id, doc)
}

func (s *InMemory) update(entity, id string, doc any) error {
	if _, exists := s.data[entity][id]; !exists {
		return store.ErrNotFound
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.data[entity][id] = docJSON
	return nil
}

func (s *InMemory) Update(ctx context.Context, entity, id string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(entity, id, doc)
}

func (s *InMemory) delete(entity, id string) error {
	if _, exists := s.data[entity][id]; !exists {
		return store.ErrNotFound
	}
	delete(s.data[entity], id)
	delete(s.seq[entity], id)
	return nil
}

func (s *InMemory) Delete(ctx context.Context, entity, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(entity, id)
}

func (s *InMemory) atomicDecrement(entity, id, field string, amount int) error {
	doc, ok := s.data[entity][id]
	if !ok {
		return store.ErrNotFound
	}
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return err
	}
	current, ok := fields[field].(float64)
	if !ok {
		return fmt.Errorf("field %q is not a number", field)
	}
	if int(current) < amount {
		return store.ErrInsufficient
	}
	fields[field] = int(current) - amount
	updated, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	s.data[entity][id] = updated
	return nil
}

func (s *InMemory) AtomicDecrement(ctx context.Context, entity, id, field string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atomicDecrement(entity, id, field, amount)
}

type memTx struct {
	s *InMemory
}

func (t memTx) Get(ctx context.Context, entity, id string, out any) error {
	return t.s.get(entity, id, out)
}

func (t memTx) GetForUpdate(ctx context.Context, entity, id string, out any) error {
	return t.s.get(entity, id, out)
}

func (t memTx) Query(ctx context.Context, entity string, filter map[string]any) ([]store.Record, error) {
	return t.s.query(entity, filter)
}

func (t memTx) Create(ctx context.Context, entity, id string, doc any) error {
	return t.s.create(entity, id, doc)
}

func (t memTx) Update(ctx context.Context, entity, id string, doc any) error {
	return t.s.update(entity, id, doc)
}

func (t memTx) Delete(ctx context.Context, entity, id string) error {
	return t.s.delete(entity, id)
}

func (t memTx) AtomicDecrement(ctx context.Context, entity, id, field string, amount int) error {
	return t.s.atomicDecrement(entity, id, field, amount)
}

// WithTx holds the store lock for the whole callback and restores a snapshot
// if fn fails, so a failed transaction leaves no partial writes behind.
func (s *InMemory) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]map[string]json.RawMessage, len(s.data))
	seqSnapshot := make(map[string]map[string]int, len(s.seq))
	for entity, docs := range s.data {
		cp := make(map[string]json.RawMessage, len(docs))
		for id, doc := range docs {
			cp[id] = doc
		}
		snapshot[entity] = cp
	}
	for entity, seq := range s.seq {
		cp := make(map[string]int, len(seq))
		for id, n := range seq {
			cp[id] = n
		}
		seqSnapshot[entity] = cp
	}

	if err := fn(memTx{s: s}); err != nil {
		s.data = snapshot
		s.seq = seqSnapshot
		return err
	}
	return nil
}
