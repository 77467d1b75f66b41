package store

import (
	"errors"
	"fmt"

	"github.com/google/btree"
)

// ID identifies an entity inside one store. Zero means "not yet stored";
// assigned IDs are strictly positive. Negative IDs are accepted by Destroy
// as a "nothing to destroy" sentinel.
type ID int32

// Valid reports whether id could have been assigned by a store.
func (id ID) Valid() bool { return id > 0 }

// Entity is implemented by every value type a Store can hold.
// Entities are plain values: the store never hands out pointers into its
// collection, so a caller can never mutate a stored entity in place.
type Entity[T any] interface {
	EntityID() ID
	WithID(id ID) T
}

var (
	// ErrIDInUse is returned by Restore when another entity already carries the ID.
	ErrIDInUse = errors.New("store: id already in use")
	// ErrUnassigned is returned by Restore for an entity without a positive ID.
	ErrUnassigned = errors.New("store: entity has no assigned id")
)

// Store exclusively owns one entity kind's ordered collection and allocates
// its identifiers. The zero Store is uninitialized: only Reset and Replace may
// be called on it, anything else panics. Accessed only from the edit loop
// goroutine; no locks.
type Store[T Entity[T]] struct {
	name  string
	items []T
	used  *btree.BTreeG[ID] // set of IDs present in items
}

// New returns an initialized, empty store. name is used in panic messages.
func New[T Entity[T]](name string) *Store[T] {
	s := &Store[T]{name: name}
	s.Reset()
	return s
}

func (s *Store[T]) mustInit(op string) {
	if s.items == nil {
		panic(fmt.Sprintf("store: %s on uninitialized %s store (missing Reset/Replace/New)", op, s.label()))
	}
}

func (s *Store[T]) label() string {
	if s.name == "" {
		return "unnamed"
	}
	return s.name
}

// Resolve returns a copy of the first entity with the given ID.
func (s *Store[T]) Resolve(id ID) (T, bool) {
	s.mustInit("resolve")
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// Create stamps e with the smallest positive ID not currently in use,
// appends it and returns the stamped copy. Any ID already on e is ignored.
func (s *Store[T]) Create(e T) T {
	s.mustInit("create")
	e = e.WithID(s.nextID())
	s.items = append(s.items, e)
	s.used.ReplaceOrInsert(e.EntityID())
	return e
}

// nextID walks the used set in ascending order until it finds a gap.
func (s *Store[T]) nextID() ID {
	next := ID(1)
	s.used.AscendGreaterOrEqual(next, func(id ID) bool {
		if id != next {
			return false
		}
		next++
		return true
	})
	return next
}

// StampUnassigned gives every entity without an ID the smallest free ID, in
// collection order, and returns how many were stamped. Entities keep their
// positions; assigned IDs are left alone.
func (s *Store[T]) StampUnassigned() int {
	s.mustInit("stamp")
	n := 0
	for i, e := range s.items {
		if e.EntityID() != 0 {
			continue
		}
		id := s.nextID()
		s.items[i] = e.WithID(id)
		s.used.ReplaceOrInsert(id)
		n++
	}
	return n
}

// Destroy removes the first entity with the given ID, keeping the relative
// order of the rest. It returns the removed entity and the index it occupied.
// Negative, zero and unknown IDs are a silent no-op.
func (s *Store[T]) Destroy(id ID) (T, int, bool) {
	s.mustInit("destroy")
	var zero T
	if !id.Valid() {
		return zero, -1, false
	}
	i := s.indexOf(id)
	if i < 0 {
		return zero, -1, false
	}
	removed := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	// Loaded data is not re-validated, so a duplicate may still carry the ID.
	if s.indexOf(id) < 0 {
		s.used.Delete(id)
	}
	return removed, i, true
}

// Restore reinserts e with its own ID at index, clamped to [0, Len].
func (s *Store[T]) Restore(e T, index int) error {
	s.mustInit("restore")
	id := e.EntityID()
	if !id.Valid() {
		return ErrUnassigned
	}
	if s.used.Has(id) {
		return fmt.Errorf("%w: %s %d", ErrIDInUse, s.label(), id)
	}
	index = max(0, min(index, len(s.items)))
	s.items = append(s.items, e)
	copy(s.items[index+1:], s.items[index:])
	s.items[index] = e
	s.used.ReplaceOrInsert(id)
	return nil
}

// Reset replaces the collection with an empty one. It also initializes a
// zero Store.
func (s *Store[T]) Reset() {
	s.items = make([]T, 0, 64)
	s.used = btree.NewOrderedG[ID](32)
}

// Replace swaps in items as the whole collection, in order, keeping
// whatever IDs they carry. Uniqueness is not re-validated.
func (s *Store[T]) Replace(items []T) {
	next := make([]T, len(items), max(len(items), 64))
	copy(next, items)
	used := btree.NewOrderedG[ID](32)
	for _, e := range next {
		if id := e.EntityID(); id.Valid() {
			used.ReplaceOrInsert(id)
		}
	}
	s.items, s.used = next, used
}

// Snapshot returns a copy of the collection in order.
func (s *Store[T]) Snapshot() []T {
	s.mustInit("snapshot")
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of stored entities.
func (s *Store[T]) Len() int {
	s.mustInit("len")
	return len(s.items)
}

// Each calls fn with a copy of every entity in order. Returning false stops
// the iteration.
func (s *Store[T]) Each(fn func(T) bool) {
	s.mustInit("each")
	for _, e := range s.items {
		if !fn(e) {
			return
		}
	}
}

func (s *Store[T]) indexOf(id ID) int {
	for i, e := range s.items {
		if e.EntityID() == id {
			return i
		}
	}
	return -1
}
