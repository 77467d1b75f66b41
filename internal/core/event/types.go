package event

import (
	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/world"
)

// EntityCreated is emitted after a recorded create.
type EntityCreated struct {
	Kind world.Kind
	ID   store.ID
}

// EntityDestroyed is emitted after a recorded destroy.
type EntityDestroyed struct {
	Kind world.Kind
	ID   store.ID
}

// Undone is emitted after an entry was popped and its inverse applied.
type Undone struct {
	Kind world.Kind
	ID   store.ID
	Op   string
}

// StoreReplaced is emitted after load or reset swapped a whole collection.
type StoreReplaced struct {
	Kind  world.Kind
	Count int
}

// Saved is emitted after the working datasets were written.
type Saved struct {
	Roads         int
	Intersections int
}
