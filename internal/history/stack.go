// Package history keeps a bounded log of reversible edits and replays their
// inverses against the owning store.
package history

import (
	"container/list"
	"fmt"

	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/world"
	"go.uber.org/zap"
)

// DefaultCapacity is the number of edits that stay undoable.
const DefaultCapacity = 15

// ErrIDInUse is returned by Undo when a destroyed entity cannot be restored
// because its identifier was taken by an edit that bypassed the history
// (load or reset). The entry is discarded and the store left untouched.
var ErrIDInUse = store.ErrIDInUse

// Stack is a capacity-bounded deque of entries: Record pushes to the back and
// evicts from the front, Undo pops from the back.
// Accessed only from the edit loop goroutine; no locks.
type Stack struct {
	entries       *list.List
	capacity      int
	roads         *store.Store[world.Road]
	intersections *store.Store[world.Intersection]
	log           *zap.Logger
}

// New creates a stack replaying inverses against the given stores.
// capacity <= 0 selects DefaultCapacity.
func New(capacity int, roads *store.Store[world.Road], intersections *store.Store[world.Intersection], log *zap.Logger) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack{
		entries:       list.New(),
		capacity:      capacity,
		roads:         roads,
		intersections: intersections,
		log:           log,
	}
}

// Record appends e. When the stack is over capacity the oldest entry is
// dropped silently.
func (s *Stack) Record(e Entry) {
	s.entries.PushBack(e)
	for s.entries.Len() > s.capacity {
		s.entries.Remove(s.entries.Front())
	}
	s.log.Debug("history recorded",
		zap.Stringer("op", e.Op()),
		zap.Stringer("kind", e.Kind()),
		zap.Int("depth", s.entries.Len()),
	)
}

// Undo pops the newest entry and applies its inverse. The inverse is applied
// directly to the store and is never recorded. An empty stack is a no-op and
// returns a nil entry.
func (s *Stack) Undo() (Entry, error) {
	back := s.entries.Back()
	if back == nil {
		return nil, nil
	}
	e := s.entries.Remove(back).(Entry)

	var err error
	switch e := e.(type) {
	case RoadCreated:
		s.roads.Destroy(e.Road.ID)
	case IntersectionCreated:
		s.intersections.Destroy(e.Intersection.ID)
	case RoadDestroyed:
		err = s.roads.Restore(e.Road, e.Index)
	case IntersectionDestroyed:
		err = s.intersections.Restore(e.Intersection, e.Index)
	default:
		panic(fmt.Sprintf("history: unexpected entry type %T", e))
	}
	if err != nil {
		return e, fmt.Errorf("undo %s %s: %w", e.Op(), e.Kind(), err)
	}

	s.log.Debug("history undone",
		zap.Stringer("op", e.Op()),
		zap.Stringer("kind", e.Kind()),
		zap.Int("depth", s.entries.Len()),
	)
	return e, nil
}

// Len returns the number of undoable entries.
func (s *Stack) Len() int { return s.entries.Len() }

// Cap returns the capacity.
func (s *Stack) Cap() int { return s.capacity }

// Entries returns the entries oldest first.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, 0, s.entries.Len())
	for el := s.entries.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(Entry))
	}
	return out
}
