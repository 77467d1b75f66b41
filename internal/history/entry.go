package history

import (
	"fmt"

	"github.com/roadroute/editor/internal/world"
)

// Op is the kind of mutation an entry records.
type Op int

const (
	OpCreate Op = iota
	OpDestroy
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpDestroy:
		return "destroy"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Entry is one reversible mutation. The set of implementations is closed:
// RoadCreated, RoadDestroyed, IntersectionCreated, IntersectionDestroyed.
type Entry interface {
	Op() Op
	Kind() world.Kind
	isEntry()
}

// RoadCreated holds the road as stamped by the store.
type RoadCreated struct {
	Road world.Road
}

// RoadDestroyed holds the road as it was before removal and the index it occupied.
type RoadDestroyed struct {
	Road  world.Road
	Index int
}

// IntersectionCreated holds the intersection as stamped by the store.
type IntersectionCreated struct {
	Intersection world.Intersection
}

// IntersectionDestroyed holds the intersection before removal and its former index.
type IntersectionDestroyed struct {
	Intersection world.Intersection
	Index        int
}

func (RoadCreated) Op() Op                   { return OpCreate }
func (RoadCreated) Kind() world.Kind         { return world.KindRoad }
func (RoadDestroyed) Op() Op                 { return OpDestroy }
func (RoadDestroyed) Kind() world.Kind       { return world.KindRoad }
func (IntersectionCreated) Op() Op           { return OpCreate }
func (IntersectionCreated) Kind() world.Kind { return world.KindIntersection }
func (IntersectionDestroyed) Op() Op         { return OpDestroy }
func (IntersectionDestroyed) Kind() world.Kind {
	return world.KindIntersection
}

func (RoadCreated) isEntry()           {}
func (RoadDestroyed) isEntry()         {}
func (IntersectionCreated) isEntry()   {}
func (IntersectionDestroyed) isEntry() {}
