package world

import "github.com/roadroute/editor/internal/core/store"

// Intersection is a junction point, optionally controlled by traffic lights.
type Intersection struct {
	ID            store.ID
	Point         Point
	TrafficLights bool
}

func (x Intersection) EntityID() store.ID { return x.ID }

func (x Intersection) WithID(id store.ID) Intersection {
	x.ID = id
	return x
}
