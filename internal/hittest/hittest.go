// Package hittest decides which entities lie close enough to a canvas point
// to be picked for deletion. It only reads snapshots.
package hittest

import (
	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/world"
)

const (
	RoadSampleStep     = 10.0
	RoadRadius         = 5.0
	IntersectionRadius = 6.0 // wider than RoadRadius on purpose: the marker is drawn larger
)

// Params holds the distances used by the tests.
type Params struct {
	RoadSampleStep     float64
	RoadRadius         float64
	IntersectionRadius float64
}

func DefaultParams() Params {
	return Params{
		RoadSampleStep:     RoadSampleStep,
		RoadRadius:         RoadRadius,
		IntersectionRadius: IntersectionRadius,
	}
}

// RoadHit reports whether any sample of r lies within p.RoadRadius of q.
// Sampling stops at the first hit.
func RoadHit(r world.Road, q world.Point, p Params) bool {
	for s := range r.Samples(p.RoadSampleStep) {
		if s.Distance(q) <= p.RoadRadius {
			return true
		}
	}
	return false
}

// IntersectionHit reports whether x lies within p.IntersectionRadius of q.
func IntersectionHit(x world.Intersection, q world.Point, p Params) bool {
	return x.Point.Distance(q) <= p.IntersectionRadius
}

// Roads returns the IDs of all hit roads in snapshot order.
func Roads(roads []world.Road, q world.Point, p Params) []store.ID {
	var hits []store.ID
	for _, r := range roads {
		if RoadHit(r, q, p) {
			hits = append(hits, r.ID)
		}
	}
	return hits
}

// Intersections returns the IDs of all hit intersections in snapshot order.
func Intersections(xs []world.Intersection, q world.Point, p Params) []store.ID {
	var hits []store.ID
	for _, x := range xs {
		if IntersectionHit(x, q, p) {
			hits = append(hits, x.ID)
		}
	}
	return hits
}
