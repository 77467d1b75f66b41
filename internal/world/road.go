package world

import (
	"iter"
	"math"

	"github.com/roadroute/editor/internal/core/store"
)

// Point is a position on the editing canvas. Lat is the horizontal axis and
// Lon the vertical one, matching how the canvas feeds mouse coordinates in.
type Point struct {
	Lat float64
	Lon float64
}

// Distance returns the planar Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.Lat-q.Lat, p.Lon-q.Lon)
}

// Road is a straight road segment.
type Road struct {
	ID         store.ID
	Name       string
	Start      Point
	End        Point
	SpeedLimit float64
	LaneCount  int
	Surface    Surface
}

func (r Road) EntityID() store.ID { return r.ID }

func (r Road) WithID(id store.ID) Road {
	r.ID = id
	return r
}

// Length returns the Euclidean length of the segment.
func (r Road) Length() float64 {
	return r.Start.Distance(r.End)
}

// Samples yields points along the segment: Start, then one point every step
// units of arc length strictly before End, then End itself. End is always the
// final sample regardless of the remainder and is never yielded twice.
// A zero-length road yields a single point, as does one whose length is not
// finite; step <= 0 yields Start and End.
func (r Road) Samples(step float64) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		length := r.Length()
		if length == 0 || math.IsInf(length, 0) || math.IsNaN(length) {
			yield(r.Start)
			return
		}
		if !yield(r.Start) {
			return
		}
		if step > 0 {
			dx := (r.End.Lat - r.Start.Lat) / length
			dy := (r.End.Lon - r.Start.Lon) / length
			for n := 1; float64(n)*step < length; n++ {
				d := float64(n) * step
				if !yield(Point{Lat: r.Start.Lat + dx*d, Lon: r.Start.Lon + dy*d}) {
					return
				}
			}
		}
		yield(r.End)
	}
}
