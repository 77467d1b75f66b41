package world

import (
	"fmt"
	"strings"
)

// Kind names which store an entity belongs to.
type Kind int

const (
	KindRoad Kind = iota
	KindIntersection
)

func (k Kind) String() string {
	switch k {
	case KindRoad:
		return "road"
	case KindIntersection:
		return "intersection"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts "road"/"roads" and "intersection"/"intersections"
// (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "road", "roads":
		return KindRoad, nil
	case "intersection", "intersections":
		return KindIntersection, nil
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}

// Surface is the road-surface category.
type Surface int

const (
	SurfaceAsphalt Surface = iota
	SurfaceDirt
	SurfaceGravel
	SurfaceOther
)

// Surfaces lists every surface in declaration order.
var Surfaces = []Surface{SurfaceAsphalt, SurfaceDirt, SurfaceGravel, SurfaceOther}

func (s Surface) String() string {
	switch s {
	case SurfaceAsphalt:
		return "asphalt"
	case SurfaceDirt:
		return "dirt"
	case SurfaceGravel:
		return "gravel"
	}
	return "other"
}

// ParseSurface maps a label to a Surface. Unknown labels map to SurfaceOther,
// the same way they are drawn.
func ParseSurface(s string) Surface {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asphalt":
		return SurfaceAsphalt
	case "dirt":
		return SurfaceDirt
	case "gravel":
		return SurfaceGravel
	}
	return SurfaceOther
}
