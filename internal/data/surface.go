package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roadroute/editor/internal/world"
)

// SurfaceStyle holds creation defaults and the draw colour for one surface.
type SurfaceStyle struct {
	Surface    string     `yaml:"surface"`
	SpeedLimit float64    `yaml:"speed_limit"`
	LaneCount  int        `yaml:"lane_count"`
	Color      [4]float32 `yaml:"color"` // RGBA, 0.0-1.0
}

type surfaceListFile struct {
	Surfaces []SurfaceStyle `yaml:"surfaces"`
}

// SurfaceTable maps every surface to its style. Surfaces missing from the
// file keep the built-in style.
type SurfaceTable struct {
	styles map[world.Surface]SurfaceStyle
}

// DefaultSurfaceTable returns the built-in styles.
func DefaultSurfaceTable() *SurfaceTable {
	return &SurfaceTable{styles: map[world.Surface]SurfaceStyle{
		world.SurfaceAsphalt: {Surface: "asphalt", SpeedLimit: 50, LaneCount: 1, Color: [4]float32{0.3529, 0.3529, 0.3529, 1}},
		world.SurfaceDirt:    {Surface: "dirt", SpeedLimit: 30, LaneCount: 1, Color: [4]float32{0.5, 0.5, 0.5, 1}},
		world.SurfaceGravel:  {Surface: "gravel", SpeedLimit: 40, LaneCount: 1, Color: [4]float32{0.8, 0.8, 0.8, 1}},
		world.SurfaceOther:   {Surface: "other", SpeedLimit: 50, LaneCount: 1, Color: [4]float32{0, 0, 0, 1}},
	}}
}

// LoadSurfaceTable loads surfaces.yaml over the built-in styles. A missing
// file yields the built-in table.
func LoadSurfaceTable(path string) (*SurfaceTable, error) {
	t := DefaultSurfaceTable()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read surface list: %w", err)
	}
	var f surfaceListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse surface list: %w", err)
	}
	for _, st := range f.Surfaces {
		s := world.ParseSurface(st.Surface)
		if s.String() != st.Surface {
			return nil, fmt.Errorf("parse surface list: unknown surface %q", st.Surface)
		}
		t.styles[s] = st
	}
	return t, nil
}

// Get returns the style for s.
func (t *SurfaceTable) Get(s world.Surface) SurfaceStyle {
	return t.styles[s]
}

// Count returns the number of styled surfaces.
func (t *SurfaceTable) Count() int {
	return len(t.styles)
}

// ApplyDefaults fills a zero speed limit or lane count from the road's surface.
func (t *SurfaceTable) ApplyDefaults(r world.Road) world.Road {
	st := t.Get(r.Surface)
	if r.SpeedLimit == 0 {
		r.SpeedLimit = st.SpeedLimit
	}
	if r.LaneCount == 0 {
		r.LaneCount = st.LaneCount
	}
	return r
}
