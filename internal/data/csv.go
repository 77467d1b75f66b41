package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/world"
)

var (
	roadHeader         = []string{"_id", "name", "start_lat", "stop_lat", "start_lon", "stop_lon", "speed_limit", "lane_count", "road_type"}
	intersectionHeader = []string{"_id", "lat", "lon", "traffic_lights"}
)

// ErrMissingColumn is wrapped by RowError when the header lacks a required field.
var ErrMissingColumn = errors.New("missing column")

// RowError describes the first row of a tabular file that could not be
// turned into an entity. Line is 1-based and counts the header.
type RowError struct {
	Path  string
	Line  int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: field %s: %v", e.Path, e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// LoadRoads reads a road table. encoding is a charset label ("" = utf-8).
// The whole load fails on the first malformed row.
func LoadRoads(path, encoding string) ([]world.Road, error) {
	var out []world.Road
	err := readTable(path, encoding, roadHeader[1:], func(r *row) {
		out = append(out, world.Road{
			ID:         r.id(),
			Name:       r.str("name"),
			Start:      world.Point{Lat: r.float("start_lat"), Lon: r.float("start_lon")},
			End:        world.Point{Lat: r.float("stop_lat"), Lon: r.float("stop_lon")},
			SpeedLimit: r.float("speed_limit"),
			LaneCount:  r.count("lane_count"),
			Surface:    world.ParseSurface(r.str("road_type")),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load roads %s: %w", path, err)
	}
	return out, nil
}

// LoadIntersections reads an intersection table.
func LoadIntersections(path, encoding string) ([]world.Intersection, error) {
	var out []world.Intersection
	err := readTable(path, encoding, intersectionHeader[1:], func(r *row) {
		out = append(out, world.Intersection{
			ID:            r.id(),
			Point:         world.Point{Lat: r.float("lat"), Lon: r.float("lon")},
			TrafficLights: r.boolean("traffic_lights"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load intersections %s: %w", path, err)
	}
	return out, nil
}

// DumpRoads overwrites path with the given roads, in order.
func DumpRoads(path string, roads []world.Road) error {
	records := make([][]string, 0, len(roads))
	for _, r := range roads {
		records = append(records, []string{
			formatID(r.ID),
			r.Name,
			formatFloat(r.Start.Lat),
			formatFloat(r.End.Lat),
			formatFloat(r.Start.Lon),
			formatFloat(r.End.Lon),
			formatFloat(r.SpeedLimit),
			strconv.Itoa(r.LaneCount),
			r.Surface.String(),
		})
	}
	if err := writeTable(path, roadHeader, records); err != nil {
		return fmt.Errorf("dump roads %s: %w", path, err)
	}
	return nil
}

// DumpIntersections overwrites path with the given intersections, in order.
func DumpIntersections(path string, xs []world.Intersection) error {
	records := make([][]string, 0, len(xs))
	for _, x := range xs {
		records = append(records, []string{
			formatID(x.ID),
			formatFloat(x.Point.Lat),
			formatFloat(x.Point.Lon),
			strconv.FormatBool(x.TrafficLights),
		})
	}
	if err := writeTable(path, intersectionHeader, records); err != nil {
		return fmt.Errorf("dump intersections %s: %w", path, err)
	}
	return nil
}

func readTable(path, encoding string, required []string, emit func(*row)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var src io.Reader = f
	if encoding != "" && !strings.EqualFold(encoding, "utf-8") {
		enc, err := htmlindex.Get(encoding)
		if err != nil {
			return fmt.Errorf("charset %q: %w", encoding, err)
		}
		src = transform.NewReader(f, enc.NewDecoder())
	}

	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return &RowError{Path: path, Line: 1, Err: errors.New("empty file, header row expected")}
	}
	if err != nil {
		return &RowError{Path: path, Line: 1, Err: err}
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		cols[name] = i
	}
	if _, ok := cols["_id"]; !ok {
		if i, ok := cols["id"]; ok {
			cols["_id"] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return &RowError{Path: path, Line: 1, Field: name, Err: ErrMissingColumn}
		}
	}

	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &RowError{Path: path, Line: line, Err: err}
		}
		r := &row{path: path, line: line, cols: cols, fields: fields}
		emit(r)
		if r.err != nil {
			return r.err
		}
	}
}

// writeTable writes to a temp file next to path and renames it over path,
// so a reader never sees a half-written table.
func writeTable(path string, header []string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// row decodes typed fields by column name and keeps the first failure.
type row struct {
	path   string
	line   int
	cols   map[string]int
	fields []string
	err    error
}

func (r *row) str(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

func (r *row) fail(name string, err error) {
	if r.err == nil {
		r.err = &RowError{Path: r.path, Line: r.line, Field: name, Err: err}
	}
}

func (r *row) float(name string) float64 {
	s := strings.TrimSpace(r.str(name))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(name, err)
		return 0
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		r.fail(name, fmt.Errorf("%q is not a finite number", s))
		return 0
	}
	return v
}

// count accepts both "2" and "2.0".
func (r *row) count(name string) int {
	s := strings.TrimSpace(r.str(name))
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(name, err)
		return 0
	}
	if math.IsInf(v, 0) || math.IsNaN(v) || v != math.Trunc(v) {
		r.fail(name, fmt.Errorf("%q is not a whole number", s))
		return 0
	}
	return int(v)
}

func (r *row) boolean(name string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.str(name)))
	if err != nil {
		r.fail(name, err)
	}
	return v
}

// id returns 0 (unassigned) for an absent or empty id column.
func (r *row) id() store.ID {
	s := strings.TrimSpace(r.str("_id"))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		r.fail("_id", err)
		return 0
	}
	if v < 0 {
		r.fail("_id", fmt.Errorf("id %d is negative", v))
		return 0
	}
	return store.ID(v)
}

func formatID(id store.ID) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(int(id))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
