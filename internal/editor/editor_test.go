package editor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roadroute/editor/internal/config"
	"github.com/roadroute/editor/internal/core/event"
	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/data"
	"github.com/roadroute/editor/internal/editor"
	"github.com/roadroute/editor/internal/history"
	"github.com/roadroute/editor/internal/metrics"
	"github.com/roadroute/editor/internal/world"
)

func dataPaths(t *testing.T) config.DataConfig {
	dir := t.TempDir()
	return config.DataConfig{
		SeedRoads:         filepath.Join(dir, "sample", "roads.csv"),
		SeedIntersections: filepath.Join(dir, "sample", "intersections.csv"),
		Roads:             filepath.Join(dir, "data", "roads.csv"),
		Intersections:     filepath.Join(dir, "data", "intersections.csv"),
		Encoding:          "utf-8",
	}
}

func newEditor(t *testing.T, opts editor.Options) *editor.Editor {
	t.Helper()
	if opts.Data == (config.DataConfig{}) {
		opts.Data = dataPaths(t)
	}
	return editor.New(opts, zap.NewNop())
}

func road(x1, y1, x2, y2 float64) world.Road {
	return world.Road{Start: world.Point{Lat: x1, Lon: y1}, End: world.Point{Lat: x2, Lon: y2}}
}

func TestCreateRoad_appliesSurfaceDefaults(t *testing.T) {
	e := newEditor(t, editor.Options{})

	r := e.CreateRoad(world.Road{Name: "Mill Lane", Surface: world.SurfaceDirt})
	assert.Equal(t, store.ID(1), r.ID)
	assert.Equal(t, 30.0, r.SpeedLimit)
	assert.Equal(t, 1, r.LaneCount)

	r = e.CreateRoad(world.Road{SpeedLimit: 80, LaneCount: 2})
	assert.Equal(t, store.ID(2), r.ID)
	assert.Equal(t, 80.0, r.SpeedLimit)
	assert.Equal(t, 2, r.LaneCount)

	assert.Equal(t, 2, e.HistoryDepth())
	assert.True(t, e.Dirty())
}

func TestDestroy_thenUndoRestoresIdentity(t *testing.T) {
	e := newEditor(t, editor.Options{})
	for i := 0; i < 3; i++ {
		e.CreateIntersection(world.Intersection{Point: world.Point{Lat: float64(i * 100)}})
	}

	require.True(t, e.Destroy(world.KindIntersection, 2))
	_, ok := e.ResolveIntersection(2)
	assert.False(t, ok)

	entry, err := e.Undo()
	require.NoError(t, err)
	require.IsType(t, history.IntersectionDestroyed{}, entry)

	x, ok := e.ResolveIntersection(2)
	require.True(t, ok)
	assert.Equal(t, 100.0, x.Point.Lat)

	var ids []store.ID
	for _, x := range e.Intersections() {
		ids = append(ids, x.ID)
	}
	assert.Equal(t, []store.ID{1, 2, 3}, ids)
}

func TestDestroy_sentinelAndUnknown(t *testing.T) {
	e := newEditor(t, editor.Options{})
	e.CreateRoad(road(0, 0, 10, 0))

	assert.False(t, e.Destroy(world.KindRoad, -1))
	assert.False(t, e.Destroy(world.KindRoad, 42))
	assert.Equal(t, 1, e.Count(world.KindRoad))
	assert.Equal(t, 1, e.HistoryDepth(), "failed destroys are not recorded")
}

func TestDestroyAt_recordsOneEntryPerHit(t *testing.T) {
	e := newEditor(t, editor.Options{})
	e.CreateRoad(road(0, 0, 20, 0))
	e.CreateRoad(road(0, 2, 20, 2))
	e.CreateRoad(road(0, 100, 20, 100))

	destroyed := e.DestroyAt(world.KindRoad, world.Point{Lat: 10, Lon: 1})
	assert.Equal(t, []store.ID{1, 2}, destroyed)
	assert.Equal(t, 1, e.Count(world.KindRoad))
	assert.Equal(t, 5, e.HistoryDepth())

	_, err := e.Undo()
	require.NoError(t, err)
	_, err = e.Undo()
	require.NoError(t, err)
	assert.Equal(t, 3, e.Count(world.KindRoad))
}

func TestCount_unknownKindPanics(t *testing.T) {
	e := newEditor(t, editor.Options{})
	assert.PanicsWithValue(t, "editor: unknown kind kind(7)", func() { e.Count(world.Kind(7)) })
}

func TestUndo_emptyIsNoop(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newEditor(t, editor.Options{Metrics: metrics.New(reg)})

	entry, err := e.Undo()
	assert.NoError(t, err)
	assert.Nil(t, entry)
	assert.False(t, e.Dirty())
}

func TestUndo_boundedHistory(t *testing.T) {
	e := newEditor(t, editor.Options{HistoryCapacity: 15})
	for i := 0; i < 20; i++ {
		e.CreateRoad(road(float64(i), 0, float64(i), 10))
	}
	for i := 0; i < 16; i++ {
		_, err := e.Undo()
		require.NoError(t, err)
	}

	var ids []store.ID
	for _, r := range e.Roads() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []store.ID{1, 2, 3, 4, 5}, ids)
	assert.Zero(t, e.HistoryDepth())
}

func TestUndo_collisionAfterLoad(t *testing.T) {
	paths := dataPaths(t)
	e := newEditor(t, editor.Options{Data: paths})
	e.CreateRoad(road(0, 0, 10, 0))
	require.True(t, e.Destroy(world.KindRoad, 1))

	// A load reuses id 1 without recording history.
	require.NoError(t, data.DumpRoads(paths.Roads, []world.Road{{ID: 1, Name: "other"}}))
	require.NoError(t, e.Load(world.KindRoad, ""))

	_, err := e.Undo()
	assert.ErrorIs(t, err, history.ErrIDInUse)
	r, ok := e.ResolveRoad(1)
	require.True(t, ok)
	assert.Equal(t, "other", r.Name)
	assert.Equal(t, 1, e.Count(world.KindRoad))
	assert.Equal(t, 1, e.HistoryDepth(), "the failed entry is dropped")
}

func TestLoadStartup_prefersWorkingDataset(t *testing.T) {
	paths := dataPaths(t)
	require.NoError(t, data.DumpRoads(paths.SeedRoads, []world.Road{{ID: 1, Name: "seed"}}))
	require.NoError(t, data.DumpIntersections(paths.SeedIntersections, []world.Intersection{{ID: 1}}))

	e := newEditor(t, editor.Options{Data: paths})
	roadsPath, xPath, err := e.LoadStartup()
	require.NoError(t, err)
	assert.Equal(t, paths.SeedRoads, roadsPath)
	assert.Equal(t, paths.SeedIntersections, xPath)
	assert.False(t, e.Dirty())
	assert.Zero(t, e.HistoryDepth(), "loads are not recorded")

	require.NoError(t, data.DumpRoads(paths.Roads, []world.Road{{ID: 4, Name: "working"}, {ID: 9, Name: "second"}}))
	e = newEditor(t, editor.Options{Data: paths})
	roadsPath, _, err = e.LoadStartup()
	require.NoError(t, err)
	assert.Equal(t, paths.Roads, roadsPath)
	assert.Equal(t, 2, e.Count(world.KindRoad))

	r := e.CreateRoad(world.Road{})
	assert.Equal(t, store.ID(1), r.ID, "smallest free id after load")
}

func TestLoad_failureKeepsStore(t *testing.T) {
	paths := dataPaths(t)
	e := newEditor(t, editor.Options{Data: paths})
	e.CreateIntersection(world.Intersection{Point: world.Point{Lat: 1, Lon: 1}})

	require.NoError(t, os.MkdirAll(filepath.Dir(paths.Intersections), 0o755))
	require.NoError(t, os.WriteFile(paths.Intersections, []byte("_id,lat,lon,traffic_lights\n1,abc,2,true\n"), 0o644))

	err := e.Load(world.KindIntersection, "")
	var rowErr *data.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "lat", rowErr.Field)
	assert.Equal(t, 1, e.Count(world.KindIntersection))
}

func TestDumpLoad_roundTrip(t *testing.T) {
	paths := dataPaths(t)
	e := newEditor(t, editor.Options{Data: paths})
	e.CreateRoad(world.Road{Name: "A", Start: world.Point{Lat: 1.5, Lon: 2}, End: world.Point{Lat: 3, Lon: 4.25}, Surface: world.SurfaceGravel})
	e.CreateRoad(world.Road{Name: "B", End: world.Point{Lat: 10}})
	require.True(t, e.Destroy(world.KindRoad, 1))
	want := e.Roads()

	require.NoError(t, e.Dump(world.KindRoad))
	e.Reset(world.KindRoad)
	assert.Zero(t, e.Count(world.KindRoad))
	require.NoError(t, e.Load(world.KindRoad, ""))
	assert.Equal(t, want, e.Roads())
}

func TestEvents_emittedPerCommand(t *testing.T) {
	bus := event.NewBus()
	e := newEditor(t, editor.Options{Bus: bus})

	var created, destroyed, undone int
	event.Subscribe(bus, func(event.EntityCreated) { created++ })
	event.Subscribe(bus, func(event.EntityDestroyed) { destroyed++ })
	event.Subscribe(bus, func(ev event.Undone) {
		undone++
		assert.Equal(t, "destroy", ev.Op)
		assert.Equal(t, store.ID(1), ev.ID)
	})

	e.CreateIntersection(world.Intersection{})
	e.Destroy(world.KindIntersection, 1)
	_, err := e.Undo()
	require.NoError(t, err)

	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, destroyed)
	assert.Equal(t, 1, undone)
}

func TestMetrics_trackStores(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	e := newEditor(t, editor.Options{Metrics: m})

	e.CreateRoad(road(0, 0, 1, 1))
	e.CreateRoad(road(0, 0, 2, 2))
	e.Destroy(world.KindRoad, 2)
	_, _ = e.Undo()
	_, _ = e.Undo()
	_, _ = e.Undo()
	_, _ = e.Undo()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntitiesCreated.WithLabelValues("road")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntitiesDestroyed.WithLabelValues("road")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Entities.WithLabelValues("road")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.UndoTotal.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UndoTotal.WithLabelValues("empty")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HistoryDepth))
}

type fakeMirror struct {
	roads   []world.Road
	xs      []world.Intersection
	saveErr error
}

func (m *fakeMirror) SaveRoads(_ context.Context, roads []world.Road) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.roads = roads
	return nil
}

func (m *fakeMirror) SaveIntersections(_ context.Context, xs []world.Intersection) error {
	m.xs = xs
	return nil
}

func (m *fakeMirror) LoadRoads(context.Context) ([]world.Road, error) { return m.roads, nil }

func (m *fakeMirror) LoadIntersections(context.Context) ([]world.Intersection, error) {
	return m.xs, nil
}

func TestSave_mirrorsAndClearsDirty(t *testing.T) {
	paths := dataPaths(t)
	mirror := &fakeMirror{}
	e := newEditor(t, editor.Options{Data: paths, Mirror: mirror})
	e.CreateRoad(road(0, 0, 5, 5))
	e.CreateIntersection(world.Intersection{TrafficLights: true})

	require.NoError(t, e.Save(context.Background()))
	assert.False(t, e.Dirty())
	assert.Len(t, mirror.roads, 1)
	assert.Len(t, mirror.xs, 1)

	roads, err := data.LoadRoads(paths.Roads, "utf-8")
	require.NoError(t, err)
	assert.Equal(t, e.Roads(), roads)

	e.Reset(world.KindRoad)
	e.Reset(world.KindIntersection)
	require.NoError(t, e.Pull(context.Background()))
	assert.Equal(t, 1, e.Count(world.KindRoad))
	assert.Equal(t, 1, e.Count(world.KindIntersection))
}

func TestSave_mirrorFailureKeepsDirty(t *testing.T) {
	boom := errors.New("connection refused")
	e := newEditor(t, editor.Options{Mirror: &fakeMirror{saveErr: boom}})
	e.CreateRoad(road(0, 0, 5, 5))

	err := e.Save(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, e.Dirty())
}

func TestPull_withoutMirror(t *testing.T) {
	e := newEditor(t, editor.Options{})
	assert.ErrorIs(t, e.Pull(context.Background()), editor.ErrNoMirror)
}

func TestLoadStartup_noDatasetsStartsEmpty(t *testing.T) {
	e := newEditor(t, editor.Options{})
	roadsPath, xPath, err := e.LoadStartup()
	require.NoError(t, err)
	assert.Empty(t, roadsPath)
	assert.Empty(t, xPath)
	assert.Zero(t, e.Count(world.KindRoad))

	r := e.CreateRoad(world.Road{})
	assert.Equal(t, store.ID(1), r.ID)
}
