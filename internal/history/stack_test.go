package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/history"
	"github.com/roadroute/editor/internal/world"
)

type fixture struct {
	roads         *store.Store[world.Road]
	intersections *store.Store[world.Intersection]
	hist          *history.Stack
}

func newFixture(capacity int) fixture {
	f := fixture{
		roads:         store.New[world.Road]("road"),
		intersections: store.New[world.Intersection]("intersection"),
	}
	f.hist = history.New(capacity, f.roads, f.intersections, zap.NewNop())
	return f
}

func (f fixture) createRoad(name string) world.Road {
	r := f.roads.Create(world.Road{Name: name, End: world.Point{Lat: 10}})
	f.hist.Record(history.RoadCreated{Road: r})
	return r
}

func (f fixture) destroyRoad(id store.ID) {
	r, idx, ok := f.roads.Destroy(id)
	if ok {
		f.hist.Record(history.RoadDestroyed{Road: r, Index: idx})
	}
}

// TestUndo_emptyIsNoOp verifies undo on an empty stack does nothing.
func TestUndo_emptyIsNoOp(t *testing.T) {
	f := newFixture(0)

	e, err := f.hist.Undo()

	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Equal(t, history.DefaultCapacity, f.hist.Cap())
}

// TestUndo_invertsCreate verifies create then undo leaves the store empty.
func TestUndo_invertsCreate(t *testing.T) {
	f := newFixture(0)
	f.createRoad("R")

	e, err := f.hist.Undo()

	require.NoError(t, err)
	assert.Equal(t, history.OpCreate, e.Op())
	assert.Equal(t, 0, f.roads.Len())
	assert.Equal(t, 0, f.hist.Len())
}

// TestUndo_invertsDestroyPreservingID verifies the restored entity keeps its
// original identifier and position.
func TestUndo_invertsDestroyPreservingID(t *testing.T) {
	f := newFixture(0)
	f.roads.Replace([]world.Road{{ID: 1, Name: "A"}})
	original, _ := f.roads.Resolve(1)

	f.destroyRoad(1)
	_, err := f.hist.Undo()

	require.NoError(t, err)
	assert.Equal(t, []world.Road{original}, f.roads.Snapshot())
}

// TestUndo_restoresMiddlePosition verifies order is restored, not appended.
func TestUndo_restoresMiddlePosition(t *testing.T) {
	f := newFixture(0)
	f.createRoad("a")
	f.createRoad("b")
	f.createRoad("c")

	f.destroyRoad(2)
	_, err := f.hist.Undo()
	require.NoError(t, err)

	names := []string{}
	for _, r := range f.roads.Snapshot() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

// TestUndo_isNotRecorded verifies inverse operations never re-enter the stack.
func TestUndo_isNotRecorded(t *testing.T) {
	f := newFixture(0)
	f.createRoad("a")
	f.destroyRoad(1)
	require.Equal(t, 2, f.hist.Len())

	_, _ = f.hist.Undo()
	assert.Equal(t, 1, f.hist.Len())
	_, _ = f.hist.Undo()
	assert.Equal(t, 0, f.hist.Len())
	assert.Equal(t, 0, f.roads.Len())
}

// TestRecord_boundedFIFOEviction covers 20 creates with capacity 15.
func TestRecord_boundedFIFOEviction(t *testing.T) {
	f := newFixture(history.DefaultCapacity)
	for i := 0; i < 20; i++ {
		f.createRoad("r")
	}
	require.Equal(t, 15, f.hist.Len())

	for i := 0; i < 16; i++ {
		_, err := f.hist.Undo()
		require.NoError(t, err)
	}

	got := []store.ID{}
	for _, r := range f.roads.Snapshot() {
		got = append(got, r.ID)
	}
	assert.Equal(t, []store.ID{1, 2, 3, 4, 5}, got)
	assert.Equal(t, 0, f.hist.Len())
}

// TestRecord_entriesOldestFirst verifies eviction drops from the front.
func TestRecord_entriesOldestFirst(t *testing.T) {
	f := newFixture(2)
	a := f.createRoad("a")
	b := f.createRoad("b")
	c := f.createRoad("c")

	entries := f.hist.Entries()

	require.Len(t, entries, 2)
	assert.NotEqual(t, history.RoadCreated{Road: a}, entries[0])
	assert.Equal(t, history.RoadCreated{Road: b}, entries[0])
	assert.Equal(t, history.RoadCreated{Road: c}, entries[1])
}

// TestUndo_routesToOwningStore verifies each entry replays against its store.
func TestUndo_routesToOwningStore(t *testing.T) {
	f := newFixture(0)
	f.createRoad("a")
	x := f.intersections.Create(world.Intersection{Point: world.Point{Lat: 3}})
	f.hist.Record(history.IntersectionCreated{Intersection: x})

	e, err := f.hist.Undo()

	require.NoError(t, err)
	assert.Equal(t, world.KindIntersection, e.Kind())
	assert.Equal(t, 0, f.intersections.Len())
	assert.Equal(t, 1, f.roads.Len())
}

// TestUndo_intersectionDestroy restores an intersection with its id.
func TestUndo_intersectionDestroy(t *testing.T) {
	f := newFixture(0)
	x := f.intersections.Create(world.Intersection{TrafficLights: true})
	removed, idx, _ := f.intersections.Destroy(x.ID)
	f.hist.Record(history.IntersectionDestroyed{Intersection: removed, Index: idx})

	_, err := f.hist.Undo()

	require.NoError(t, err)
	got, ok := f.intersections.Resolve(x.ID)
	require.True(t, ok)
	assert.Equal(t, x, got)
}

// TestUndo_createAfterResetIsSilent verifies a missing id is tolerated.
func TestUndo_createAfterResetIsSilent(t *testing.T) {
	f := newFixture(0)
	f.createRoad("a")
	f.roads.Reset()

	_, err := f.hist.Undo()

	require.NoError(t, err)
	assert.Equal(t, 0, f.roads.Len())
}

// TestUndo_destroyCollidesWithUnrecordedEdit verifies the identity collision
// surfaces as an error and leaves the store untouched.
func TestUndo_destroyCollidesWithUnrecordedEdit(t *testing.T) {
	f := newFixture(0)
	f.createRoad("a")
	f.destroyRoad(1)
	f.roads.Replace([]world.Road{{ID: 1, Name: "loaded"}})

	e, err := f.hist.Undo()

	require.ErrorIs(t, err, history.ErrIDInUse)
	assert.Equal(t, history.OpDestroy, e.Op())
	got, _ := f.roads.Resolve(1)
	assert.Equal(t, "loaded", got.Name)
	assert.Equal(t, 1, f.hist.Len())
}
