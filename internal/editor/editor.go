// Package editor is the edit coordinator: the single owner of the road and
// intersection stores and of the undo history. Every mutation issued by the
// console, scripts or a canvas goes through an *Editor, which fixes the order
// store → history → event for each command.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/roadroute/editor/internal/config"
	"github.com/roadroute/editor/internal/core/event"
	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/data"
	"github.com/roadroute/editor/internal/history"
	"github.com/roadroute/editor/internal/hittest"
	"github.com/roadroute/editor/internal/metrics"
	"github.com/roadroute/editor/internal/world"
)

// ErrNoMirror is returned by Pull when no snapshot mirror is configured.
var ErrNoMirror = errors.New("editor: no snapshot mirror configured")

// Mirror keeps a full copy of both stores outside the CSV datasets.
// Implemented by persist.SnapshotRepo.
type Mirror interface {
	SaveRoads(ctx context.Context, roads []world.Road) error
	SaveIntersections(ctx context.Context, xs []world.Intersection) error
	LoadRoads(ctx context.Context) ([]world.Road, error)
	LoadIntersections(ctx context.Context) ([]world.Intersection, error)
}

// Options configures an Editor. Zero fields fall back to defaults.
type Options struct {
	Data            config.DataConfig
	HitTest         hittest.Params
	HistoryCapacity int
	Surfaces        *data.SurfaceTable
	Bus             *event.Bus
	Metrics         *metrics.Metrics
	Mirror          Mirror // nil disables Save mirroring and Pull
}

// Editor is not safe for concurrent use; it is owned by the edit loop.
type Editor struct {
	roads         *store.Store[world.Road]
	intersections *store.Store[world.Intersection]
	history       *history.Stack

	paths    config.DataConfig
	hit      hittest.Params
	surfaces *data.SurfaceTable
	bus      *event.Bus
	metrics  *metrics.Metrics
	mirror   Mirror
	log      *zap.Logger

	dirty bool
}

// Stats summarizes the editor state.
type Stats struct {
	Roads         int
	Intersections int
	HistoryDepth  int
	HistoryCap    int
	Dirty         bool
}

func New(opts Options, log *zap.Logger) *Editor {
	if opts.Surfaces == nil {
		opts.Surfaces = data.DefaultSurfaceTable()
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.HitTest == (hittest.Params{}) {
		opts.HitTest = hittest.DefaultParams()
	}
	if opts.Data == (config.DataConfig{}) {
		opts.Data = config.Default().Data
	}

	e := &Editor{
		roads:         store.New[world.Road]("road"),
		intersections: store.New[world.Intersection]("intersection"),
		paths:         opts.Data,
		hit:           opts.HitTest,
		surfaces:      opts.Surfaces,
		bus:           opts.Bus,
		metrics:       opts.Metrics,
		mirror:        opts.Mirror,
		log:           log,
	}
	e.history = history.New(opts.HistoryCapacity, e.roads, e.intersections, log)
	e.observe()
	return e
}

// Bus returns the event bus the editor emits into.
func (e *Editor) Bus() *event.Bus { return e.bus }

// Surfaces returns the surface style table.
func (e *Editor) Surfaces() *data.SurfaceTable { return e.surfaces }

// CreateRoad stores r under a fresh ID, records it and returns the stored copy.
// A zero speed limit or lane count is filled from the surface table.
func (e *Editor) CreateRoad(r world.Road) world.Road {
	r = e.roads.Create(e.surfaces.ApplyDefaults(r))
	e.history.Record(history.RoadCreated{Road: r})
	e.created(world.KindRoad, r.ID)
	return r
}

// CreateIntersection stores x under a fresh ID, records it and returns the stored copy.
func (e *Editor) CreateIntersection(x world.Intersection) world.Intersection {
	x = e.intersections.Create(x)
	e.history.Record(history.IntersectionCreated{Intersection: x})
	e.created(world.KindIntersection, x.ID)
	return x
}

func (e *Editor) created(kind world.Kind, id store.ID) {
	e.dirty = true
	event.Emit(e.bus, event.EntityCreated{Kind: kind, ID: id})
	e.metrics.EntitiesCreated.WithLabelValues(kind.String()).Inc()
	e.observe()
	e.log.Debug("entity created", zap.Stringer("kind", kind), zap.Int32("id", int32(id)))
}

// Destroy removes one entity and records its snapshot so it can be undone.
// A negative ID is the "nothing to destroy" sentinel and is ignored silently;
// an unknown ID is logged and ignored. Reports whether something was removed.
func (e *Editor) Destroy(kind world.Kind, id store.ID) bool {
	if id < 0 {
		return false
	}
	var ok bool
	switch kind {
	case world.KindRoad:
		var r world.Road
		var idx int
		if r, idx, ok = e.roads.Destroy(id); ok {
			e.history.Record(history.RoadDestroyed{Road: r, Index: idx})
		}
	case world.KindIntersection:
		var x world.Intersection
		var idx int
		if x, idx, ok = e.intersections.Destroy(id); ok {
			e.history.Record(history.IntersectionDestroyed{Intersection: x, Index: idx})
		}
	default:
		panic(fmt.Sprintf("editor: unknown kind %v", kind))
	}
	if !ok {
		e.log.Warn("destroy: entity not found", zap.Stringer("kind", kind), zap.Int32("id", int32(id)))
		return false
	}

	e.dirty = true
	event.Emit(e.bus, event.EntityDestroyed{Kind: kind, ID: id})
	e.metrics.EntitiesDestroyed.WithLabelValues(kind.String()).Inc()
	e.observe()
	e.log.Debug("entity destroyed", zap.Stringer("kind", kind), zap.Int32("id", int32(id)))
	return true
}

// HitTest returns the IDs of entities of kind within reach of p.
func (e *Editor) HitTest(kind world.Kind, p world.Point) []store.ID {
	switch kind {
	case world.KindRoad:
		return hittest.Roads(e.roads.Snapshot(), p, e.hit)
	case world.KindIntersection:
		return hittest.Intersections(e.intersections.Snapshot(), p, e.hit)
	}
	panic(fmt.Sprintf("editor: unknown kind %v", kind))
}

// DestroyAt hit-tests p and destroys every hit, one history entry each.
// It returns the destroyed IDs.
func (e *Editor) DestroyAt(kind world.Kind, p world.Point) []store.ID {
	hits := e.HitTest(kind, p)
	destroyed := hits[:0]
	for _, id := range hits {
		if e.Destroy(kind, id) {
			destroyed = append(destroyed, id)
		}
	}
	return destroyed
}

// ResolveRoad returns a copy of the road with the given ID.
func (e *Editor) ResolveRoad(id store.ID) (world.Road, bool) {
	return e.roads.Resolve(id)
}

// ResolveIntersection returns a copy of the intersection with the given ID.
func (e *Editor) ResolveIntersection(id store.ID) (world.Intersection, bool) {
	return e.intersections.Resolve(id)
}

// Roads returns a snapshot of the road store, in order.
func (e *Editor) Roads() []world.Road { return e.roads.Snapshot() }

// Intersections returns a snapshot of the intersection store, in order.
func (e *Editor) Intersections() []world.Intersection { return e.intersections.Snapshot() }

// Count returns the number of entities of kind.
func (e *Editor) Count(kind world.Kind) int {
	switch kind {
	case world.KindRoad:
		return e.roads.Len()
	case world.KindIntersection:
		return e.intersections.Len()
	}
	panic(fmt.Sprintf("editor: unknown kind %v", kind))
}

// Undo reverses the most recent recorded edit. It returns a nil entry when
// there was nothing to undo.
func (e *Editor) Undo() (history.Entry, error) {
	entry, err := e.history.Undo()
	switch {
	case err != nil:
		e.metrics.UndoTotal.WithLabelValues("failed").Inc()
		e.log.Error("undo failed", zap.Error(err))
		e.observe()
		return entry, err
	case entry == nil:
		e.metrics.UndoTotal.WithLabelValues("empty").Inc()
		return nil, nil
	}

	e.dirty = true
	event.Emit(e.bus, event.Undone{Kind: entry.Kind(), ID: entryID(entry), Op: entry.Op().String()})
	e.metrics.UndoTotal.WithLabelValues("applied").Inc()
	e.observe()
	return entry, nil
}

// HistoryDepth returns the number of undoable edits.
func (e *Editor) HistoryDepth() int { return e.history.Len() }

// Stats returns store sizes and history depth.
func (e *Editor) Stats() Stats {
	return Stats{
		Roads:         e.roads.Len(),
		Intersections: e.intersections.Len(),
		HistoryDepth:  e.history.Len(),
		HistoryCap:    e.history.Cap(),
		Dirty:         e.dirty,
	}
}

// Dirty reports whether anything changed since the last Save.
func (e *Editor) Dirty() bool { return e.dirty }

func (e *Editor) observe() {
	e.metrics.Entities.WithLabelValues(world.KindRoad.String()).Set(float64(e.roads.Len()))
	e.metrics.Entities.WithLabelValues(world.KindIntersection.String()).Set(float64(e.intersections.Len()))
	e.metrics.HistoryDepth.Set(float64(e.history.Len()))
}

func entryID(entry history.Entry) store.ID {
	switch v := entry.(type) {
	case history.RoadCreated:
		return v.Road.ID
	case history.RoadDestroyed:
		return v.Road.ID
	case history.IntersectionCreated:
		return v.Intersection.ID
	case history.IntersectionDestroyed:
		return v.Intersection.ID
	}
	return 0
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
