package editor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roadroute/editor/internal/core/event"
	"github.com/roadroute/editor/internal/data"
	"github.com/roadroute/editor/internal/world"
)

// WorkingPath returns the read-write dataset path of kind.
func (e *Editor) WorkingPath(kind world.Kind) string {
	if kind == world.KindRoad {
		return e.paths.Roads
	}
	return e.paths.Intersections
}

// SeedPath returns the read-only seed dataset path of kind.
func (e *Editor) SeedPath(kind world.Kind) string {
	if kind == world.KindRoad {
		return e.paths.SeedRoads
	}
	return e.paths.SeedIntersections
}

// Load replaces the store of kind with the table at path (the working
// dataset when path is empty). The file is parsed completely before the
// store is swapped, so a failed load leaves the store untouched. Rows
// without an ID (seed files) are stamped with the smallest free IDs. Loads
// are not recorded in the history.
func (e *Editor) Load(kind world.Kind, path string) error {
	if path == "" {
		path = e.WorkingPath(kind)
	}
	var n, stamped int
	switch kind {
	case world.KindRoad:
		roads, err := data.LoadRoads(path, e.paths.Encoding)
		if err != nil {
			return err
		}
		e.roads.Replace(roads)
		stamped = e.roads.StampUnassigned()
		n = len(roads)
	case world.KindIntersection:
		xs, err := data.LoadIntersections(path, e.paths.Encoding)
		if err != nil {
			return err
		}
		e.intersections.Replace(xs)
		stamped = e.intersections.StampUnassigned()
		n = len(xs)
	default:
		return fmt.Errorf("load: unknown kind %v", kind)
	}

	event.Emit(e.bus, event.StoreReplaced{Kind: kind, Count: n})
	e.observe()
	e.log.Info("dataset loaded",
		zap.Stringer("kind", kind),
		zap.String("path", path),
		zap.Int("count", n),
		zap.Int("stamped", stamped),
	)
	return nil
}

// LoadStartup loads both kinds from the working dataset, falling back to the
// seed dataset when no working file exists yet. A kind with neither file
// starts empty and reports an empty path. It returns the paths used.
func (e *Editor) LoadStartup() (roadsPath, intersectionsPath string, err error) {
	roadsPath, err = e.loadStartup(world.KindRoad)
	if err != nil {
		return "", "", err
	}
	intersectionsPath, err = e.loadStartup(world.KindIntersection)
	if err != nil {
		return "", "", err
	}
	e.dirty = false
	return roadsPath, intersectionsPath, nil
}

func (e *Editor) loadStartup(kind world.Kind) (string, error) {
	for _, p := range []string{e.WorkingPath(kind), e.SeedPath(kind)} {
		if p != "" && fileExists(p) {
			return p, e.Load(kind, p)
		}
	}
	e.log.Warn("no dataset found, starting empty", zap.Stringer("kind", kind))
	return "", nil
}

// Dump overwrites the working dataset of kind with the store contents.
func (e *Editor) Dump(kind world.Kind) error {
	path := e.WorkingPath(kind)
	var err error
	switch kind {
	case world.KindRoad:
		err = data.DumpRoads(path, e.roads.Snapshot())
	case world.KindIntersection:
		err = data.DumpIntersections(path, e.intersections.Snapshot())
	default:
		err = fmt.Errorf("dump: unknown kind %v", kind)
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	e.metrics.SaveTotal.WithLabelValues("csv", result).Inc()
	return err
}

// Reset empties the store of kind without recording history.
func (e *Editor) Reset(kind world.Kind) {
	switch kind {
	case world.KindRoad:
		e.roads.Reset()
	case world.KindIntersection:
		e.intersections.Reset()
	default:
		panic(fmt.Sprintf("editor: unknown kind %v", kind))
	}
	e.dirty = true
	event.Emit(e.bus, event.StoreReplaced{Kind: kind})
	e.observe()
	e.log.Info("store reset", zap.Stringer("kind", kind))
}

// Save dumps both working datasets and, when configured, mirrors both
// snapshots. The dirty flag is cleared only when everything succeeded.
func (e *Editor) Save(ctx context.Context) error {
	if err := e.Dump(world.KindRoad); err != nil {
		return err
	}
	if err := e.Dump(world.KindIntersection); err != nil {
		return err
	}
	if e.mirror != nil {
		if err := e.mirrorSave(ctx); err != nil {
			e.metrics.SaveTotal.WithLabelValues("mirror", "error").Inc()
			return fmt.Errorf("mirror snapshot: %w", err)
		}
		e.metrics.SaveTotal.WithLabelValues("mirror", "ok").Inc()
	}

	e.dirty = false
	event.Emit(e.bus, event.Saved{Roads: e.roads.Len(), Intersections: e.intersections.Len()})
	e.log.Info("datasets saved",
		zap.Int("roads", e.roads.Len()),
		zap.Int("intersections", e.intersections.Len()),
		zap.Bool("mirrored", e.mirror != nil),
	)
	return nil
}

func (e *Editor) mirrorSave(ctx context.Context) error {
	if err := e.mirror.SaveRoads(ctx, e.roads.Snapshot()); err != nil {
		return err
	}
	return e.mirror.SaveIntersections(ctx, e.intersections.Snapshot())
}

// Pull replaces both stores with the mirrored snapshots. Both are fetched
// before either store is touched.
func (e *Editor) Pull(ctx context.Context) error {
	if e.mirror == nil {
		return ErrNoMirror
	}
	roads, err := e.mirror.LoadRoads(ctx)
	if err != nil {
		return fmt.Errorf("pull roads: %w", err)
	}
	xs, err := e.mirror.LoadIntersections(ctx)
	if err != nil {
		return fmt.Errorf("pull intersections: %w", err)
	}
	e.roads.Replace(roads)
	e.intersections.Replace(xs)
	e.dirty = true
	event.Emit(e.bus, event.StoreReplaced{Kind: world.KindRoad, Count: len(roads)})
	event.Emit(e.bus, event.StoreReplaced{Kind: world.KindIntersection, Count: len(xs)})
	e.observe()
	e.log.Info("snapshot pulled", zap.Int("roads", len(roads)), zap.Int("intersections", len(xs)))
	return nil
}
