package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/world"
)

// RegisterAll registers every editor command.
func RegisterAll(reg *Registry) {
	reg.Register("road", "road X1 Y1 X2 Y2 [name] [surface]", 4, 6, handleRoad)
	reg.Register("intersection", "intersection X Y [lights]", 2, 3, handleIntersection)
	reg.Register("destroy", "destroy road|intersection ID", 2, 2, handleDestroy)
	reg.Register("erase", "erase road|intersection X Y", 3, 3, handleErase)
	reg.Register("hit", "hit road|intersection X Y", 3, 3, handleHit)
	reg.Register("resolve", "resolve road|intersection ID", 2, 2, handleResolve)
	reg.Register("undo", "undo", 0, 0, handleUndo)
	reg.Register("list", "list road|intersection", 1, 1, handleList)
	reg.Register("load", "load road|intersection [path]", 1, 2, handleLoad)
	reg.Register("dump", "dump road|intersection", 1, 1, handleDump)
	reg.Register("reset", "reset road|intersection", 1, 1, handleReset)
	reg.Register("save", "save", 0, 0, handleSave)
	reg.Register("pull", "pull", 0, 0, handlePull)
	reg.Register("stats", "stats", 0, 0, handleStats)
	reg.Register("quit", "quit", 0, 0, func(*Context, []string) error { return ErrQuit })
	reg.Register("help", "help", 0, 0, func(c *Context, _ []string) error {
		for _, v := range reg.Verbs() {
			c.printf("  %s", reg.Usage(v))
		}
		return nil
	})
}

func handleRoad(c *Context, args []string) error {
	var coords [4]float64
	names := [4]string{"x1", "y1", "x2", "y2"}
	for i := range coords {
		v, err := parseFloat(names[i], args[i])
		if err != nil {
			return err
		}
		coords[i] = v
	}
	r := world.Road{
		Start: world.Point{Lat: coords[0], Lon: coords[1]},
		End:   world.Point{Lat: coords[2], Lon: coords[3]},
	}
	if len(args) > 4 {
		r.Name = args[4]
	}
	if len(args) > 5 {
		r.Surface = world.ParseSurface(args[5])
	}
	r = c.Editor.CreateRoad(r)
	c.printf("road %d created: %s", r.ID, formatRoad(r))
	return nil
}

func handleIntersection(c *Context, args []string) error {
	x, err := parseFloat("x", args[0])
	if err != nil {
		return err
	}
	y, err := parseFloat("y", args[1])
	if err != nil {
		return err
	}
	in := world.Intersection{Point: world.Point{Lat: x, Lon: y}}
	if len(args) > 2 {
		if in.TrafficLights, err = parseFlag(args[2]); err != nil {
			return err
		}
	}
	in = c.Editor.CreateIntersection(in)
	c.printf("intersection %d created: %s", in.ID, formatIntersection(in))
	return nil
}

func handleDestroy(c *Context, args []string) error {
	kind, id, err := kindAndID(args)
	if err != nil {
		return err
	}
	if c.Editor.Destroy(kind, id) {
		c.printf("%s %d destroyed", kind, id)
	} else {
		c.printf("no %s %d", kind, id)
	}
	return nil
}

func handleErase(c *Context, args []string) error {
	kind, p, err := kindAndPoint(args)
	if err != nil {
		return err
	}
	ids := c.Editor.DestroyAt(kind, p)
	if len(ids) == 0 {
		c.printf("nothing to erase")
		return nil
	}
	c.printf("%s destroyed: %s", kind, formatIDs(ids))
	return nil
}

func handleHit(c *Context, args []string) error {
	kind, p, err := kindAndPoint(args)
	if err != nil {
		return err
	}
	ids := c.Editor.HitTest(kind, p)
	if len(ids) == 0 {
		c.printf("no hits")
		return nil
	}
	c.printf("hits: %s", formatIDs(ids))
	return nil
}

func handleResolve(c *Context, args []string) error {
	kind, id, err := kindAndID(args)
	if err != nil {
		return err
	}
	switch kind {
	case world.KindRoad:
		if r, ok := c.Editor.ResolveRoad(id); ok {
			c.printf("road %d: %s", r.ID, formatRoad(r))
			return nil
		}
	case world.KindIntersection:
		if in, ok := c.Editor.ResolveIntersection(id); ok {
			c.printf("intersection %d: %s", in.ID, formatIntersection(in))
			return nil
		}
	}
	c.printf("no %s %d", kind, id)
	return nil
}

func handleUndo(c *Context, _ []string) error {
	entry, err := c.Editor.Undo()
	if err != nil {
		return err
	}
	if entry == nil {
		c.printf("nothing to undo")
		return nil
	}
	c.printf("undone %s %s (%d left)", entry.Op(), entry.Kind(), c.Editor.HistoryDepth())
	return nil
}

func handleList(c *Context, args []string) error {
	kind, err := world.ParseKind(args[0])
	if err != nil {
		return err
	}
	if kind == world.KindRoad {
		for _, r := range c.Editor.Roads() {
			c.printf("%4d  %s", r.ID, formatRoad(r))
		}
	} else {
		for _, in := range c.Editor.Intersections() {
			c.printf("%4d  %s", in.ID, formatIntersection(in))
		}
	}
	c.printf("%d %s(s)", c.Editor.Count(kind), kind)
	return nil
}

func handleLoad(c *Context, args []string) error {
	kind, err := world.ParseKind(args[0])
	if err != nil {
		return err
	}
	path := ""
	if len(args) > 1 {
		path = args[1]
	}
	if err := c.Editor.Load(kind, path); err != nil {
		return err
	}
	c.printf("%d %s(s) loaded", c.Editor.Count(kind), kind)
	return nil
}

func handleDump(c *Context, args []string) error {
	kind, err := world.ParseKind(args[0])
	if err != nil {
		return err
	}
	if err := c.Editor.Dump(kind); err != nil {
		return err
	}
	c.printf("%d %s(s) written to %s", c.Editor.Count(kind), kind, c.Editor.WorkingPath(kind))
	return nil
}

func handleReset(c *Context, args []string) error {
	kind, err := world.ParseKind(args[0])
	if err != nil {
		return err
	}
	c.Editor.Reset(kind)
	c.printf("%s store cleared", kind)
	return nil
}

func handleSave(c *Context, _ []string) error {
	ctx, cancel := c.context()
	defer cancel()
	if err := c.Editor.Save(ctx); err != nil {
		return err
	}
	st := c.Editor.Stats()
	c.printf("saved %d road(s), %d intersection(s)", st.Roads, st.Intersections)
	return nil
}

func handlePull(c *Context, _ []string) error {
	ctx, cancel := c.context()
	defer cancel()
	if err := c.Editor.Pull(ctx); err != nil {
		return err
	}
	st := c.Editor.Stats()
	c.printf("pulled %d road(s), %d intersection(s)", st.Roads, st.Intersections)
	return nil
}

func handleStats(c *Context, _ []string) error {
	st := c.Editor.Stats()
	c.printf("roads=%d intersections=%d history=%d/%d dirty=%t",
		st.Roads, st.Intersections, st.HistoryDepth, st.HistoryCap, st.Dirty)
	return nil
}

func (c *Context) context() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}

func kindAndID(args []string) (world.Kind, store.ID, error) {
	kind, err := world.ParseKind(args[0])
	if err != nil {
		return 0, 0, err
	}
	id, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("id: %q is not an integer", args[1])
	}
	return kind, store.ID(id), nil
}

func kindAndPoint(args []string) (world.Kind, world.Point, error) {
	kind, err := world.ParseKind(args[0])
	if err != nil {
		return 0, world.Point{}, err
	}
	x, err := parseFloat("x", args[1])
	if err != nil {
		return 0, world.Point{}, err
	}
	y, err := parseFloat("y", args[2])
	if err != nil {
		return 0, world.Point{}, err
	}
	return kind, world.Point{Lat: x, Lon: y}, nil
}

func formatRoad(r world.Road) string {
	name := r.Name
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("%q (%g,%g)-(%g,%g) %s %g km/h %d lane(s)",
		name, r.Start.Lat, r.Start.Lon, r.End.Lat, r.End.Lon, r.Surface, r.SpeedLimit, r.LaneCount)
}

func formatIntersection(in world.Intersection) string {
	lights := "no lights"
	if in.TrafficLights {
		lights = "lights"
	}
	return fmt.Sprintf("(%g,%g) %s", in.Point.Lat, in.Point.Lon, lights)
}

func formatIDs(ids []store.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, " ")
}
