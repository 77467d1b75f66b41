package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/data"
	"github.com/roadroute/editor/internal/world"
)

type workspace struct {
	dir    string
	config string
}

func (w workspace) path(parts ...string) string {
	return filepath.Join(append([]string{w.dir}, parts...)...)
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	w := workspace{dir: t.TempDir()}
	w.config = w.path("editor.toml")
	cfg := fmt.Sprintf(`
[editor]
tick_rate = "2ms"
autosave_interval = 0

[data]
seed_roads = %q
seed_intersections = %q
roads = %q
intersections = %q
surfaces = %q

[scripting]
dir = %q

[logging]
level = "error"
`,
		w.path("sample", "roads.csv"), w.path("sample", "intersections.csv"),
		w.path("data", "roads.csv"), w.path("data", "intersections.csv"),
		w.path("surfaces.yaml"), w.path("lua"))
	require.NoError(t, os.WriteFile(w.config, []byte(cfg), 0o644))
	return w
}

func execute(t *testing.T, w workspace, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--config", w.config))
	err := root.Execute()
	return out.String(), err
}

func TestEdit_runsCommandsAndSavesOnQuit(t *testing.T) {
	w := newWorkspace(t)
	require.NoError(t, data.DumpRoads(w.path("sample", "roads.csv"), []world.Road{
		{Name: "Seed Street", End: world.Point{Lat: 100}, SpeedLimit: 50, LaneCount: 1},
	}))

	out, err := execute(t, w, strings.Join([]string{
		`road 0 50 100 50 "North Road" dirt`,
		"intersection 0 0 yes",
		"erase road 50 2",
		"undo",
		"stats",
		"quit",
		"road 1 1 2 2",
	}, "\n"), "edit")
	require.NoError(t, err)
	assert.Contains(t, out, "road 2 created", "the seed road was stamped with id 1")
	assert.Contains(t, out, "road destroyed: 1")
	assert.Contains(t, out, "roads=2 intersections=1")

	roads, err := data.LoadRoads(w.path("data", "roads.csv"), "utf-8")
	require.NoError(t, err)
	require.Len(t, roads, 2, "nothing after quit runs")
	assert.Equal(t, "Seed Street", roads[0].Name)
	assert.Equal(t, "North Road", roads[1].Name)

	xs, err := data.LoadIntersections(w.path("data", "intersections.csv"), "utf-8")
	require.NoError(t, err)
	require.Len(t, xs, 1)
	assert.True(t, xs[0].TrafficLights)
}

func TestScript_runsDirectoryAndSaves(t *testing.T) {
	w := newWorkspace(t)
	require.NoError(t, os.MkdirAll(w.path("lua"), 0o755))
	require.NoError(t, os.WriteFile(w.path("lua", "grid.lua"), []byte(`
		for i = 0, 2 do
			road{x1 = i * 50, y1 = 0, x2 = i * 50, y2 = 100}
		end
		intersection{x = 50, y = 50, lights = true}
		erase("road", 100, 10)
	`), 0o644))

	out, err := execute(t, w, "", "script")
	require.NoError(t, err)
	assert.Contains(t, out, "1 script(s) run: 2 road(s), 1 intersection(s)")
	assert.Contains(t, out, "saved")

	roads, err := data.LoadRoads(w.path("data", "roads.csv"), "utf-8")
	require.NoError(t, err)
	assert.Len(t, roads, 2)
}

func TestScript_errorFails(t *testing.T) {
	w := newWorkspace(t)
	bad := w.path("bad.lua")
	require.NoError(t, os.WriteFile(bad, []byte(`destroy("bridge", 1)`), 0o644))

	_, err := execute(t, w, "", "script", bad)
	assert.ErrorContains(t, err, "unknown entity kind")
	assert.NoFileExists(t, w.path("data", "roads.csv"))
}

func TestCheck(t *testing.T) {
	w := newWorkspace(t)
	require.NoError(t, data.DumpIntersections(w.path("sample", "intersections.csv"), []world.Intersection{{ID: 1}, {ID: 2}}))

	out, err := execute(t, w, "", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "seed intersections")
	assert.Contains(t, out, "datasets valid")

	require.NoError(t, data.DumpRoads(w.path("data", "roads.csv"), []world.Road{{ID: 4}, {ID: 4}}))
	_, err = execute(t, w, "", "check")
	assert.ErrorContains(t, err, "duplicate ids [4]")

	require.NoError(t, os.WriteFile(w.path("data", "roads.csv"), []byte("name,start_lat\nx,1\n"), 0o644))
	_, err = execute(t, w, "", "check")
	assert.ErrorIs(t, err, data.ErrMissingColumn)
}

func TestMigrate_requiresDSN(t *testing.T) {
	w := newWorkspace(t)
	_, err := execute(t, w, "", "migrate")
	assert.ErrorContains(t, err, "database.dsn is not set")
}

func TestDuplicates(t *testing.T) {
	assert.Empty(t, duplicates(nil))
	assert.Equal(t, "[3 1]", fmt.Sprint(duplicates([]store.ID{3, 1, 3, 0, 0, 1, 3})))
}

type deadlineSaver struct{ deadline time.Time }

func (s *deadlineSaver) Save(ctx context.Context) error {
	s.deadline, _ = ctx.Deadline()
	return ctx.Err()
}

func TestSaveWithTimeout_deadlineStartsAtSave(t *testing.T) {
	s := &deadlineSaver{}
	before := time.Now()

	require.NoError(t, saveWithTimeout(s, mirrorTimeout))

	assert.WithinDuration(t, before.Add(mirrorTimeout), s.deadline, time.Second)
}
