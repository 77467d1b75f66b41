package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/data"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the seed and working datasets and the surface table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			out := cmd.OutOrStdout()

			surfaces, err := data.LoadSurfaceTable(cfg.Data.Surfaces)
			if err != nil {
				return err
			}
			printStat(out, "surface styles", surfaces.Count())

			var failed []error
			check := func(label, path string, load func(string) (int, []store.ID, error)) {
				if _, err := os.Stat(path); os.IsNotExist(err) {
					fmt.Fprintf(out, "  - %s: %s missing\n", label, path)
					return
				}
				n, dups, err := load(path)
				if err != nil {
					failed = append(failed, err)
					fmt.Fprintf(out, "  ✗ %s: %v\n", label, err)
					return
				}
				printStat(out, label, n)
				if len(dups) > 0 {
					failed = append(failed, fmt.Errorf("%s: duplicate ids %v", path, dups))
					fmt.Fprintf(out, "  ✗ %s: duplicate ids %v\n", label, dups)
				}
			}
			loadRoads := func(path string) (int, []store.ID, error) {
				roads, err := data.LoadRoads(path, cfg.Data.Encoding)
				ids := make([]store.ID, len(roads))
				for i, r := range roads {
					ids[i] = r.ID
				}
				return len(roads), duplicates(ids), err
			}
			loadIntersections := func(path string) (int, []store.ID, error) {
				xs, err := data.LoadIntersections(path, cfg.Data.Encoding)
				ids := make([]store.ID, len(xs))
				for i, x := range xs {
					ids[i] = x.ID
				}
				return len(xs), duplicates(ids), err
			}

			check("seed roads", cfg.Data.SeedRoads, loadRoads)
			check("seed intersections", cfg.Data.SeedIntersections, loadIntersections)
			check("roads", cfg.Data.Roads, loadRoads)
			check("intersections", cfg.Data.Intersections, loadIntersections)

			if err := errors.Join(failed...); err != nil {
				return fmt.Errorf("dataset check failed: %w", err)
			}
			printOK(out, "datasets valid")
			return nil
		},
	}
}

// duplicates returns every assigned id that occurs more than once.
func duplicates(ids []store.ID) []store.ID {
	seen := make(map[store.ID]int, len(ids))
	var dups []store.ID
	for _, id := range ids {
		if !id.Valid() {
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}
