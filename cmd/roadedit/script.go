package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roadroute/editor/internal/core/event"
	"github.com/roadroute/editor/internal/scripting"
	"github.com/roadroute/editor/internal/system"
	"github.com/roadroute/editor/internal/world"
)

func newScriptCmd(opts *rootOptions) *cobra.Command {
	var noSave bool
	c := &cobra.Command{
		Use:   "script [file.lua...]",
		Short: "Run Lua batch-edit scripts against the datasets, then save",
		Long: `Loads the working datasets (or the seed datasets when none exist yet),
runs each script in order and saves the result. With no arguments every
script in scripting.dir is run in name order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
			mirror, closeMirror, err := openMirror(openCtx, cfg.Database, log)
			cancelOpen()
			if err != nil {
				return err
			}
			defer closeMirror()

			bus := event.NewBus()
			system.SubscribeEditLog(bus, log)
			ed, _, err := newEditor(cfg, prometheus.NewRegistry(), bus, mirror, log)
			if err != nil {
				return err
			}
			if _, _, err := ed.LoadStartup(); err != nil {
				return fmt.Errorf("load datasets: %w", err)
			}

			engine := scripting.NewEngine(ed, log)
			defer engine.Close()

			ran := len(args)
			if len(args) == 0 {
				if ran, err = engine.RunDir(cfg.Scripting.Dir); err != nil {
					return err
				}
			}
			for _, path := range args {
				if err := engine.RunFile(path); err != nil {
					return err
				}
			}
			events := system.NewEventSystem(bus)
			events.Update(0)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d script(s) run: %d road(s), %d intersection(s), %d undoable edit(s)\n",
				ran, ed.Count(world.KindRoad), ed.Count(world.KindIntersection), ed.HistoryDepth())
			if noSave {
				return nil
			}
			if err := saveWithTimeout(ed, mirrorTimeout); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			events.Update(0)
			fmt.Fprintln(out, "saved")
			return nil
		},
	}
	c.Flags().BoolVar(&noSave, "dry-run", false, "run scripts without saving")
	return c
}

// saveWithTimeout starts the save deadline when the save starts, not when the
// command did; scripts may run for a while before it.
func saveWithTimeout(s interface{ Save(context.Context) error }, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return s.Save(ctx)
}
