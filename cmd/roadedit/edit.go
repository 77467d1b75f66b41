package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roadroute/editor/internal/config"
	"github.com/roadroute/editor/internal/console"
	"github.com/roadroute/editor/internal/core/event"
	coresys "github.com/roadroute/editor/internal/core/system"
	"github.com/roadroute/editor/internal/editor"
	"github.com/roadroute/editor/internal/metrics"
	"github.com/roadroute/editor/internal/persist"
	"github.com/roadroute/editor/internal/system"
	"github.com/roadroute/editor/internal/world"
)

const mirrorTimeout = 10 * time.Second

func newEditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Run the interactive edit loop reading commands from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			return runEdit(cmd, cfg, log)
		},
	}
}

// openMirror connects to PostgreSQL and migrates the schema when a DSN is
// configured. It returns a nil mirror otherwise.
func openMirror(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (editor.Mirror, func(), error) {
	if cfg.DSN == "" {
		return nil, func() {}, nil
	}
	db, err := persist.NewDB(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return persist.NewSnapshotRepo(db), db.Close, nil
}

func runEdit(cmd *cobra.Command, cfg *config.Config, log *zap.Logger) error {
	out := cmd.OutOrStdout()
	status := cmd.ErrOrStderr()

	// 1. Snapshot mirror
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	mirror, closeMirror, err := openMirror(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeMirror()
	if mirror != nil {
		printOK(status, "PostgreSQL snapshot mirror ready")
	}

	// 2. Editor and datasets
	registry := prometheus.NewRegistry()
	bus := event.NewBus()
	system.SubscribeEditLog(bus, log)
	ed, m, err := newEditor(cfg, registry, bus, mirror, log)
	if err != nil {
		return err
	}
	roadsPath, xPath, err := ed.LoadStartup()
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	printSection(status, "Datasets")
	printStat(status, "roads ("+roadsPath+")", ed.Count(world.KindRoad))
	printStat(status, "intersections ("+xPath+")", ed.Count(world.KindIntersection))
	printStat(status, "surface styles", ed.Surfaces().Count())

	// 3. Metrics endpoint
	if cfg.Metrics.Addr != "" {
		srv, err := metrics.Listen(cfg.Metrics.Addr, registry, log)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
		go func() {
			if err := srv.Serve(); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		printOK(status, "metrics on http://"+srv.Addr().String()+"/metrics")
	}

	// 4. Console input and systems
	sess := console.NewSession(cmd.InOrStdin(), out, cfg.Editor.CommandQueueSize, log)
	sess.Start()
	defer sess.Close()

	reg := console.NewRegistry(m, log)
	console.RegisterAll(reg)
	quitCh := make(chan struct{})
	cmdSys := system.NewCommandSystem(sess, reg,
		&console.Context{Editor: ed, Out: out, Timeout: mirrorTimeout},
		cfg.Editor.MaxCommandsPerTick, func() { close(quitCh) }, log)
	autosave := system.NewAutosaveSystem(ed, cfg.Editor.AutosaveInterval, mirrorTimeout, log)

	runner := coresys.NewRunner()
	runner.Register(cmdSys)
	runner.Register(system.NewEventSystem(bus))
	runner.Register(autosave)

	// 5. Edit loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	ticker := time.NewTicker(cfg.Editor.TickRate)
	defer ticker.Stop()

	printSection(status, "Ready")
	fmt.Fprintln(status, "  type 'help' for commands")

loop:
	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Editor.TickRate)
		case <-quitCh:
			break loop
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			break loop
		}
	}

	// Run what is already queued, deliver the last events, then save.
	cmdSys.Drain()
	runner.TickPhase(coresys.PhaseDispatch, 0)
	if err := autosave.SaveNow(); err != nil {
		return fmt.Errorf("save on exit: %w", err)
	}
	runner.TickPhase(coresys.PhaseDispatch, 0)
	log.Info("editor stopped", zap.Int("roads", ed.Count(world.KindRoad)), zap.Int("intersections", ed.Count(world.KindIntersection)))
	return nil
}
