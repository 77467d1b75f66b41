package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roadroute/editor/internal/config"
	"github.com/roadroute/editor/internal/core/event"
	"github.com/roadroute/editor/internal/data"
	"github.com/roadroute/editor/internal/editor"
	"github.com/roadroute/editor/internal/hittest"
	"github.com/roadroute/editor/internal/metrics"
)

const defaultConfigPath = "config/editor.toml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "roadedit",
		Short:         "Headless road and intersection network editor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $ROADEDIT_CONFIG or "+defaultConfigPath+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newEditCmd(opts),
		newScriptCmd(opts),
		newMigrateCmd(opts),
		newCheckCmd(opts),
	)
	return root
}

// load resolves the config path, reads the config and builds the logger.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	path := o.configPath
	if path == "" {
		path = defaultConfigPath
		if p := os.Getenv("ROADEDIT_CONFIG"); p != "" {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// newEditor wires an editor from cfg. The mirror may be nil.
func newEditor(cfg *config.Config, registry *prometheus.Registry, bus *event.Bus, mirror editor.Mirror, log *zap.Logger) (*editor.Editor, *metrics.Metrics, error) {
	surfaces, err := data.LoadSurfaceTable(cfg.Data.Surfaces)
	if err != nil {
		return nil, nil, fmt.Errorf("surface table: %w", err)
	}
	m := metrics.New(registry)
	opts := editor.Options{
		Data: cfg.Data,
		HitTest: hittest.Params{
			RoadSampleStep:     cfg.HitTest.RoadSampleStep,
			RoadRadius:         cfg.HitTest.RoadRadius,
			IntersectionRadius: cfg.HitTest.IntersectionRadius,
		},
		HistoryCapacity: cfg.Editor.HistoryCapacity,
		Surfaces:        surfaces,
		Bus:             bus,
		Metrics:         m,
		Mirror:          mirror,
	}
	return editor.New(opts, log), m, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(w io.Writer, title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Fprintf(w, "  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(w io.Writer, label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Fprintf(w, "  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(w io.Writer, msg string) {
	fmt.Fprintf(w, "  \033[32m✓\033[0m %s\n", msg)
}
