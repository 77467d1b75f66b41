package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roadedit"

// Metrics holds the editor's Prometheus collectors.
type Metrics struct {
	EntitiesCreated   *prometheus.CounterVec
	EntitiesDestroyed *prometheus.CounterVec
	Entities          *prometheus.GaugeVec
	UndoTotal         *prometheus.CounterVec
	HistoryDepth      prometheus.Gauge
	SaveTotal         *prometheus.CounterVec
	CommandsTotal     *prometheus.CounterVec
}

// New creates and registers all collectors on registry.
func New(registry *prometheus.Registry) *Metrics {
	f := promauto.With(registry)
	return &Metrics{
		EntitiesCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "created_total",
				Help:      "Entities accepted into a store by create",
			},
			[]string{"kind"},
		),
		EntitiesDestroyed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "destroyed_total",
				Help:      "Entities removed from a store by destroy",
			},
			[]string{"kind"},
		),
		Entities: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "entities",
				Help:      "Current number of entities per store",
			},
			[]string{"kind"},
		),
		UndoTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "history",
				Name:      "undo_total",
				Help:      "Undo requests by outcome (applied, empty, failed)",
			},
			[]string{"result"},
		),
		HistoryDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "history",
				Name:      "depth",
				Help:      "Number of undoable entries",
			},
		),
		SaveTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "persist",
				Name:      "save_total",
				Help:      "Dataset saves by target and outcome",
			},
			[]string{"target", "result"},
		),
		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "console",
				Name:      "commands_total",
				Help:      "Console commands processed by verb and outcome",
			},
			[]string{"verb", "result"},
		),
	}
}

// NewNop returns collectors registered on a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
