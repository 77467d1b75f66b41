package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/roadroute/editor/internal/core/event"
	coresys "github.com/roadroute/editor/internal/core/system"
)

// EventSystem swaps the bus buffers and delivers last tick's events.
// Phase 1 (Dispatch).
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// SubscribeEditLog writes one log line per delivered edit event.
func SubscribeEditLog(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(ev event.EntityCreated) {
		log.Info("created", zap.Stringer("kind", ev.Kind), zap.Int32("id", int32(ev.ID)))
	})
	event.Subscribe(bus, func(ev event.EntityDestroyed) {
		log.Info("destroyed", zap.Stringer("kind", ev.Kind), zap.Int32("id", int32(ev.ID)))
	})
	event.Subscribe(bus, func(ev event.Undone) {
		log.Info("undone", zap.String("op", ev.Op), zap.Stringer("kind", ev.Kind), zap.Int32("id", int32(ev.ID)))
	})
	event.Subscribe(bus, func(ev event.StoreReplaced) {
		log.Info("store replaced", zap.Stringer("kind", ev.Kind), zap.Int("count", ev.Count))
	})
	event.Subscribe(bus, func(ev event.Saved) {
		log.Debug("saved", zap.Int("roads", ev.Roads), zap.Int("intersections", ev.Intersections))
	})
}
