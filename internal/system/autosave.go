package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/roadroute/editor/internal/core/system"
	"github.com/roadroute/editor/internal/editor"
)

// AutosaveSystem saves the working datasets every interval ticks when
// something changed since the last save. Phase 3 (Persist).
type AutosaveSystem struct {
	editor    *editor.Editor
	interval  int // ticks; <= 0 disables
	timeout   time.Duration
	tickCount int
	log       *zap.Logger
}

func NewAutosaveSystem(ed *editor.Editor, intervalTicks int, timeout time.Duration, log *zap.Logger) *AutosaveSystem {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AutosaveSystem{
		editor:   ed,
		interval: intervalTicks,
		timeout:  timeout,
		log:      log,
	}
}

func (s *AutosaveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *AutosaveSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if !s.editor.Dirty() {
		return
	}
	if err := s.SaveNow(); err != nil {
		s.log.Error("autosave failed", zap.Error(err))
	}
}

// SaveNow saves unconditionally. Called on graceful shutdown.
func (s *AutosaveSystem) SaveNow() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.editor.Save(ctx)
}
