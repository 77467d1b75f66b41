package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roadroute/editor/internal/console"
	coresys "github.com/roadroute/editor/internal/core/system"
)

// CommandSystem drains the console queue and dispatches each line through
// the command registry. Phase 0 (Input).
type CommandSystem struct {
	sess       *console.Session
	registry   *console.Registry
	ctx        *console.Context
	maxPerTick int
	onQuit     func()
	quit       bool
	log        *zap.Logger
}

// NewCommandSystem builds the input system. onQuit is called once, when the
// quit command runs or the input reaches EOF.
func NewCommandSystem(sess *console.Session, registry *console.Registry, ctx *console.Context, maxPerTick int, onQuit func(), log *zap.Logger) *CommandSystem {
	if maxPerTick <= 0 {
		maxPerTick = 1
	}
	return &CommandSystem{
		sess:       sess,
		registry:   registry,
		ctx:        ctx,
		maxPerTick: maxPerTick,
		onQuit:     onQuit,
		log:        log,
	}
}

func (s *CommandSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *CommandSystem) Update(_ time.Duration) {
	if s.quit {
		return
	}
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case line, ok := <-s.sess.InQueue:
			if !ok {
				s.stop("end of input")
				return
			}
			if !s.run(line) {
				return
			}
		default:
			return
		}
	}
}

// Drain runs every line already queued, ignoring the per-tick limit. Used on
// shutdown so buffered commands are not lost.
func (s *CommandSystem) Drain() {
	for !s.quit {
		select {
		case line, ok := <-s.sess.InQueue:
			if !ok {
				s.stop("end of input")
				return
			}
			s.run(line)
		default:
			return
		}
	}
}

func (s *CommandSystem) run(line string) bool {
	err := s.registry.Dispatch(s.ctx, line)
	switch {
	case err == nil:
		return true
	case errors.Is(err, console.ErrQuit):
		s.stop("quit command")
		return false
	default:
		fmt.Fprintf(s.ctx.Out, "error: %v\n", err)
		return true
	}
}

func (s *CommandSystem) stop(reason string) {
	s.quit = true
	s.log.Info("console session ended", zap.String("reason", reason))
	if s.onQuit != nil {
		s.onQuit()
	}
}
