package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput    Phase = iota // 0: drain the command queue
	PhaseDispatch              // 1: deliver last tick's events
	PhaseUpdate                // 2: scheduled work (autosave)
	PhasePersist               // 3: flush to disk and mirror
	PhaseCleanup               // 4: end of tick
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseDispatch:
		return "dispatch"
	case PhaseUpdate:
		return "update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is one unit of per-tick work run by the Runner.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
