package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseMovement Phase = iota // 0: integrate, then rewrite positions
	PhaseSensors               // 1: refresh faction contacts
	PhaseWeapons               // 2: fire and resolve beams
	PhaseEvents                // 3: per-system event bookkeeping
	PhaseCleanup               // 4: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseMovement:
		return "movement"
	case PhaseSensors:
		return "sensors"
	case PhaseWeapons:
		return "weapons"
	case PhaseEvents:
		return "events"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// Tick is the game-clock step handed to every system.
type Tick struct {
	At     time.Time     // game time at the end of the step
	Delta  time.Duration // length of the step
	Number uint64
}

// Start is the game time at the beginning of the step.
func (t Tick) Start() time.Time { return t.At.Add(-t.Delta) }

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(t Tick) error
}
