package event

import (
	"time"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
)

// TargetDestroyed is emitted when a beam reduces its target's Health to zero.
type TargetDestroyed struct {
	At       time.Time
	System   string
	Target   ecs.Guid
	Attacker ecs.Guid
	Faction  ecs.Guid // owner of the attacker, uuid.Nil if none
	Victim   ecs.Guid // owner of the target, uuid.Nil if none
}

// ContactAcquired is emitted on a faction's first detection of an entity.
type ContactAcquired struct {
	At      time.Time
	Faction ecs.Guid
	Target  ecs.Guid
	Name    string
	Quality float64
}

// ContactLost is emitted when a contacted entity is removed from the game and
// the contact falls back to memory.
type ContactLost struct {
	Faction ecs.Guid
	Target  ecs.Guid
	Name    string
}

// Notice is a free-form game message addressed to Faction and to every
// faction in Recipients. With neither set only master logs record it.
type Notice struct {
	At         time.Time
	Kind       string
	Text       string
	Faction    ecs.Guid
	Recipients []ecs.Guid
}
