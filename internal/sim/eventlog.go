package sim

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/core/event"
)

// LogEntry is one line of an event log.
type LogEntry struct {
	At      time.Time // zero when the event carries no game time
	Kind    string
	Text    string
	Faction ecs.Guid // addressee
	Target  ecs.Guid
}

// FactionEventLog keeps the game events addressed to one faction. A master
// log keeps every event.
type FactionEventLog struct {
	mu      sync.Mutex
	faction ecs.Guid
	master  bool
	entries []LogEntry
}

func NewFactionEventLog(faction ecs.Guid) *FactionEventLog {
	return &FactionEventLog{faction: faction}
}

func NewMasterEventLog() *FactionEventLog {
	return &FactionEventLog{master: true}
}

// Subscribe starts recording the events bus dispatches.
func (l *FactionEventLog) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.Notice) {
		if l.wants(ev.Faction) || slices.ContainsFunc(ev.Recipients, l.wants) {
			l.add(LogEntry{At: ev.At, Kind: ev.Kind, Text: ev.Text, Faction: ev.Faction})
		}
	})
	event.Subscribe(bus, func(ev event.ContactAcquired) {
		if l.wants(ev.Faction) {
			l.add(LogEntry{
				At:      ev.At,
				Kind:    "contact",
				Text:    fmt.Sprintf("new contact %s (quality %.2f)", ev.Name, ev.Quality),
				Faction: ev.Faction,
				Target:  ev.Target,
			})
		}
	})
	event.Subscribe(bus, func(ev event.ContactLost) {
		if l.wants(ev.Faction) {
			l.add(LogEntry{Kind: "contact", Text: fmt.Sprintf("lost contact %s", ev.Name), Target: ev.Target})
		}
	})
	event.Subscribe(bus, func(ev event.TargetDestroyed) {
		switch {
		case l.wants(ev.Faction):
			l.add(LogEntry{
				At:      ev.At,
				Kind:    "combat",
				Text:    "target destroyed in " + ev.System,
				Faction: ev.Faction,
				Target:  ev.Target,
			})
		case l.wants(ev.Victim):
			l.add(LogEntry{At: ev.At, Kind: "combat", Text: "ship lost in " + ev.System, Faction: ev.Victim, Target: ev.Target})
		}
	})
}

// wants reports whether an event addressed to faction belongs in l. Events
// addressed to nobody only reach master logs.
func (l *FactionEventLog) wants(faction ecs.Guid) bool {
	if l.master {
		return true
	}
	return faction != uuid.Nil && faction == l.faction
}

func (l *FactionEventLog) add(e LogEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// Entries returns a copy of the log in dispatch order.
func (l *FactionEventLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// Drain returns the log and empties it.
func (l *FactionEventLog) Drain() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.entries
	l.entries = nil
	return out
}

func (l *FactionEventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
