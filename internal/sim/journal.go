package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/persist"
)

// JournalStore is the part of persist.JournalRepo that Journal needs.
type JournalStore interface {
	Append(ctx context.Context, entries []persist.JournalEntry) error
	ForFaction(ctx context.Context, faction ecs.Guid, limit int) ([]persist.JournalEntry, error)
}

// Journal records every game event and writes them to a journal store in
// batches. Entries whose event carries no game time are stamped with the
// game time of the flush.
type Journal struct {
	game  *Game
	log   *FactionEventLog
	store JournalStore

	mu      sync.Mutex
	pending []persist.JournalEntry // batch of a failed flush
}

// NewJournal starts recording g's events.
func NewJournal(g *Game, store JournalStore) *Journal {
	l := NewMasterEventLog()
	l.Subscribe(g.Bus())
	return &Journal{game: g, log: l, store: store}
}

// Flush appends everything recorded since the last successful flush and
// returns the number of entries written. A failed batch is retried by the
// next flush.
func (j *Journal) Flush(ctx context.Context) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.game.Now()
	batch := j.pending
	for _, e := range j.log.Drain() {
		at := e.At
		if at.IsZero() {
			at = now
		}
		batch = append(batch, persist.JournalEntry{
			GameTime: at,
			Kind:     e.Kind,
			Faction:  e.Faction,
			Target:   e.Target,
			Text:     e.Text,
		})
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := j.store.Append(ctx, batch); err != nil {
		j.pending = batch
		return 0, fmt.Errorf("flush journal: %w", err)
	}
	j.pending = nil
	return len(batch), nil
}

// History returns the newest limit journal entries addressed to faction,
// oldest first. Events recorded since the last flush are written first so
// the history is current.
func (j *Journal) History(ctx context.Context, faction ecs.Entity, limit int) ([]LogEntry, error) {
	if !component.FactionInfoType.Has(faction) {
		return nil, fmt.Errorf("history of %s: %w", faction, ErrNoFaction)
	}
	if _, err := j.Flush(ctx); err != nil {
		return nil, err
	}
	rows, err := j.store.ForFaction(ctx, faction.Guid(), limit)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", faction, err)
	}
	out := make([]LogEntry, len(rows))
	for i, r := range rows {
		out[i] = LogEntry{At: r.GameTime, Kind: r.Kind, Text: r.Text, Faction: r.Faction, Target: r.Target}
	}
	return out, nil
}
