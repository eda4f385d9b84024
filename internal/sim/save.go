package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medleye27/Pulsar4x/internal/component"
	"github.com/medleye27/Pulsar4x/internal/persist"
	"github.com/medleye27/Pulsar4x/internal/sensors"
	"github.com/medleye27/Pulsar4x/internal/system"
)

// Snapshot encodes every manager, star systems first and the global manager
// last. Call it between ticks.
func (g *Game) Snapshot() (*persist.Snapshot, error) {
	snap := &persist.Snapshot{
		GameName: g.name,
		GameTime: g.now,
		Managers: make([]persist.ManagerSnapshot, 0, len(g.systems)+1),
	}
	for _, s := range g.systems {
		payload, err := s.Manager.MarshalEntities()
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", s.ID, err)
		}
		snap.Managers = append(snap.Managers, persist.ManagerSnapshot{
			ManagerID: s.Manager.ID(),
			Name:      s.ID,
			Payload:   payload,
		})
	}
	payload, err := g.global.MarshalEntities()
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", GlobalManager, err)
	}
	snap.Managers = append(snap.Managers, persist.ManagerSnapshot{
		ManagerID: g.global.ID(),
		Name:      GlobalManager,
		Payload:   payload,
	})
	return snap, nil
}

// Restore builds a game from a snapshot. The game clock resumes at the
// snapshot's game time and opts.Start is ignored. Star systems are loaded
// before the global manager so that faction contacts find their entities,
// then every reference is re-linked and live contacts are watched again.
func Restore(opts Options, snap *persist.Snapshot) (*Game, error) {
	if len(snap.Managers) == 0 {
		return nil, persist.ErrEmptySnapshot
	}
	opts.Start = snap.GameTime
	if opts.Name == "" {
		opts.Name = snap.GameName
	}
	g, err := New(opts)
	if err != nil {
		return nil, err
	}

	var global []byte
	for _, ms := range snap.Managers {
		if ms.Name == GlobalManager {
			global = ms.Payload
			continue
		}
		s, err := g.AddStarSystem(ms.Name, ms.Name)
		if err != nil {
			return nil, err
		}
		if _, err := s.Manager.UnmarshalEntities(ms.Payload); err != nil {
			return nil, fmt.Errorf("restore %s: %w", ms.Name, err)
		}
		if star, ok := s.Primary(); ok {
			if n, ok := component.NameType.Get(star); ok {
				s.Name = n.Default
			}
		}
	}
	if global != nil {
		if _, err := g.global.UnmarshalEntities(global); err != nil {
			return nil, fmt.Errorf("restore %s: %w", GlobalManager, err)
		}
	}

	for _, s := range g.systems {
		if err := s.Manager.ResolveRefs(); err != nil {
			return nil, fmt.Errorf("restore %s: %w", s.ID, err)
		}
	}
	lost := system.LostEmitter(g.bus)
	for _, f := range component.FactionInfoType.Entities(g.global) {
		if _, err := sensors.Rewatch(f, lost); err != nil {
			return nil, fmt.Errorf("restore contacts: %w", err)
		}
	}
	g.log.Info("game restored",
		zap.String("name", g.name),
		zap.Time("at", g.now),
		zap.Int("systems", len(g.systems)),
		zap.Int("entities", g.dir.Len()),
	)
	return g, nil
}

// SaveStore is the part of persist.SaveRepo that RepoSaver needs.
type SaveStore interface {
	Save(ctx context.Context, snap *persist.Snapshot) (int64, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// RepoSaver writes game snapshots to a save store and keeps the newest Keep
// saves (all when Keep is 0). It is the game's autosave target.
type RepoSaver struct {
	game    *Game
	store   SaveStore
	keep    int
	journal *Journal
	log     *zap.Logger
}

func NewRepoSaver(g *Game, store SaveStore, keep int, log *zap.Logger) *RepoSaver {
	if log == nil {
		log = zap.NewNop()
	}
	return &RepoSaver{game: g, store: store, keep: keep, log: log}
}

// WithJournal makes every save also flush j.
func (s *RepoSaver) WithJournal(j *Journal) *RepoSaver {
	s.journal = j
	return s
}

func (s *RepoSaver) Save(ctx context.Context) error {
	start := time.Now()
	snap, err := s.game.Snapshot()
	if err != nil {
		return err
	}
	id, err := s.store.Save(ctx, snap)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	if s.keep > 0 {
		n, err := s.store.Prune(ctx, s.keep)
		if err != nil {
			return fmt.Errorf("prune saves: %w", err)
		}
		if n > 0 {
			s.log.Debug("pruned saves", zap.Int64("count", n))
		}
	}
	if s.journal != nil {
		n, err := s.journal.Flush(ctx)
		if err != nil {
			return err
		}
		s.log.Debug("journal flushed", zap.Int("entries", n))
	}
	s.log.Info("game saved",
		zap.Int64("id", id),
		zap.Time("game_time", snap.GameTime),
		zap.Int("managers", len(snap.Managers)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
