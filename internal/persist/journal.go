package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// JournalEntry is one game event kept across saves.
type JournalEntry struct {
	GameTime time.Time
	Kind     string
	Faction  uuid.UUID // uuid.Nil for events addressed to nobody
	Target   uuid.UUID
	Text     string
}

// JournalRepo appends game events to the event_journal table.
type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Append writes entries in a single transaction. On error nothing is written
// and the caller may retry with the same batch.
func (r *JournalRepo) Append(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO event_journal (game_time, kind, faction, target, text)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.GameTime, e.Kind, e.Faction, e.Target, e.Text,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return tx.Commit(ctx)
}

// ForFaction returns the newest limit entries addressed to faction, oldest
// first.
func (r *JournalRepo) ForFaction(ctx context.Context, faction uuid.UUID, limit int) ([]JournalEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT game_time, kind, faction, target, text FROM (
		   SELECT id, game_time, kind, faction, target, text FROM event_journal
		   WHERE faction = $1 ORDER BY id DESC LIMIT $2
		 ) recent ORDER BY id`, faction, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.GameTime, &e.Kind, &e.Faction, &e.Target, &e.Text); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
