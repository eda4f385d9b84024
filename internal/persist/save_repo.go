package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrSaveNotFound     = errors.New("save not found")
	ErrChecksumMismatch = errors.New("save payload checksum mismatch")
	ErrEmptySnapshot    = errors.New("snapshot has no managers")
)

// ManagerSnapshot is one entity manager's envelope.
type ManagerSnapshot struct {
	ManagerID uuid.UUID
	Name      string
	Payload   []byte // entity envelope JSON
}

// Snapshot is everything written by one save.
type Snapshot struct {
	ID        int64
	GameName  string
	GameTime  time.Time
	CreatedAt time.Time
	Managers  []ManagerSnapshot
}

// Digest is the BLAKE2b-256 checksum stored next to each payload.
func Digest(payload []byte) []byte {
	sum := blake2b.Sum256(payload)
	return sum[:]
}

// Verify checks a payload against its stored digest.
func Verify(ms ManagerSnapshot, digest []byte) error {
	if !bytes.Equal(Digest(ms.Payload), digest) {
		return fmt.Errorf("manager %s (%s): %w", ms.Name, ms.ManagerID, ErrChecksumMismatch)
	}
	return nil
}

type SaveRepo struct {
	db *DB
}

func NewSaveRepo(db *DB) *SaveRepo {
	return &SaveRepo{db: db}
}

// Save writes snap in one transaction and returns the new save id.
func (r *SaveRepo) Save(ctx context.Context, snap *Snapshot) (int64, error) {
	if len(snap.Managers) == 0 {
		return 0, ErrEmptySnapshot
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("save begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO saves (game_name, game_time) VALUES ($1, $2) RETURNING id`,
		snap.GameName, snap.GameTime,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("save insert: %w", err)
	}

	batch := &pgx.Batch{}
	for i, ms := range snap.Managers {
		batch.Queue(
			`INSERT INTO save_managers (save_id, ordinal, manager_id, name, payload, digest)
			 VALUES ($1, $2, $3, $4, $5::json, $6)`,
			id, i, ms.ManagerID, ms.Name, string(ms.Payload), Digest(ms.Payload),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("save managers: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("save commit: %w", err)
	}
	r.db.log.Debug("save written")
	return id, nil
}

// Load reads save id and verifies every payload.
func (r *SaveRepo) Load(ctx context.Context, id int64) (*Snapshot, error) {
	snap := &Snapshot{ID: id}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT game_name, game_time, created_at FROM saves WHERE id = $1`, id,
	).Scan(&snap.GameName, &snap.GameTime, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load save %d: %w", id, ErrSaveNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load save %d: %w", id, err)
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT manager_id, name, payload::text, digest FROM save_managers
		 WHERE save_id = $1 ORDER BY ordinal`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("load save %d managers: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ms      ManagerSnapshot
			payload string
			digest  []byte
		)
		if err := rows.Scan(&ms.ManagerID, &ms.Name, &payload, &digest); err != nil {
			return nil, fmt.Errorf("scan save %d manager: %w", id, err)
		}
		ms.Payload = []byte(payload)
		if err := Verify(ms, digest); err != nil {
			return nil, fmt.Errorf("load save %d: %w", id, err)
		}
		snap.Managers = append(snap.Managers, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load save %d managers: %w", id, err)
	}
	return snap, nil
}

// Latest loads the most recent save.
func (r *SaveRepo) Latest(ctx context.Context) (*Snapshot, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id FROM saves ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSaveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest save: %w", err)
	}
	return r.Load(ctx, id)
}

// Prune deletes all but the newest keep saves and returns how many went.
func (r *SaveRepo) Prune(ctx context.Context, keep int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM saves WHERE id NOT IN (
		   SELECT id FROM saves ORDER BY created_at DESC, id DESC LIMIT $1)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune saves: %w", err)
	}
	return tag.RowsAffected(), nil
}
