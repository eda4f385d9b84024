package persist

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDigestDetectsTampering(t *testing.T) {
	ms := ManagerSnapshot{ManagerID: uuid.New(), Name: "sol", Payload: []byte(`[{"Guid":"x"}]`)}
	digest := Digest(ms.Payload)
	assert.Len(t, digest, 32)
	require.NoError(t, Verify(ms, digest))

	ms.Payload = []byte(`[{"Guid":"y"}]`)
	err := Verify(ms, digest)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Contains(t, err.Error(), "sol")
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	raw, err := fs.ReadFile(migrations, names[0])
	require.NoError(t, err)
	sql := string(raw)
	assert.True(t, strings.Contains(sql, "-- +goose Up"))
	assert.True(t, strings.Contains(sql, "-- +goose Down"))
	assert.Contains(t, sql, "save_managers")
}

func TestSchemaVersionIsNewestMigration(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)

	v, err := SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(len(names)), v)
}

func TestGooseLoggerTrimsNewlines(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := gooseLogger{s: zap.New(core).Sugar()}
	l.Printf("OK   %s (%v)\n", "00002_journal.sql", "1ms")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "OK   00002_journal.sql (1ms)", logs.All()[0].Message)
}

func TestSaveRejectsEmptySnapshot(t *testing.T) {
	r := NewSaveRepo(nil)
	_, err := r.Save(context.Background(), &Snapshot{GameName: "empty"})
	assert.ErrorIs(t, err, ErrEmptySnapshot)
}

func TestJournalMigration(t *testing.T) {
	raw, err := fs.ReadFile(migrations, "migrations/00002_journal.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "CREATE TABLE event_journal")
}

func TestJournalAppendEmptyIsNoop(t *testing.T) {
	r := NewJournalRepo(nil)
	assert.NoError(t, r.Append(context.Background(), nil))
}
