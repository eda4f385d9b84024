package persist

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// ErrSchemaBehind means the database did not reach the schema version
// shipped with this build.
var ErrSchemaBehind = errors.New("database schema behind build")

// gooseLogger routes goose progress lines into zap at debug level.
type gooseLogger struct{ s *zap.SugaredLogger }

func (l gooseLogger) Fatalf(format string, v ...any) { l.s.Fatalf(strings.TrimSpace(format), v...) }
func (l gooseLogger) Printf(format string, v ...any) { l.s.Debugf(strings.TrimSpace(format), v...) }

func setupGoose(log *zap.Logger) error {
	if log == nil {
		goose.SetLogger(goose.NopLogger())
	} else {
		goose.SetLogger(gooseLogger{s: log.Named("goose").Sugar()})
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}

// SchemaVersion is the newest migration embedded in this build.
func SchemaVersion() (int64, error) {
	if err := setupGoose(nil); err != nil {
		return 0, err
	}
	ms, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return 0, fmt.Errorf("collect migrations: %w", err)
	}
	last, err := ms.Last()
	if err != nil {
		return 0, fmt.Errorf("collect migrations: %w", err)
	}
	return last.Version, nil
}

// Migrate applies every pending migration and returns the schema version
// the database ends on.
func (db *DB) Migrate(ctx context.Context) (int64, error) {
	want, err := SchemaVersion()
	if err != nil {
		return 0, err
	}
	if err := setupGoose(db.log); err != nil {
		return 0, err
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	from, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return from, fmt.Errorf("run migrations: %w", err)
	}
	to, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return from, fmt.Errorf("schema version: %w", err)
	}
	if to < want {
		return to, fmt.Errorf("at version %d, want %d: %w", to, want, ErrSchemaBehind)
	}

	if to != from {
		db.log.Info("migrations applied", zap.Int64("from", from), zap.Int64("to", to))
	} else {
		db.log.Debug("schema up to date", zap.Int64("version", to))
	}
	return to, nil
}
