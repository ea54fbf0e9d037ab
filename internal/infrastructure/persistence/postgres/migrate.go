package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded goose migrations.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a migrator on top of the connection pool.
// goose works with *sql.DB, so one is opened from the pool.
func NewMigrator(conn *Connection) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(migrationsFS)

	return &Migrator{db: stdlib.OpenDBFromPool(conn.Pool())}, nil
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db, "migrations"); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}
	return nil
}

// Reset rolls every migration back. Used by integration tests.
func (m *Migrator) Reset(ctx context.Context) error {
	if err := goose.ResetContext(ctx, m.db, "migrations"); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}
	return nil
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close closes the migrator's *sql.DB; the pool stays open.
func (m *Migrator) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
