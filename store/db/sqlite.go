package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/yomuhub/yomu/version"
)

const (
	appSchemaFileName     = "LATEST_APP_SCHEMA.sql"
	catalogSchemaFileName = "LATEST_CATALOG_SCHEMA.sql"
)

//go:embed migration
var migrationFS embed.FS

type DB struct {
	*sql.DB
	name string
}

// NewDB opens one of the two sqlite databases. name is "app" or "catalog".
func NewDB(path, name string) (*DB, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	// Busy timeout keeps concurrent request handlers from surfacing
	// SQLITE_BUSY while a writer holds the lock.
	d, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	return &DB{d, name}, nil
}

func (d *DB) Close() error {
	return d.DB.Close()
}

// Migrate applies the latest schema and records the running version.
// Both schema files are idempotent (CREATE IF NOT EXISTS), so reapplying on
// startup is safe.
func (d *DB) Migrate(ctx context.Context) error {
	var schemaFile string
	switch d.name {
	case "app":
		schemaFile = appSchemaFileName
	case "catalog":
		schemaFile = catalogSchemaFileName
	default:
		return errors.Errorf("unknown db name: %s", d.name)
	}

	buf, err := migrationFS.ReadFile(fmt.Sprintf("migration/%s", schemaFile))
	if err != nil {
		return errors.Wrapf(err, "failed to read schema file %q", schemaFile)
	}

	if err := d.execute(ctx, string(buf)); err != nil {
		return errors.Wrapf(err, "failed to apply schema %q", schemaFile)
	}

	if d.name == "app" {
		if err := d.upsertMigrationHistory(ctx, version.GetCurrentVersion()); err != nil {
			return errors.Wrap(err, "failed to upsert migration history")
		}
	}
	return nil
}

func (d *DB) upsertMigrationHistory(ctx context.Context, v string) error {
	stmt := `
		INSERT INTO migration_history (version)
		VALUES (?)
		ON CONFLICT(version) DO UPDATE SET version = EXCLUDED.version
	`
	_, err := d.ExecContext(ctx, stmt, v)
	return err
}

func (d *DB) execute(ctx context.Context, stmt string) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(stmt); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to execute statement")
	}

	return tx.Commit()
}
