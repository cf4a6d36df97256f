package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/yomuhub/yomu/config"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
)

// Initialize the logger and config
func init() {
	config.Opts = config.GetDefaultOptions()
	config.Opts.LogFile = filepath.Join(os.TempDir(), "yomu-test.log")
	log.Logger = log.NewLogger()
}

func createTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()

	appDb, err := sql.Open("sqlite", filepath.Join(dir, "yomu.db"))
	if err != nil {
		t.Fatalf("Failed to open app database: %v", err)
	}
	catalogDb, err := sql.Open("sqlite", filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open catalog database: %v", err)
	}
	t.Cleanup(func() {
		appDb.Close()
		catalogDb.Close()
	})

	if err := applyLatestSchema(appDb, "LATEST_APP_SCHEMA.sql"); err != nil {
		t.Fatalf("Failed to apply app schema: %v", err)
	}
	if err := applyLatestSchema(catalogDb, "LATEST_CATALOG_SCHEMA.sql"); err != nil {
		t.Fatalf("Failed to apply catalog schema: %v", err)
	}

	return NewStore(appDb, catalogDb)
}

func applyLatestSchema(db *sql.DB, schemaFileName string) error {
	latestSchemaPath := filepath.Join("db", "migration", schemaFileName)
	buf, err := os.ReadFile(latestSchemaPath)
	if err != nil {
		return errors.Wrapf(err, "Failed to read latest schema file: %q", latestSchemaPath)
	}

	if err := execute(string(buf), db); err != nil {
		return errors.Wrapf(err, "Failed to apply latest schema: %s", schemaFileName)
	}
	return nil
}

func execute(stmt string, d *sql.DB) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(stmt); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func createTestUser(t *testing.T, s *Store, username string) *model.User {
	t.Helper()
	user, err := s.CreateUser(&model.User{
		Username:     username,
		PasswordHash: "test",
		Role:         model.RoleUser,
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func TestCreateAndGetUser(t *testing.T) {
	s := createTestStore(t)

	created := createTestUser(t, s, "reader")
	if created.ID == 0 {
		t.Fatalf("Expected user ID to be assigned")
	}

	got, err := s.GetUser(&model.FindUser{Username: &created.Username})
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("Expected user %d, got %+v", created.ID, got)
	}
	if got.RowStatus != model.Normal {
		t.Errorf("Expected NORMAL row status, got %s", got.RowStatus)
	}
}
