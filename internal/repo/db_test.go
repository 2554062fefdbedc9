package repo

import (
	"path/filepath"
	"testing"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

func TestOpenSQLite_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	if !db.Migrator().HasTable(&domain.Lead{}) {
		t.Fatalf("leads table should exist after migration")
	}
	if !db.Migrator().HasIndex(&domain.Lead{}, "ux_leads_dedupe_key") {
		t.Fatalf("unique dedupe_key index should exist after migration")
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "leads.db")
	if _, err := OpenSQLite(path); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}
