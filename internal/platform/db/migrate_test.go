package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadMigrations_SortsAndExpandsPrefix(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "002_drafts.sql", "CREATE TABLE {{prefix}}_draft ()")
	writeMigration(t, dir, "001_core.sql", "CREATE TABLE {{prefix}}_patient ()")
	writeMigration(t, dir, "010_examinations.sql", "CREATE TABLE {{prefix}}_examination_vas ()")

	m := NewMigrator(nil, dir, "staging")
	migs, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migs) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migs))
	}
	if migs[0].Version != 1 || migs[1].Version != 2 || migs[2].Version != 10 {
		t.Errorf("wrong version order: %d, %d, %d", migs[0].Version, migs[1].Version, migs[2].Version)
	}
	if migs[0].SQL != "CREATE TABLE staging_patient ()" {
		t.Errorf("prefix not expanded: %s", migs[0].SQL)
	}
}

func TestLoadMigrations_SkipsNonNumericAndNonSQL(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_core.sql", "SELECT 1")
	writeMigration(t, dir, "README.md", "not a migration")
	writeMigration(t, dir, "notes_001.sql", "SELECT 1")
	writeMigration(t, dir, "002.sql", "SELECT 1")

	m := NewMigrator(nil, dir, "dev")
	migs, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migs) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migs))
	}
	if migs[0].Name != "001_core.sql" {
		t.Errorf("unexpected migration: %s", migs[0].Name)
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := NewMigrator(nil, "/nonexistent/migrations", "dev")
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestTrackingTable_UsesPrefix(t *testing.T) {
	m := NewMigrator(nil, ".", "prod")
	if got := m.trackingTable(); got != "prod_schema_migrations" {
		t.Errorf("unexpected tracking table: %s", got)
	}
}
