package migrations_test

import (
	"context"
	"testing"

	"github.com/rsepme/rsemodule/internal/database"
	"github.com/rsepme/rsemodule/internal/migrations"
)

func TestMigrations(t *testing.T) {
	db, dialect, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db, dialect); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	// Verify all tables exist by querying sqlite_master.
	want := []string{"modules", "admins", "admin_sessions", "access_codes", "participants", "sessions", "admin_settings", "whatsapp_messages"}

	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, dialect, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db, dialect); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(db, dialect); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}

func TestDialectOf(t *testing.T) {
	tests := []struct {
		dsn  string
		want database.Dialect
	}{
		{":memory:", database.SQLite},
		{"data/rse.db", database.SQLite},
		{"postgres://u:p@localhost/rse", database.Postgres},
		{"postgresql://localhost/rse", database.Postgres},
	}
	for _, tt := range tests {
		if got := database.DialectOf(tt.dsn); got != tt.want {
			t.Errorf("DialectOf(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}
