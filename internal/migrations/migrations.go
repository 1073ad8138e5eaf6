package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/rsepme/rsemodule/internal/database"
)

//go:embed *.sql
var fs embed.FS

// Run applies all pending migrations against db. The schema is written in
// the subset of SQL shared by SQLite and PostgreSQL.
func Run(db *sql.DB, dialect database.Dialect) error {
	goose.SetBaseFS(fs)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
