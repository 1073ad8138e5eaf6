package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/go-libsql"
)

// Dialect identifies the SQL flavour behind a *sql.DB. Values are goose
// dialect names.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// DialectOf picks the dialect from a DSN: postgres:// URLs select
// PostgreSQL, anything else is a SQLite file path.
func DialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open connects to dsn. SQLite paths go through libSQL and are configured
// for concurrent use: WAL journal mode, 5 s busy timeout, foreign keys
// enabled. ":memory:" databases are pinned to one connection so every
// query sees the same database.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	dialect := DialectOf(dsn)
	if dialect == Postgres {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("opening database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("pinging database: %w", err)
		}
		return db, dialect, nil
	}

	db, err := sql.Open("libsql", "file:"+dsn)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// libSQL rejects Exec for PRAGMAs that return rows, but some PRAGMAs
	// (like foreign_keys=ON) return nothing. Use QueryContext and drain rows
	// to handle both cases uniformly.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, "", fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("pinging database: %w", err)
	}

	return db, dialect, nil
}
