package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// dsnOptions enables WAL journaling, waits out short lock contention, and
// enforces the task/entry foreign keys on every connection.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Open opens the SQLite database at path and brings the schema up to date.
// Pass ":memory:" for an ephemeral database in tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// One connection serializes writers, so an entry upsert plus streak
	// recompute never races a reorder transaction into SQLITE_BUSY. It
	// also keeps ":memory:" databases coherent: every pool connection
	// would otherwise get its own empty in-memory database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	// Migrations are logged by the caller through slog, not goose's own
	// stdout logger.
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
