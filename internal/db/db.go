package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// pragmas are applied to every database on open. WAL is skipped for
// in-memory databases, which cannot use it.
var pragmas = []string{
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA synchronous=NORMAL",
}

// Open opens the SQLite asset register at path and configures it. The pool
// is limited to one connection: pragmas are per connection and ":memory:"
// databases are private to the connection that created them.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	settings := pragmas
	if !isMemory(path) {
		settings = append([]string{"PRAGMA journal_mode=WAL"}, pragmas...)
	}
	for _, p := range settings {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
