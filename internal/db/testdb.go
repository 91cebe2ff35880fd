package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an in-memory register with the schema applied and the
// given units registered. It is closed when the test ends.
func NewTestDB(t *testing.T, units ...string) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := EnsureSchema(db); err != nil {
		t.Fatalf("creating test database schema: %v", err)
	}
	for _, u := range units {
		if _, err := db.Exec(`INSERT INTO units (name) VALUES (?)`, u); err != nil {
			t.Fatalf("seeding unit %q: %v", u, err)
		}
	}

	return db
}
