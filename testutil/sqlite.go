// Package testutil holds shared test helpers: throwaway databases and mock
// Twitch endpoints.
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteSchema mirrors db.Migrate for sqlite: declared types are chosen so the
// driver round-trips time.Time values, and session ids autoincrement.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS birthdays (
		user_id TEXT PRIMARY KEY NOT NULL,
		username TEXT NOT NULL,
		birthday TIMESTAMP NOT NULL,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_start TIMESTAMP NOT NULL,
		session_end TIMESTAMP,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at TIMESTAMP
	)`,
}

// SetupSQLite opens an in-memory sqlite database with the service schema.
// A single connection is enforced so every statement sees the same memory DB.
func SetupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	database.SetMaxOpenConns(1)
	for i, stmt := range sqliteSchema {
		if _, err := database.Exec(stmt); err != nil {
			database.Close()
			t.Fatalf("sqlite schema step %d: %v", i, err)
		}
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
