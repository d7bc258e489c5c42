// Package testutil provides fixtures shared by adapter and command tests.
package testutil

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// WriteJSONLFixture writes one JSON record per line to path, creating
// parent directories as needed.
func WriteJSONLFixture(t *testing.T, path string, records []map[string]interface{}) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture file: %v", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			t.Fatalf("Failed to encode fixture record: %v", err)
		}
	}
}

// CreateCursorFixture creates a state.vscdb-shaped SQLite database with the
// given cursorDiskKV rows.
func CreateCursorFixture(t *testing.T, dbPath string, rows map[string]interface{}) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS cursorDiskKV (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	for key, value := range rows {
		data, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("Failed to marshal fixture value for %s: %v", key, err)
		}
		if _, err := db.Exec("INSERT INTO cursorDiskKV (key, value) VALUES (?, ?)", key, string(data)); err != nil {
			t.Fatalf("Failed to insert fixture row %s: %v", key, err)
		}
	}
}
