// Package testutil provides helpers for tests that need a real database
// or a running catalog backend.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/database"
	"github.com/movieontip/movieontip/internal/stub"
)

// TestDB wraps a migrated test database.
type TestDB struct {
	DB     *database.DB
	Conn   *sql.DB
	Path   string
	Logger zerolog.Logger
}

// NewTestDB creates a migrated database in a temp directory. It is closed
// automatically when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dir := t.TempDir()
	logger := NewTestLogger(t)

	db, err := database.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDB{DB: db, Conn: db.Conn(), Path: dir, Logger: logger}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// NewCatalogServer starts a stub catalog backend seeded with seed and
// returns it together with its store.
func NewCatalogServer(t *testing.T, seed stub.Seed) (*httptest.Server, *stub.Store) {
	t.Helper()

	tdb := NewTestDB(t)
	store := stub.NewStore(tdb.Conn, tdb.Logger)
	if _, err := store.Apply(context.Background(), seed); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}

	srv := httptest.NewServer(stub.NewServer(store, tdb.Logger))
	t.Cleanup(srv.Close)
	return srv, store
}

// Movies builds n seed records titled "<prefix> 1".."<prefix> n".
func Movies(prefix string, n int) []stub.Record {
	out := make([]stub.Record, n)
	for i := range out {
		out[i] = stub.Record{
			"id":        fmt.Sprint(i + 1),
			"title":     fmt.Sprintf("%s %d", prefix, i+1),
			"year":      "2018",
			"posterurl": fmt.Sprintf("https://images.example/%s-%d.jpg", prefix, i+1),
			"duration":  "PT125M",
		}
	}
	return out
}
