/*
Package sqlite provides a SQLite-backed implementation of the persistence
gateway.

PURPOSE:
  Stores one row per user holding the serialized aggregate. The engine
  loads the whole aggregate, mutates it in memory, and saves it back, so
  the schema is a key-value table rather than normalized entity tables -
  the blob layout is the contract, the database is the envelope.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block
  the single writer and crash recovery is cleaner.

USAGE:
  gw, err := sqlite.New("./data/allowance.db")
  if err != nil { ... }
  defer gw.Close()

SEE ALSO:
  - allowance/store.go: Gateway interface and failure contract
  - allowance/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/allowance-engine/allowance"
)

// Gateway implements allowance.Gateway using SQLite.
type Gateway struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ allowance.Gateway = (*Gateway)(nil)

// New opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Gateway, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	gw := &Gateway{db: db}
	if err := gw.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return gw, nil
}

// Close closes the database connection.
func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS aggregates (
		user_id    TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := g.db.Exec(schema)
	return err
}

// Load returns the user's aggregate, or allowance.ErrUserNotFound.
func (g *Gateway) Load(ctx context.Context, userID string) (*allowance.Aggregate, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var blob string
	err := g.db.QueryRowContext(ctx,
		`SELECT state_json FROM aggregates WHERE user_id = ?`, userID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, allowance.ErrUserNotFound
	}
	if err != nil {
		return nil, &allowance.PersistenceError{Op: "load", Err: err}
	}

	var agg allowance.Aggregate
	if err := json.Unmarshal([]byte(blob), &agg); err != nil {
		return nil, &allowance.PersistenceError{Op: "load", Err: err}
	}
	return &agg, nil
}

// Save upserts the user's aggregate.
func (g *Gateway) Save(ctx context.Context, userID string, agg *allowance.Aggregate) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	blob, err := json.Marshal(agg)
	if err != nil {
		return &allowance.PersistenceError{Op: "save", Err: err}
	}

	_, err = g.db.ExecContext(ctx, `
		INSERT INTO aggregates (user_id, state_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`,
		userID, string(blob), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &allowance.PersistenceError{Op: "save", Err: err}
	}
	return nil
}
