// Package store provides SQLite-based game state storage.
// Election rounds and candidates are addressable rows rather than
// nested arrays, and vote tallies use atomic per-key increments so
// concurrent casts against the same round never overwrite each other.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a SQLite connection for game state persistence.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st := &Store{conn: conn}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return st, nil
}

// OpenMemory opens a throwaway in-memory database, used by tests.
// Capped to a single connection: the driver gives each pooled
// connection its own in-memory database otherwise.
func OpenMemory() (*Store, error) {
	conn, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	st := &Store{conn: conn}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (st *Store) Close() error {
	return st.conn.Close()
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS countries (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		flag_code TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL DEFAULT '',
		voting_system TEXT NOT NULL DEFAULT 'Popular Vote',
		president INTEGER,
		vp INTEGER,
		cabinet_mofa INTEGER,
		cabinet_mod INTEGER,
		cabinet_mot INTEGER
	);

	CREATE TABLE IF NOT EXISTS congress_members (
		country_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		PRIMARY KEY (country_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS parties (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		country_id INTEGER NOT NULL,
		president INTEGER,
		vp INTEGER
	);

	CREATE TABLE IF NOT EXISTS party_members (
		party_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		PRIMARY KEY (party_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS regions (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		core_id INTEGER NOT NULL,
		hidden INTEGER NOT NULL DEFAULT 0,
		geometry_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS region_neighbors (
		region_id INTEGER NOT NULL,
		neighbor_id INTEGER NOT NULL,
		ord INTEGER NOT NULL,
		PRIMARY KEY (region_id, neighbor_id)
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		xp INTEGER NOT NULL DEFAULT 0,
		gold REAL NOT NULL DEFAULT 0,
		country_id INTEGER NOT NULL,
		region_id INTEGER NOT NULL,
		party_id INTEGER,
		can_vote TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		scope TEXT NOT NULL,
		entity_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		target_date TEXT NOT NULL,
		system TEXT NOT NULL DEFAULT '',
		winner INTEGER,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS round_winners (
		round_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		PRIMARY KEY (round_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS candidates (
		round_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		party_id INTEGER,
		region_id INTEGER,
		confirmed INTEGER NOT NULL DEFAULT 0,
		eligible INTEGER NOT NULL DEFAULT 1,
		votes INTEGER NOT NULL DEFAULT 0,
		electors INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (round_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS endorsements (
		round_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		party_id INTEGER NOT NULL,
		PRIMARY KEY (round_id, user_id, party_id)
	);

	CREATE TABLE IF NOT EXISTS president_tallies (
		round_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		region_id INTEGER NOT NULL,
		tally INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (round_id, user_id, region_id)
	);

	CREATE TABLE IF NOT EXISTS president_voters (
		round_id TEXT NOT NULL,
		region_id INTEGER NOT NULL,
		voter_id INTEGER NOT NULL,
		PRIMARY KEY (round_id, voter_id)
	);

	CREATE TABLE IF NOT EXISTS region_results (
		round_id TEXT NOT NULL,
		region_id INTEGER NOT NULL,
		winner_id INTEGER NOT NULL,
		electors INTEGER NOT NULL,
		votes INTEGER NOT NULL,
		PRIMARY KEY (round_id, region_id)
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		message TEXT NOT NULL,
		read INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rounds_entity ON rounds(scope, entity_id, status);
	CREATE INDEX IF NOT EXISTS idx_users_country ON users(country_id);
	CREATE INDEX IF NOT EXISTS idx_users_region ON users(region_id);
	CREATE INDEX IF NOT EXISTS idx_regions_owner ON regions(owner_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts(user_id);
	`
	_, err := st.conn.Exec(schema)
	return err
}

// notFound maps sql.ErrNoRows onto the store's sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// withTx runs fn inside a transaction, rolling back on error.
func (st *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := st.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
