package sanctions

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists members, bans and warning ledgers. Each table has its own lock
// held for the duration of one read-modify-write cycle.
type Store struct {
	db         *sqlx.DB
	membersMu  sync.Mutex
	bansMu     sync.Mutex
	warningsMu sync.Mutex
}

// Open connects to the sqlite database at dbPath and ensures all tables exist.
func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", dbPath+"?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sanctions database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sqlx.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS members (
		    account_id INTEGER PRIMARY KEY,
		    handle TEXT NOT NULL DEFAULT '',
		    mute_until INTEGER NOT NULL DEFAULT 0,
		    mute_reason TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS bans (
		    account_id INTEGER PRIMARY KEY,
		    handle TEXT NOT NULL DEFAULT '',
		    until INTEGER NOT NULL DEFAULT 0,
		    reason TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS warnings (
		    account_id INTEGER PRIMARY KEY,
		    count INTEGER NOT NULL DEFAULT 0 CHECK (count BETWEEN 0 AND 3),
		    slot_1_expiry INTEGER NOT NULL DEFAULT 0,
		    slot_2_expiry INTEGER NOT NULL DEFAULT 0,
		    slot_3_expiry INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create sanctions schema: %w", err)
		}
	}

	// Columns added after the first release.
	alterStatements := []string{
		`ALTER TABLE members ADD COLUMN mute_reason TEXT NOT NULL DEFAULT ''`,
	}
	for _, stmt := range alterStatements {
		_, err := db.Exec(stmt)
		if err != nil && !strings.Contains(err.Error(), "duplicate column name") {
			return fmt.Errorf("failed to execute ALTER statement %s: %w", stmt, err)
		}
	}

	// Handles are unique among members that have one. Older databases only had a
	// plain index and may hold duplicates, the highest account id keeps the handle.
	handleStatements := []string{
		`DROP INDEX IF EXISTS idx_members_handle`,
		`UPDATE members SET handle = '' WHERE handle != '' AND rowid NOT IN (
		    SELECT MAX(rowid) FROM members WHERE handle != '' GROUP BY handle COLLATE NOCASE)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_members_handle_unique ON members (handle COLLATE NOCASE) WHERE handle != ''`,
	}
	for _, stmt := range handleStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to enforce unique member handles: %w", err)
		}
	}
	return nil
}
