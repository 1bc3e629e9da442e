// Package sqlite implements the throttle store and alert journal on an
// embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"setup-scanner/internal/throttle"

	_ "github.com/mattn/go-sqlite3"
)

// Config configures the SQLite store.
type Config struct {
	DBPath     string        // path to SQLite database file, e.g. "data/scanner.db"
	PruneAfter time.Duration // throttle records older than this are deleted on write; 0 keeps all
}

// Store is a throttle.Store and model.AlertJournal backed by SQLite.
type Store struct {
	db         *sql.DB
	pruneAfter time.Duration
}

// New opens the database with WAL mode and creates the schema.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Store{db: db, pruneAfter: cfg.PruneAfter}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS alert_throttle (
			alert_key    TEXT    PRIMARY KEY,
			last_sent_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alert_journal (
			id         TEXT    PRIMARY KEY,
			run_id     TEXT    NOT NULL,
			asset      TEXT    NOT NULL,
			setup_id   TEXT    NOT NULL,
			score      REAL    NOT NULL,
			close      REAL    NOT NULL,
			target     REAL    NOT NULL,
			stop       REAL    NOT NULL,
			sent_at    INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_alert_journal_asset ON alert_journal(asset, setup_id);
		CREATE INDEX IF NOT EXISTS idx_alert_journal_sent_at ON alert_journal(sent_at);
	`)
	return err
}

// LastSent implements throttle.Store.
func (s *Store) LastSent(ctx context.Context, key string) (time.Time, bool, error) {
	var nanos int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_sent_at FROM alert_throttle WHERE alert_key = ?`, key).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: sqlite: read %s: %v", throttle.ErrStore, key, err)
	}
	return time.Unix(0, nanos).UTC(), true, nil
}

// Put implements throttle.Store.
func (s *Store) Put(ctx context.Context, key string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: sqlite: begin: %v", throttle.ErrStore, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO alert_throttle (alert_key, last_sent_at) VALUES (?, ?)`,
		key, at.UnixNano()); err != nil {
		return fmt.Errorf("%w: sqlite: write %s: %v", throttle.ErrStore, key, err)
	}
	if s.pruneAfter > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM alert_throttle WHERE last_sent_at < ?`,
			at.Add(-s.pruneAfter).UnixNano()); err != nil {
			return fmt.Errorf("%w: sqlite: prune: %v", throttle.ErrStore, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: sqlite: commit: %v", throttle.ErrStore, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
