// Package history journals inbound and outbound messages to sqlite for
// operator inspection. A nil store disables journaling.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Direction marks which way a journaled message flowed.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Entry is one journaled message.
type Entry struct {
	ID         int64
	Surface    string
	Direction  Direction
	Sender     string
	Target     string
	Body       string
	RecordedAt time.Time
}

// Store is the sqlite-backed message journal.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and migrates) the journal at path.
func Open(log *slog.Logger, path string) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	store := &Store{db: db, logger: log.With(slog.String("service", "history"))}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		surface     TEXT NOT NULL,
		direction   TEXT NOT NULL,
		sender      TEXT,
		target      TEXT,
		body        TEXT,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_messages_surface ON messages(surface, recorded_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the journal.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one entry. Journal failures are logged, not propagated;
// losing a journal row must never fail message processing.
func (s *Store) Record(ctx context.Context, entry Entry) {
	if s == nil || s.db == nil {
		return
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (surface, direction, sender, target, body) VALUES (?, ?, ?, ?, ?)`,
		entry.Surface, string(entry.Direction), entry.Sender, entry.Target, entry.Body,
	)
	if err != nil {
		s.logger.Warn("journal write failed", slog.Any("error", err))
	}
}

// Recent returns the most recent entries for a surface, newest first. An
// empty surface returns entries for all surfaces.
func (s *Store) Recent(ctx context.Context, surface string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, surface, direction, sender, target, body, recorded_at
		FROM messages WHERE (? = '' OR surface = ?)
		ORDER BY recorded_at DESC, id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, surface, surface, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()
	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var direction string
		if err := rows.Scan(&entry.ID, &entry.Surface, &direction, &entry.Sender, &entry.Target, &entry.Body, &entry.RecordedAt); err != nil {
			return nil, err
		}
		entry.Direction = Direction(direction)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
