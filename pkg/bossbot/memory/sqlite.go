package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.
)

// schema is executed on every open (idempotent via IF NOT EXISTS).
const schema = `
CREATE TABLE IF NOT EXISTS chats (
    channel       TEXT NOT NULL,
    chat_id       TEXT NOT NULL,
    last_activity TEXT NOT NULL DEFAULT '',
    history       TEXT NOT NULL DEFAULT '[]',
    updated_at    TEXT NOT NULL,
    PRIMARY KEY (channel, chat_id)
);
`

// DefaultPath is used when OpenSQLite gets an empty path.
const DefaultPath = "./data/bossbot.db"

// SQLite persists chat snapshots in a single table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the state database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = DefaultPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %q: %w", dir, err)
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// SaveChat upserts one chat snapshot.
func (s *SQLite) SaveChat(snap ChatSnapshot) error {
	hist, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	last := ""
	if !snap.LastActivity.IsZero() {
		last = snap.LastActivity.UTC().Format(time.RFC3339Nano)
	}

	_, err = s.db.Exec(`
		INSERT INTO chats (channel, chat_id, last_activity, history, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(channel, chat_id) DO UPDATE SET
			last_activity = excluded.last_activity,
			history       = excluded.history,
			updated_at    = excluded.updated_at`,
		snap.Key.Channel, snap.Key.ChatID, last, string(hist),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save chat %s: %w", snap.Key, err)
	}
	return nil
}

// LoadChats returns every stored snapshot.
func (s *SQLite) LoadChats() ([]ChatSnapshot, error) {
	rows, err := s.db.Query(`SELECT channel, chat_id, last_activity, history FROM chats`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var out []ChatSnapshot
	for rows.Next() {
		var (
			snap       ChatSnapshot
			last, hist string
		)
		if err := rows.Scan(&snap.Key.Channel, &snap.Key.ChatID, &last, &hist); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		if last != "" {
			t, err := time.Parse(time.RFC3339Nano, last)
			if err != nil {
				return nil, fmt.Errorf("parse last_activity of %s: %w", snap.Key, err)
			}
			snap.LastActivity = t
		}
		if err := json.Unmarshal([]byte(hist), &snap.History); err != nil {
			return nil, fmt.Errorf("parse history of %s: %w", snap.Key, err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ Persister = (*SQLite)(nil)
