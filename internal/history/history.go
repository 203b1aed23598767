// Package history persists committed conversation turns in SQLite.
// A Store without a database keeps turns in memory only.
package history

import (
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/chatline/internal/logger"
)

// Store is an ordered, append-only log of turns for one conversation.
type Store struct {
	mu        sync.Mutex
	db        *sql.DB
	sessionID string
	items     []Item // used when db is nil
}

// NewMemory returns a Store that never touches disk.
func NewMemory() *Store {
	return &Store{}
}

// Open opens (creating if needed) the SQLite database at path and scopes the
// Store to sessionID.
func Open(path, sessionID string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// Single writer keeps insertion order equal to id order.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create turns table: %w", err)
	}
	logger.L.Info("sqlite history DB initialized", "path", path, "session", sessionID)
	return &Store{db: db, sessionID: sessionID}, nil
}

// Append commits one turn after the others.
func (s *Store) Append(question, answer string) error {
	item := Item{Question: question, Answer: answer, CreatedAt: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		s.items = append(s.items, item)
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO turns (session_id, question, answer, created_at) VALUES (?,?,?,?);`,
		s.sessionID, item.Question, item.Answer, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("store turn: %w", err)
	}
	return nil
}

// List returns all turns of the session, oldest first.
func (s *Store) List() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return slices.Clone(s.items), nil
	}
	rows, err := s.db.Query(`SELECT question, answer, created_at FROM turns WHERE session_id = ? ORDER BY id ASC;`, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Question, &it.Answer, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Clear drops every turn of the session.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		s.items = nil
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM turns WHERE session_id = ?;`, s.sessionID); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}
	logger.L.Debug("history cleared", "session", s.sessionID)
	return nil
}

// Close releases the database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
