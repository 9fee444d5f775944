// Package history provides SQLite-based persistence for chat transcripts.
// The database is opened lazily and created on first use.
// If opening the DB or executing queries fails, the store falls back to in-memory storage.
package history

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/movieagent/internal/logger"
)

// Store keeps transcripts in SQLite when a path is configured and always keeps
// an in-memory copy as fallback.
type Store struct {
	path string

	mu       sync.Mutex
	messages []Message // in-memory fallback
	nextID   int64

	dbOnce  sync.Once
	db      *sql.DB
	initErr error
}

// New returns a Store. An empty path keeps everything in memory.
func New(path string) *Store {
	return &Store{path: path}
}

// initDB lazily opens the SQLite database and creates the messages table if it doesn't exist.
func (s *Store) initDB() {
	if s.path == "" {
		return
	}
	db, err := sql.Open("sqlite", "file:"+s.path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS messages (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT,
        role TEXT,
        content TEXT,
        created_at DATETIME
    );`); err != nil {
		s.initErr = err
		_ = db.Close()
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		return
	}
	s.db = db
	logger.L.Info("sqlite history DB initialized", "path", s.path)
}

func (s *Store) sqlite() *sql.DB {
	s.dbOnce.Do(s.initDB)
	if s.initErr != nil {
		return nil
	}
	return s.db
}

// Save persists a message to the SQLite database when available and always keeps
// an in-memory copy as fallback.
func (s *Store) Save(msg Message) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	if db := s.sqlite(); db != nil {
		_, err := db.Exec(`INSERT INTO messages (session_id, role, content, created_at) VALUES (?,?,?,?);`, msg.SessionID, msg.Role, msg.Content, msg.CreatedAt)
		if err != nil {
			logger.L.Error("failed to store message in sqlite; falling back to memory", "error", err)
		}
	}

	s.mu.Lock()
	s.nextID++
	msg.ID = s.nextID
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
}

// List returns all messages of a session in chronological order.
func (s *Store) List(sessionID string) []Message {
	if db := s.sqlite(); db != nil {
		out, err := queryMessages(db, `SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY id ASC;`,
			func(rows *sql.Rows, m *Message) error {
				return rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt)
			}, sessionID)
		if err == nil {
			return out
		}
		logger.L.Warn("sqlite list failed; reading in-memory history", "error", err)
	}

	var out []Message
	s.mu.Lock()
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	return out
}

// Sessions summarises every stored session, most recent first.
func (s *Store) Sessions() []SessionSummary {
	if db := s.sqlite(); db != nil {
		msgs, err := queryMessages(db, `SELECT session_id, created_at FROM messages ORDER BY id ASC;`,
			func(rows *sql.Rows, m *Message) error {
				return rows.Scan(&m.SessionID, &m.CreatedAt)
			})
		if err == nil {
			return summarize(msgs)
		}
		logger.L.Warn("sqlite session listing failed; reading in-memory history", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return summarize(s.messages)
}

// queryMessages runs query and scans each row with scan. Rows that fail to
// scan are logged and skipped; an iteration error fails the whole query.
func queryMessages(db *sql.DB, query string, scan func(*sql.Rows, *Message) error, args ...any) ([]Message, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := scan(rows, &m); err != nil {
			logger.L.Warn("skipping unreadable history row", "error", err)
			continue
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}

func summarize(msgs []Message) []SessionSummary {
	index := make(map[string]int)
	var out []SessionSummary
	for _, m := range msgs {
		i, ok := index[m.SessionID]
		if !ok {
			i = len(out)
			index[m.SessionID] = i
			out = append(out, SessionSummary{SessionID: m.SessionID})
		}
		out[i].Messages++
		out[i].LastActivity = m.CreatedAt
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].LastActivity.After(out[b].LastActivity) })
	return out
}

// Close releases the database handle, if any.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
