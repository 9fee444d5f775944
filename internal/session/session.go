// Package session owns per-user conversation state and threads it through the
// agent one turn at a time.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comigor/movieagent/internal/agent"
	"github.com/comigor/movieagent/internal/conversation"
	"github.com/comigor/movieagent/internal/history"
	"github.com/comigor/movieagent/internal/logger"
)

// Processor runs one agent turn.
type Processor interface {
	Process(ctx context.Context, history conversation.History, message string) (agent.Turn, error)
}

// Recorder persists transcript messages.
type Recorder interface {
	Save(msg history.Message)
}

// Session is one user's conversation.
type Session struct {
	ID string

	mu        sync.Mutex
	history   conversation.History
	processor Processor
	recorder  Recorder
}

// New starts a session with a fresh id. recorder may be nil.
func New(processor Processor, recorder Recorder) *Session {
	return &Session{ID: uuid.NewString(), processor: processor, recorder: recorder}
}

// History returns the current history snapshot.
func (s *Session) History() conversation.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

// Send runs one turn and keeps the returned history. Turns on the same
// session are serialised.
func (s *Session) Send(ctx context.Context, message string) (agent.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn, err := s.processor.Process(ctx, s.history, message)
	if err != nil {
		return agent.Turn{}, err
	}
	s.history = turn.History

	if s.recorder != nil {
		now := time.Now().UTC()
		s.recorder.Save(history.Message{SessionID: s.ID, Role: conversation.RoleUser, Content: message, CreatedAt: now})
		s.recorder.Save(history.Message{SessionID: s.ID, Role: conversation.RoleAssistant, Content: turn.Reply, CreatedAt: now})
	}
	return turn, nil
}

// DefaultIdleTimeout is how long a Manager keeps a session nobody has asked for.
const DefaultIdleTimeout = 30 * time.Minute

// Manager hands out sessions by id for multi-user surfaces. Sessions idle for
// longer than the idle timeout are dropped on the next Get.
type Manager struct {
	processor   Processor
	recorder    Recorder
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout overrides DefaultIdleTimeout. Non-positive values keep the default.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

// NewManager creates an empty Manager.
func NewManager(processor Processor, recorder Recorder, opts ...ManagerOption) *Manager {
	m := &Manager{
		processor:   processor,
		recorder:    recorder,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the session for id, creating a new one (with a new id) when id
// is empty, unknown or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evictIdle(now)

	if e, ok := m.sessions[id]; ok {
		e.lastSeen = now
		return e.session
	}
	s := New(m.processor, m.recorder)
	m.sessions[s.ID] = &entry{session: s, lastSeen: now}
	return s
}

func (m *Manager) evictIdle(now time.Time) {
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.idleTimeout {
			delete(m.sessions, id)
			logger.L.Debug("session expired", "session", id)
		}
	}
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
