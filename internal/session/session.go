// Package session keeps the bounded, in-memory conversation history for
// each user id.
package session

import (
	"context"
	"sync"
	"time"
)

// Role identifies the sender of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation, append-only within a session.
type Turn struct {
	Role    Role
	Content string
}

// Session is the conversation history for one user id. All access goes
// through Manager.Acquire, which holds the session lock for the duration of
// a chat turn so concurrent messages for the same user serialize instead of
// interleaving their history writes.
type Session struct {
	mu         sync.Mutex
	turns      []Turn
	maxTurns   int
	lastActive time.Time
}

// Append adds a turn and trims the log to the most recent maxTurns entries.
func (s *Session) Append(role Role, content string) {
	s.turns = append(s.turns, Turn{Role: role, Content: content})
	if len(s.turns) > s.maxTurns {
		excess := len(s.turns) - s.maxTurns
		s.turns = append(s.turns[:0], s.turns[excess:]...)
	}
}

// Turns returns a copy of the current history, oldest first.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of stored turns.
func (s *Session) Len() int {
	return len(s.turns)
}

// Manager owns all live sessions, keyed by user id. Sessions are created
// lazily on first use and evicted after sitting idle for idleTTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	maxTurns int
	idleTTL  time.Duration
}

// DefaultMaxTurns caps a session at 5 user/assistant exchanges.
const DefaultMaxTurns = 10

// NewManager creates a session manager. maxTurns <= 0 falls back to
// DefaultMaxTurns; idleTTL <= 0 disables eviction.
func NewManager(maxTurns int, idleTTL time.Duration) *Manager {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Manager{
		sessions: make(map[int64]*Session),
		maxTurns: maxTurns,
		idleTTL:  idleTTL,
	}
}

// Acquire returns the session for userID with its lock held, creating it if
// needed. The caller must invoke release when the chat turn is finished;
// until then other messages for the same user block here.
func (m *Manager) Acquire(userID int64) (sess *Session, release func()) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{maxTurns: m.maxTurns}
		m.sessions[userID] = s
	}
	s.lastActive = time.Now()
	m.mu.Unlock()

	s.mu.Lock()
	return s, func() {
		m.mu.Lock()
		s.lastActive = time.Now()
		m.mu.Unlock()
		s.mu.Unlock()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StartEvictor runs a background sweep that drops sessions idle for longer
// than the configured TTL. It stops when ctx is cancelled. No-op when
// eviction is disabled.
func (m *Manager) StartEvictor(ctx context.Context) {
	if m.idleTTL <= 0 {
		return
	}
	interval := m.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.evictIdle(time.Now())
			}
		}
	}()
}

// evictIdle removes sessions whose last activity is older than the TTL.
// Sessions currently held by a chat turn are skipped.
func (m *Manager) evictIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if now.Sub(s.lastActive) < m.idleTTL {
			continue
		}
		if !s.mu.TryLock() {
			continue
		}
		s.mu.Unlock()
		delete(m.sessions, id)
	}
}
