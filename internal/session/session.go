package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventCallback is a function that delivers outgoing events to the client
type EventCallback func(event string, data []byte) error

// ErrSessionNotFound is returned when a session is not found
var ErrSessionNotFound = errors.New("session not found")

// ErrNoEventCallback is returned when a session has no way to reach its client
var ErrNoEventCallback = errors.New("session has no event callback")

// Session represents a client session
type Session struct {
	ID             string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Connected      bool
	Initialized    bool
	EventCallback  EventCallback
	Capabilities   map[string]interface{}
	mu             sync.Mutex
}

// SendEvent delivers an event to the client through the session's callback
func (s *Session) SendEvent(event string, data []byte) error {
	s.mu.Lock()
	cb := s.EventCallback
	s.mu.Unlock()

	if cb == nil {
		return ErrNoEventCallback
	}
	return cb(event, data)
}

// SetCapabilities stores the client capabilities announced at initialize
func (s *Session) SetCapabilities(capabilities map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Capabilities = capabilities
}

// SetInitialized marks the session as initialized
func (s *Session) SetInitialized(initialized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Initialized = initialized
}

// Manager manages client sessions
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// CreateSession creates a new session
func (m *Manager) CreateSession() *Session {
	session := &Session{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
		Capabilities:   make(map[string]interface{}),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session
}

// GetSession gets a session by ID
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	session.mu.Lock()
	session.LastAccessedAt = time.Now()
	session.mu.Unlock()

	return session, nil
}

// RemoveSession removes a session by ID
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// ActiveSessionCount returns the number of live sessions
func (m *Manager) ActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
