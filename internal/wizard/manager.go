package wizard

import (
	"sync"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
)

// Manager is the in-memory registry of live wizard sessions. Each session is
// owned by the caller that created it; the manager only maps ids to sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
}

// NewManager creates a registry that stamps new sessions with cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// Create opens a new session.
func (m *Manager) Create() *Session {
	session := NewSession(m.cfg)
	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()
	return session
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

// Delete resets and discards a session. Deleting an unknown id is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if ok {
		session.Reset()
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
