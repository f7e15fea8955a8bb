package sessionmanager

import (
	"errors"
	"sort"
	"sync"

	"github.com/annelo/climber-server/internal/session"
)

var (
	// ErrCapacity - достигнут лимит одновременных сессий.
	ErrCapacity = errors.New("server full")
	// ErrSessionNotFound - сессия с таким ID не зарегистрирована.
	ErrSessionNotFound = errors.New("session not found")
	ErrDuplicate       = errors.New("session with this id already exists")
)

// SessionManager - реестр активных сессий с ограничением по количеству.
type SessionManager struct {
	sessions map[string]*session.Session
	limit    int
	mu       sync.RWMutex
}

// NewSessionManager создаёт реестр; limit <= 0 означает без ограничения.
func NewSessionManager(limit int) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*session.Session),
		limit:    limit,
	}
}

// Add регистрирует сессию, если есть свободное место.
func (m *SessionManager) Add(s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID()]; exists {
		return ErrDuplicate
	}
	if m.limit > 0 && len(m.sessions) >= m.limit {
		return ErrCapacity
	}
	m.sessions[s.ID()] = s
	return nil
}

// Full сообщает, что новую сессию добавить нельзя.
func (m *SessionManager) Full() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.limit > 0 && len(m.sessions) >= m.limit
}

// Get возвращает сессию по ID
func (m *SessionManager) Get(id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove останавливает сессию и удаляет её из реестра.
func (m *SessionManager) Remove(id string) error {
	m.mu.Lock()
	s, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	s.Stop()
	return nil
}

// All возвращает снимок списка сессий, упорядоченный по ID.
func (m *SessionManager) All() []*session.Session {
	m.mu.RLock()
	list := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StopAll останавливает все сессии и очищает реестр. Возвращает число остановленных.
func (m *SessionManager) StopAll() int {
	m.mu.Lock()
	old := m.sessions
	m.sessions = make(map[string]*session.Session)
	m.mu.Unlock()

	for _, s := range old {
		s.Stop()
	}
	return len(old)
}
