package storage

import (
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/imagebatch/internal/models"
)

// SessionStore keeps upload sessions in memory. Get and GetAll hand out copies,
// so callers never race with a running batch; changes go through Update.
type SessionStore struct {
	sessions map[string]*models.Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, false
	}
	return session.Clone(), true
}

func (s *SessionStore) Set(sessionID string, session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

// Update applies fn to the stored session under the write lock
func (s *SessionStore) Update(sessionID string, fn func(*models.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return false
	}
	fn(session)
	return true
}

// GetAll returns copies of every session, oldest first
func (s *SessionStore) GetAll() []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
