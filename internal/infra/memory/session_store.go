package memory

import (
	"sync"

	"estimation-quiz-service/internal/app"
	"estimation-quiz-service/internal/domain"
)

// SessionStore keeps room sessions in process. Attaching a connection and
// dropping an empty room both happen under mu, so a room that has a
// subscriber is never deleted and a deleted room never gains one.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Attach(roomID, connID string) (<-chan domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[roomID]
	if !ok {
		return nil, false
	}
	return session.Subscribe(connID), true
}

func (s *SessionStore) AttachOrCreate(roomID, connID string, questions []domain.Question) <-chan domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[roomID]
	if !ok {
		session = app.NewSession(roomID, questions)
		s.sessions[roomID] = session
	}
	return session.Subscribe(connID)
}

func (s *SessionStore) Get(roomID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[roomID]
	return session, ok
}

// DeleteIfEmpty drops the room when nobody is joined or subscribed.
func (s *SessionStore) DeleteIfEmpty(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[roomID]; ok && session.IsEmpty() {
		delete(s.sessions, roomID)
	}
}

// Rooms lists the ids of every live room.
func (s *SessionStore) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}
