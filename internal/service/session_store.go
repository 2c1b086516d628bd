package service

import (
	"sync"
	"time"

	"github.com/campus-os/timetable-api/internal/models"
)

const (
	sessionPending   = "pending"
	sessionRunning   = "running"
	sessionCompleted = "completed"
	sessionFailed    = "failed"
	sessionCancelled = "cancelled"
)

// terminal reports whether the status can no longer change.
func terminal(status string) bool {
	return status == sessionCompleted || status == sessionFailed || status == sessionCancelled
}

// generationSession tracks one asynchronous run.
type generationSession struct {
	ID        string
	Status    string
	Progress  int
	Total     int
	Result    *models.GenerationResult
	Err       string
	CreatedAt time.Time
}

// sessionStore is an in-memory TTL map of generation sessions. Expired
// sessions are dropped lazily on access.
type sessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]generationSession
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]generationSession),
	}
}

func (s *sessionStore) Save(session generationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = session
	s.evictLocked()
}

func (s *sessionStore) Get(id string) (generationSession, bool) {
	s.mu.RLock()
	session, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return generationSession{}, false
	}
	if time.Since(session.CreatedAt) > s.ttl {
		s.Delete(id)
		return generationSession{}, false
	}
	return session, true
}

// Update applies fn to the stored session under the write lock.
func (s *sessionStore) Update(id string, fn func(*generationSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[id]
	if !ok {
		return
	}
	fn(&session)
	s.items[id] = session
}

func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *sessionStore) evictLocked() {
	for id, session := range s.items {
		if time.Since(session.CreatedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}
