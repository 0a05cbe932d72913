package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/fitminute/photoedit/internal/session"
	"github.com/google/uuid"
)

// SessionStore keeps live edit sessions in memory.
type SessionStore struct {
	sessions map[string]*session.Session
	editor   session.Editor
	mu       sync.RWMutex
}

// New returns an empty store whose sessions edit through ed.
func New(ed session.Editor) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Session),
		editor:   ed,
	}
}

// Create starts a new idle session with a random ID.
func (s *SessionStore) Create() *session.Session {
	sess := session.New(uuid.NewString(), s.editor)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

func (s *SessionStore) Get(sessionID string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, exists := s.sessions[sessionID]
	return sess, exists
}

// GetAll returns every session, oldest first.
func (s *SessionStore) GetAll() []*session.Session {
	s.mu.RLock()
	result := make([]*session.Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete resets the session and removes it. It reports whether it existed.
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	sess, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists {
		sess.Reset()
	}
	return exists
}

// Wait blocks until every stored session has no edit in flight.
func (s *SessionStore) Wait() {
	for _, sess := range s.GetAll() {
		sess.Wait()
	}
}

// Drain waits like Wait but gives up when ctx is done, returning its error.
func (s *SessionStore) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
