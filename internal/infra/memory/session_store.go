package memory

import (
	"context"
	"sync"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore:
// a map of session documents with per-session watcher channels. Applies
// are serialized under the store lock; watchers receive every updated
// snapshot.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	snapshot domain.Session
	watchers map[chan domain.Session]struct{}
}

var _ app.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*sessionEntry)}
}

func (s *SessionStore) Create(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Code]; ok {
		return domain.ErrSessionExists
	}
	s.sessions[session.Code] = &sessionEntry{
		snapshot: session.Clone(),
		watchers: make(map[chan domain.Session]struct{}),
	}
	return nil
}

func (s *SessionStore) Get(_ context.Context, code string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[code]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return entry.snapshot.Clone(), nil
}

func (s *SessionStore) Apply(_ context.Context, code string, m domain.Mutation) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[code]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	next, err := domain.Apply(entry.snapshot, m)
	if err != nil {
		return domain.Session{}, err
	}
	entry.snapshot = next
	snapshot := next.Clone()
	for ch := range entry.watchers {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot so a slow watcher never blocks the apply.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	return snapshot, nil
}

func (s *SessionStore) Watch(_ context.Context, code string) (<-chan domain.Session, func(), error) {
	s.mu.Lock()
	entry, ok := s.sessions[code]
	if !ok {
		s.mu.Unlock()
		return nil, nil, domain.ErrSessionNotFound
	}
	ch := make(chan domain.Session, 8)
	entry.watchers[ch] = struct{}{}
	initial := entry.snapshot.Clone()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if entry, ok := s.sessions[code]; ok {
			if _, ok := entry.watchers[ch]; ok {
				delete(entry.watchers, ch)
				close(ch)
			}
		}
	}
	return ch, cancel, nil
}

// Delete drops a session and closes all its watcher channels, which
// watchers observe as session expiry.
func (s *SessionStore) Delete(_ context.Context, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[code]
	if !ok {
		return
	}
	for ch := range entry.watchers {
		close(ch)
	}
	delete(s.sessions, code)
}
