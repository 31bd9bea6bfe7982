package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joescharf/folio/internal/store"
)

const (
	// DefaultSessionIdle is how long an untouched visitor session is kept.
	DefaultSessionIdle = 24 * time.Hour
	maxSessions        = 10000
)

// Session is one visitor's session storage and guard.
type Session struct {
	ID    string
	Store *store.MemoryStore
	Guard *Guard
}

// Sessions maps visitor ids to their sessions. Idle sessions are evicted,
// which clears their attempt logs along with everything else.
type Sessions struct {
	opts  []Option
	cache *expirable.LRU[string, *Session]
	mu    sync.Mutex
}

// NewSessions returns a registry whose guards are built with opts.
func NewSessions(idle time.Duration, opts ...Option) *Sessions {
	if idle <= 0 {
		idle = DefaultSessionIdle
	}
	return &Sessions{
		opts:  opts,
		cache: expirable.NewLRU[string, *Session](maxSessions, nil, idle),
	}
}

// Get returns the session for id, creating a new one (with a fresh id)
// when id is empty or unknown. created reports whether that happened.
func (s *Sessions) Get(id string) (sess *Session, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.cache.Get(id); ok {
			// Re-adding restarts the idle window.
			s.cache.Add(id, sess)
			return sess, false
		}
	}

	mem := store.NewMemoryStore()
	sess = &Session{
		ID:    uuid.NewString(),
		Store: mem,
		Guard: NewGuard(mem, s.opts...),
	}
	s.cache.Add(sess.ID, sess)
	return sess, true
}

// Drop forgets the session for id.
func (s *Sessions) Drop(id string) {
	s.cache.Remove(id)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	return s.cache.Len()
}
