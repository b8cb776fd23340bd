package auth

import (
	"sync"
	"time"
)

// Session records an authenticated principal: the credential (token JTI),
// the identity (user id and username) and the role captured at login.
type Session struct {
	JTI       string
	UserID    string
	Username  string
	Role      string
	ExpiresAt time.Time
}

// SessionStore manages active sessions in memory, keyed by token JTI.
// Logging in establishes a session; logging out clears it, after which the
// still-valid JWT is no longer accepted. Expired entries are cleaned up by a
// background goroutine. Thread-safe for concurrent access.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session // JTI -> session
	userJTIs map[string][]string // userID -> []JTI
	done     chan struct{}
}

// NewSessionStore creates a new store and starts a background goroutine that
// cleans up expired entries every 5 minutes.
func NewSessionStore() *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*Session),
		userJTIs: make(map[string][]string),
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Establish registers a session. A user may hold several concurrent sessions,
// one per issued token.
func (s *SessionStore) Establish(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.JTI] = sess
	if sess.UserID != "" {
		s.userJTIs[sess.UserID] = append(s.userJTIs[sess.UserID], sess.JTI)
	}
}

// Clear removes the session for the given JTI. Clearing an absent session is
// a no-op, so repeated logouts are harmless.
func (s *SessionStore) Clear(jti string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(jti)
}

// ClearAllForUser removes every session held by the given user and returns
// the number of sessions that were cleared.
func (s *SessionStore) ClearAllForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	jtis := s.userJTIs[userID]
	count := 0
	for _, jti := range append([]string(nil), jtis...) {
		if _, ok := s.sessions[jti]; ok {
			s.remove(jti)
			count++
		}
	}
	return count
}

// Current returns the active session for the given JTI. An expired session is
// never returned.
func (s *SessionStore) Current(jti string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[jti]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil, false
	}
	return sess, true
}

// IsAuthenticated reports whether an active session exists for the given JTI.
func (s *SessionStore) IsAuthenticated(jti string) bool {
	_, ok := s.Current(jti)
	return ok
}

// Count returns the number of stored sessions, including any expired entries
// not yet pruned.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background cleanup goroutine. It is safe to call multiple
// times but only the first call has effect.
func (s *SessionStore) Close() {
	select {
	case <-s.done:
		// already closed
	default:
		close(s.done)
	}
}

// remove deletes a session and its user mapping. Callers must hold the write lock.
func (s *SessionStore) remove(jti string) {
	sess, ok := s.sessions[jti]
	if !ok {
		return
	}
	delete(s.sessions, jti)

	if sess.UserID != "" {
		jtis := s.userJTIs[sess.UserID]
		for i, id := range jtis {
			if id == jti {
				s.userJTIs[sess.UserID] = append(jtis[:i], jtis[i+1:]...)
				break
			}
		}
		if len(s.userJTIs[sess.UserID]) == 0 {
			delete(s.userJTIs, sess.UserID)
		}
	}
}

// cleanupLoop periodically removes expired sessions.
func (s *SessionStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes sessions whose tokens have expired. Once a token is past
// its natural expiry there is no need to keep tracking its session.
func (s *SessionStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			s.remove(jti)
		}
	}
}
