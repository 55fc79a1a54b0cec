package authz

import (
	"sync"
	"sync/atomic"
)

// Session is the per-login authorization context: the authenticated user's
// active role names plus the cached Authorization Index. The index pointer
// is swapped atomically so a reader never observes a half-built map.
type Session struct {
	UserID int64
	Roles  []string

	index atomic.Pointer[Index]
}

func NewSession(userID int64, roles []string) *Session {
	return &Session{UserID: userID, Roles: roles}
}

// Index returns the cached index, or false when none has been built yet.
func (s *Session) Index() (Index, bool) {
	p := s.index.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

// ReplaceIndex swaps in a freshly built index wholesale. Stale entries are
// discarded, never merged.
func (s *Session) ReplaceIndex(idx Index) {
	s.index.Store(&idx)
}

// ClearIndex drops the cached index. Clearing an absent cache is a no-op;
// the next access check rebuilds.
func (s *Session) ClearIndex() {
	s.index.Store(nil)
}

// SessionStore keeps live sessions keyed by user id so grant mutations can
// invalidate every cached index at once.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Put registers (or replaces) the session for a user.
func (st *SessionStore) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.UserID] = s
}

func (st *SessionStore) Get(userID int64) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[userID]
	return s, ok
}

// Remove drops a session, typically on logout.
func (st *SessionStore) Remove(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, userID)
}

// InvalidateIndexes clears the cached index of every live session. Called
// after any role-menu mutation; each session rebuilds on its next check.
func (st *SessionStore) InvalidateIndexes() {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, s := range st.sessions {
		s.ClearIndex()
	}
}
