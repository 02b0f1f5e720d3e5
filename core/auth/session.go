package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName is the session cookie delivered to the admin browser.
const CookieName = "mixtape_session"

// Session is the server-side state behind one session cookie.
type Session struct {
	Token     string
	CSRFToken string
	LoginTime time.Time
	ExpiresAt time.Time
}

// SessionManager holds authenticated sessions in memory. The system is a
// single process, so no cross-process coordination is needed; sessions simply
// expire after the configured TTL.
type SessionManager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
}

// NewSessionManager creates a manager with the given session lifetime.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create issues a fresh authenticated session. Any previous token is
// destroyed first so a pre-login cookie can never become authenticated
// (session fixation). The CSRF secret is generated once per session.
func (m *SessionManager) Create(previousToken string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if previousToken != "" {
		delete(m.sessions, previousToken)
	}

	now := time.Now()
	session := &Session{
		Token:     uuid.NewString(),
		CSRFToken: newCSRFToken(),
		LoginTime: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.sessions[session.Token] = session
	return session
}

// Get returns the session for a token, enforcing expiry.
func (m *SessionManager) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	if time.Now().After(session.ExpiresAt) {
		delete(m.sessions, token)
		return nil, false
	}
	return session, true
}

// Destroy clears all state for a token.
func (m *SessionManager) Destroy(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// ValidateCSRF compares a submitted token against the session's secret in
// constant time.
func (m *SessionManager) ValidateCSRF(session *Session, token string) bool {
	if session == nil || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(session.CSRFToken), []byte(token)) == 1
}

func newCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
