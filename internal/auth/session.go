package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Session is an explicit server-side login session. Every privileged
// operation receives one instead of trusting ambient client-side state.
type Session struct {
	Token     string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Credentials are the configured admin credentials sessions are checked
// against.
type Credentials struct {
	Email    string
	Password string
}

var ErrInvalidCredentials = errors.New("invalid email or password")

// Store issues and validates sessions in memory. Sessions expire after the
// configured TTL and are purged lazily on access.
type Store struct {
	mu       sync.Mutex
	creds    Credentials
	ttl      time.Duration
	sessions map[string]Session
}

func NewStore(creds Credentials, ttl time.Duration) *Store {
	return &Store{
		creds:    creds,
		ttl:      ttl,
		sessions: make(map[string]Session),
	}
}

// Login checks the given credentials and issues a new session on success.
// Comparison is constant-time so the response does not leak which field was
// wrong through timing.
func (s *Store) Login(email, password string) (Session, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(email)), []byte(s.creds.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password)) == 1
	if !emailOK || !passOK || s.creds.Email == "" {
		return Session{}, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return Session{}, fmt.Errorf("issue session token: %w", err)
	}
	now := time.Now()
	sess := Session{
		Token:     token,
		Email:     s.creds.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()
	return sess, nil
}

// Validate looks up the session for a token. Expired sessions are removed and
// reported as absent.
func (s *Store) Validate(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, false
	}
	return sess, true
}

// Revoke drops a session, logging the holder out.
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// CleanExpired removes all expired sessions and returns how many were
// dropped. The name matches the cache manager's Cleaner interface so the
// store can ride the same cleanup ticker.
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var dropped int
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			dropped++
		}
	}
	return dropped
}

func newToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
