// Package auth defines the identity boundary of the rewrite backend: a
// bearer credential goes in, a verified user id or a typed failure comes out.
// Session issuance and subscription state live outside this service; only the
// verification contract and a process-local session store for development and
// tests are provided here.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// Typed verification failures. Handlers map all three to 401 with distinct
// messages.
var (
	// ErrTokenMissing indicates no credential was presented.
	ErrTokenMissing = errors.New("authorization token missing")

	// ErrTokenInvalid indicates a malformed or unknown credential.
	ErrTokenInvalid = errors.New("authorization token invalid")

	// ErrTokenExpired indicates a previously valid credential past its TTL.
	ErrTokenExpired = errors.New("authorization token expired")
)

// Verifier resolves a bearer credential to a verified user id.
// Implementations must be safe for concurrent use.
type Verifier interface {
	// Verify returns the user id for token, or one of the typed failures.
	Verify(ctx context.Context, token string) (string, error)
}

// session is one issued credential.
type session struct {
	userID    string
	expiresAt time.Time
}

// MemorySessions is a mutex-guarded, in-process session store implementing
// Verifier. It exists for single-node deployments and tests; production
// deployments plug a real identity provider into the Verifier seam.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]session

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewMemorySessions returns an empty session store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]session), now: time.Now}
}

// Issue creates a session for userID valid for ttl and returns the token.
func (s *MemorySessions) Issue(userID string, ttl time.Duration) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.sessions[token] = session{userID: userID, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return token, nil
}

// Verify implements Verifier. Expired sessions are removed on access.
func (s *MemorySessions) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrTokenMissing
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return "", ErrTokenInvalid
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return "", ErrTokenExpired
	}
	return sess.userID, nil
}

// Revoke invalidates a token. Revoking an unknown token is a no-op.
func (s *MemorySessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}
