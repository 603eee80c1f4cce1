package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/grantshandy/starify/internal/shared"
)

const (
	stateBytes = 32

	// DefaultStateTTL is used when no state TTL is configured.
	DefaultStateTTL = shared.MinStateTTL
)

// StateToken is the anti-CSRF value bound to one login attempt.
type StateToken struct {
	Value    string
	IssuedAt time.Time
	TTL      time.Duration
}

// NewStateToken draws a fresh random state issued at now.
func NewStateToken(now time.Time, ttl time.Duration) (StateToken, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return StateToken{}, fmt.Errorf("failed to generate login state: %w", err)
	}
	return StateToken{
		Value:    base64.RawURLEncoding.EncodeToString(buf),
		IssuedAt: now,
		TTL:      ttl,
	}, nil
}

// Expiry is the first instant at which the token no longer validates.
func (s StateToken) Expiry() time.Time {
	return s.IssuedAt.Add(s.TTL)
}

// Expired reports whether now is at or past [StateToken.Expiry].
func (s StateToken) Expired(now time.Time) bool {
	return !now.Before(s.Expiry())
}

// Validate checks candidate against the token and the token's lifetime.
func (s StateToken) Validate(candidate string, now time.Time) error {
	if !equalState(candidate, s.Value) {
		return shared.ErrStateMismatch
	}
	if s.Expired(now) {
		return shared.ErrStateExpired
	}
	return nil
}

// ValidateState compares the state echoed by the provider with the copy the client held.
//
// It is the check run before anything else on callback: a missing client copy is
// [shared.ErrStateMissing], any difference is [shared.ErrStateMismatch].
func ValidateState(candidate, stored string) error {
	if stored == "" {
		return shared.ErrStateMissing
	}
	if !equalState(candidate, stored) {
		return shared.ErrStateMismatch
	}
	return nil
}

// ClampTTL bounds ttl to [shared.MinStateTTL, shared.MaxStateTTL]; zero selects [DefaultStateTTL].
func ClampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl == 0:
		return DefaultStateTTL
	case ttl < shared.MinStateTTL:
		return shared.MinStateTTL
	case ttl > shared.MaxStateTTL:
		return shared.MaxStateTTL
	default:
		return ttl
	}
}

func equalState(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type ledgerEntry struct {
	token    StateToken
	consumed bool
}

// stateLedger tracks states issued by this process until they expire.
//
// Consumed entries are kept until expiry so a replayed callback reports [shared.ErrStateConsumed].
type stateLedger struct {
	mu      sync.RWMutex
	entries map[string]*ledgerEntry
}

func newStateLedger() *stateLedger {
	return &stateLedger{entries: make(map[string]*ledgerEntry)}
}

// issue records tok as outstanding and drops expired entries.
func (l *stateLedger) issue(tok StateToken, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for value, e := range l.entries {
		if e.token.Expired(now) {
			delete(l.entries, value)
		}
	}
	l.entries[tok.Value] = &ledgerEntry{token: tok}
}

// consume marks value as used. Exactly one caller succeeds per issued state.
func (l *stateLedger) consume(value string, now time.Time) (StateToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[value]
	switch {
	case !ok:
		return StateToken{}, fmt.Errorf("%w: state was not issued by this server", shared.ErrStateMismatch)
	case e.consumed:
		return StateToken{}, shared.ErrStateConsumed
	case e.token.Expired(now):
		delete(l.entries, value)
		return StateToken{}, shared.ErrStateExpired
	}

	e.consumed = true
	return e.token, nil
}

// release returns a consumed state to outstanding so the login can be retried.
func (l *stateLedger) release(value string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[value]; ok {
		e.consumed = false
	}
}

// forget drops value entirely.
func (l *stateLedger) forget(value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, value)
}

// outstanding counts entries not yet consumed or expired.
func (l *stateLedger) outstanding(now time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.entries {
		if !e.consumed && !e.token.Expired(now) {
			n++
		}
	}
	return n
}
