package bridge

import (
	"sync"
	"time"
)

// TokenPair is the credential set produced by a completed login exchange.
//
// The refresh token is long lived: created by the login exchange, destroyed
// only by explicit logout. The temporal token is short lived and is treated
// as absent once its expiry has passed; expiry is checked at read time, never
// enforced by a background timer.
type TokenPair struct {
	RefreshToken   string
	TemporalToken  string
	TemporalExpiry time.Time
}

// TokenSource yields the current temporal token for credential attachment.
type TokenSource interface {
	// TemporalToken returns the token and true, or "" and false when no
	// valid (non-expired) temporal token is available.
	TemporalToken() (string, bool)
}

// TokenStore is the in-memory owner of the token pair. All methods are safe
// for concurrent use.
type TokenStore struct {
	mu   sync.Mutex
	pair TokenPair
	now  func() time.Time
}

var _ TokenSource = (*TokenStore)(nil)

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{now: time.Now}
}

// Save replaces the stored pair.
func (s *TokenStore) Save(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	return nil
}

// SetTemporalToken stores a fresh temporal token valid for the given window
// from now. A zero or negative window yields a token that reads as absent
// immediately.
func (s *TokenStore) SetTemporalToken(token string, validity time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair.TemporalToken = token
	s.pair.TemporalExpiry = s.now().Add(validity)
}

// RefreshToken returns the stored refresh token, if any.
func (s *TokenStore) RefreshToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair.RefreshToken, s.pair.RefreshToken != ""
}

// TemporalToken returns the temporal token if present and not expired.
// Reading an expired token does not delete it; deletion is an explicit
// logout action via Clear.
func (s *TokenStore) TemporalToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pair.TemporalToken == "" {
		return "", false
	}
	if !s.now().Before(s.pair.TemporalExpiry) {
		return "", false
	}
	return s.pair.TemporalToken, true
}

// Clear discards both tokens. Called on logout.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{}
}
