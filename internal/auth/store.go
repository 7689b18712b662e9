// Package auth holds the identity of the current shopper.
package auth

import (
	"sync"

	"github.com/utafrali/storefront/internal/domain"
)

// Store is the single session of the running storefront. It starts
// unauthenticated and is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	session domain.Session
}

// NewStore creates a store in the unauthenticated state.
func NewStore() *Store {
	return &Store{session: domain.Session{State: domain.AuthUnauthenticated}}
}

// SetAuthenticated commits a login. All fields change together so readers
// never observe a partial session.
func (s *Store) SetAuthenticated(userID, username, accessToken string, discountPercent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = domain.Session{
		UserID:          userID,
		Username:        username,
		AccessToken:     accessToken,
		DiscountPercent: clampDiscount(discountPercent),
		State:           domain.AuthAuthenticated,
	}
}

// SetDiscount updates the member discount. It reports false and changes
// nothing when no member is logged in.
func (s *Store) SetDiscount(discountPercent int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.State != domain.AuthAuthenticated {
		return false
	}
	s.session.DiscountPercent = clampDiscount(discountPercent)
	return true
}

// Logout forgets the member and moves to logged_out, which the view tells
// apart from a shopper who never logged in.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = domain.Session{State: domain.AuthLoggedOut}
}

// Reset returns to the initial unauthenticated state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = domain.Session{State: domain.AuthUnauthenticated}
}

// Session returns a copy of the current session.
func (s *Store) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Discount is the effective discount percentage, 0 for guests.
func (s *Store) Discount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Discount()
}

// IsAuthenticated reports whether a member is logged in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.State == domain.AuthAuthenticated
}

func clampDiscount(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
