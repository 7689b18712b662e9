package mockbackend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// User is a registered member.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore keeps members in memory.
type UserStore struct {
	cost int

	mu         sync.RWMutex
	byID       map[string]*User
	byUsername map[string]*User
	byEmail    map[string]*User
}

// NewUserStore creates an empty store hashing passwords at the given bcrypt cost.
func NewUserStore(cost int) *UserStore {
	return &UserStore{
		cost:       cost,
		byID:       make(map[string]*User),
		byUsername: make(map[string]*User),
		byEmail:    make(map[string]*User),
	}
}

// Create registers a member. Usernames and emails are unique, emails
// case-insensitively.
func (s *UserStore) Create(_ context.Context, username, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	emailKey := strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[username]; ok {
		return nil, apperrors.AlreadyExists("user", "username", username)
	}
	if _, ok := s.byEmail[emailKey]; ok {
		return nil, apperrors.AlreadyExists("user", "email", email)
	}
	s.byID[user.ID] = user
	s.byUsername[username] = user
	s.byEmail[emailKey] = user
	return user, nil
}

// Authenticate checks a username, email and password triple.
func (s *UserStore) Authenticate(_ context.Context, username, email, password string) (*User, error) {
	s.mu.RLock()
	user, ok := s.byUsername[username]
	s.mu.RUnlock()

	if !ok || !strings.EqualFold(user.Email, email) {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	return user, nil
}

// Delete removes a member.
func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return apperrors.NotFound("user", id)
	}
	delete(s.byID, id)
	delete(s.byUsername, user.Username)
	delete(s.byEmail, strings.ToLower(user.Email))
	return nil
}

// Count returns the number of members.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
