package stub

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrTokenNotFound     = errors.New("refresh token not found")
	ErrTokenRevoked      = errors.New("refresh token revoked")
	ErrTokenExpired      = errors.New("refresh token expired")
)

// User is an account held by the stub backend
type User struct {
	ID                 string
	Username           string
	Email              string
	FullName           string
	RegistrationNumber string
	Area               *string
	PasswordHash       string
	OrganizationID     string
	CreatedAt          time.Time
}

type refreshToken struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

// Store keeps users and refresh tokens in memory
type Store struct {
	mu            sync.RWMutex
	users         map[string]*User
	refreshTokens map[string]*refreshToken
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		users:         make(map[string]*User),
		refreshTokens: make(map[string]*refreshToken),
	}
}

// CreateUser adds user unless its username or email is already taken in
// the same organization. Comparison is case-insensitive.
func (s *Store) CreateUser(user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.OrganizationID != user.OrganizationID {
			continue
		}
		if strings.EqualFold(existing.Username, user.Username) {
			return ErrDuplicateUsername
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// FindByLogin looks a user up by username or email within an organization
func (s *Store) FindByLogin(organizationID, login string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.OrganizationID != organizationID {
			continue
		}
		if strings.EqualFold(user.Username, login) || strings.EqualFold(user.Email, login) {
			found := *user
			return &found, true
		}
	}
	return nil, false
}

// FindByID returns the user with id
func (s *Store) FindByID(id string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, false
	}
	found := *user
	return &found, true
}

// SaveRefreshToken records an issued refresh token
func (s *Store) SaveRefreshToken(token, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshTokens[token] = &refreshToken{userID: userID, expiresAt: expiresAt}
}

// ConsumeRefreshToken revokes a live refresh token and returns its owner.
// A token can be consumed once.
func (s *Store) ConsumeRefreshToken(token string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.refreshTokens[token]
	switch {
	case !ok:
		return "", ErrTokenNotFound
	case record.revoked:
		return "", ErrTokenRevoked
	case !now.Before(record.expiresAt):
		return "", ErrTokenExpired
	}

	record.revoked = true
	return record.userID, nil
}

// RevokeUserTokens revokes every live refresh token of userID and returns
// how many were revoked
func (s *Store) RevokeUserTokens(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	revoked := 0
	for _, record := range s.refreshTokens {
		if record.userID == userID && !record.revoked {
			record.revoked = true
			revoked++
		}
	}
	return revoked
}

// UserCount returns the number of registered users
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
