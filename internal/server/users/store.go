// Package users is the dev server's in-memory account store: usernames,
// bcrypt password hashes, and each user's registered passkey credentials.
package users

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/dkurilov/boardpass/internal/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,32}$`)

// Credential is one registered passkey, in registration order. The JSON
// shape matches what the client caches.
type Credential struct {
	ID        string `json:"id"`
	PublicKey string `json:"publicKey"`
}

// User is one account.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	Credentials  []Credential
}

// Store holds accounts in memory, keyed by username. Safe for concurrent
// use.
type Store struct {
	mu     sync.RWMutex
	byName map[string]*User
	byID   map[string]*User
}

func NewStore() *Store {
	return &Store{
		byName: make(map[string]*User),
		byID:   make(map[string]*User),
	}
}

// ValidateUsername canonicalizes (lowercase, trimmed) and validates a
// username. It does not create the account; that happens on first password
// sign-in.
func (s *Store) ValidateUsername(username string) (string, error) {
	canonical := strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(canonical) {
		return "", fmt.Errorf("%w: username must be 3-32 characters (a-z, 0-9, '.', '_', '-')", common.ErrorValidation)
	}
	return canonical, nil
}

// Authenticate verifies the password for username. Dev convenience: the
// first successful password sign-in creates the account and sets the
// password; later sign-ins must match it.
func (s *Store) Authenticate(username, password string) (*User, error) {
	canonical, err := s.ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byName[canonical]
	if !ok {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u = &User{ID: uuid.NewString(), Username: canonical, PasswordHash: hash}
		s.byName[canonical] = u
		s.byID[u.ID] = u
		return copyUser(u), nil
	}

	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, fmt.Errorf("%w: invalid credentials", common.ErrorUnauthorized)
	}
	return copyUser(u), nil
}

// Get returns the account for a canonical username.
func (s *Store) Get(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byName[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user %q", common.ErrorNotFound, username)
	}
	return copyUser(u), nil
}

// GetByID returns the account a token was issued for.
func (s *Store) GetByID(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user id", common.ErrorNotFound)
	}
	return copyUser(u), nil
}

// AddCredential appends a passkey to the account and returns the full
// credential list in registration order.
func (s *Store) AddCredential(username string, cred Credential) ([]Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byName[username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user %q", common.ErrorNotFound, username)
	}
	for _, existing := range u.Credentials {
		if existing.ID == cred.ID {
			return nil, fmt.Errorf("%w: credential already registered", common.ErrorValidation)
		}
	}
	u.Credentials = append(u.Credentials, cred)
	return append([]Credential(nil), u.Credentials...), nil
}

// Credentials returns the account's passkeys in registration order.
func (s *Store) Credentials(username string) ([]Credential, error) {
	u, err := s.Get(username)
	if err != nil {
		return nil, err
	}
	return u.Credentials, nil
}

func copyUser(u *User) *User {
	c := *u
	c.Credentials = append([]Credential(nil), u.Credentials...)
	return &c
}
