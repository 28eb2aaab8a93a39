// Package session owns the bearer token and username the client holds
// between runs. Nothing else is persisted; the token is opaque except for
// its expiry claim, which is inspected locally so the client can route to
// login without burning a request on a dead token.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

const (
	fileMode = 0600
	dirMode  = 0755
)

// Store is a file-backed session holder. It implements api.TokenSource.
type Store struct {
	path     string
	token    string
	username string
}

type sessionFile struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
}

// Open loads the session at path, or returns an empty store when no
// session file exists yet.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("session: path is empty")
	}
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read: %w", err)
	}

	var f sessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		// A corrupt session file is treated as logged out.
		return s, nil
	}
	s.token = f.Token
	s.username = f.Username
	return s, nil
}

// DefaultPath returns the session file location under the user config dir.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("session: finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "nomnom", "session.yml"), nil
}

// Token returns the stored bearer token. ok is false when logged out or
// when the token has already expired.
func (s *Store) Token() (string, bool) {
	if s.token == "" || s.Expired(time.Now()) {
		return "", false
	}
	return s.token, true
}

// Username returns the stored display username.
func (s *Store) Username() string { return s.username }

// LoggedIn reports whether a non-expired token is held.
func (s *Store) LoggedIn() bool {
	_, ok := s.Token()
	return ok
}

// Save stores a fresh token and username and persists them.
func (s *Store) Save(token, username string) error {
	s.token = token
	s.username = username
	return s.persist()
}

// Clear drops the session, both in memory and on disk. Called on logout
// and on authentication rejection from the service.
func (s *Store) Clear() error {
	s.token = ""
	s.username = ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Expired reports whether the token's exp claim is in the past. The
// signature is the server's business, so the claim is read unverified; a
// token without a readable exp is assumed live and left to the server to
// reject.
func (s *Store) Expired(now time.Time) bool {
	if s.token == "" {
		return true
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(s.token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}

func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	data, err := yaml.Marshal(sessionFile{Token: s.token, Username: s.username})
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, data, fileMode); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	return nil
}
