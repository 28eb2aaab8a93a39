package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "USR_001", "exp": exp.Unix()}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.yml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.LoggedIn() {
		t.Fatal("fresh store should be logged out")
	}

	token := signedToken(t, time.Now().Add(time.Hour))
	if err := s.Save(token, "potato"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := reloaded.Token()
	if !ok || got != token {
		t.Fatalf("Token() = (%q, %v)", got, ok)
	}
	if reloaded.Username() != "potato" {
		t.Fatalf("Username() = %q", reloaded.Username())
	}
}

func TestExpiredTokenNotServed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.yml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(signedToken(t, time.Now().Add(-time.Minute)), "potato"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, ok := s.Token(); ok {
		t.Fatal("expired token should not be served")
	}
	if s.LoggedIn() {
		t.Fatal("expired session should report logged out")
	}
}

func TestOpaqueTokenAssumedLive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.yml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save("not-a-jwt", "potato"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := s.Token(); !ok {
		t.Fatal("unparseable token should be left for the server to judge")
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.yml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(signedToken(t, time.Now().Add(time.Hour)), "potato"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reloaded.LoggedIn() {
		t.Fatal("cleared session should be logged out")
	}

	// Clearing twice is fine.
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}
