package sessions

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: "test-secret-0123456789", Secure: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func TestManager_IssueAndParse(t *testing.T) {
	m := newTestManager(t)
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	token, issued, err := m.Issue("u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := m.Parse(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UID != "u1" || got.SessionID != issued.SessionID {
		t.Fatalf("unexpected claims %+v", got)
	}
	if !got.ExpiresAt.Equal(now.Add(DefaultTTL)) {
		t.Fatalf("expected 7 day expiry, got %s", got.ExpiresAt)
	}

	// expirado
	m.now = func() time.Time { return now.Add(DefaultTTL + time.Minute) }
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected expired session rejected, got %v", err)
	}
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	a := newTestManager(t)
	b, _ := NewManager(Config{Secret: "another-secret-9876543210"})

	token, _, _ := a.Issue("u1")
	if _, err := b.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected invalid signature rejected, got %v", err)
	}
	if _, err := a.Parse("not-a-jwt"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected garbage rejected, got %v", err)
	}
}

func TestManager_CookieAttributes(t *testing.T) {
	m := newTestManager(t)
	c := m.Cookie("tok")

	if c.Name != CookieName || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if c.MaxAge != 7*24*60*60 {
		t.Fatalf("expected 7 days max age, got %d", c.MaxAge)
	}
	if clear := m.ClearCookie(); clear.MaxAge >= 0 || clear.Value != "" {
		t.Fatalf("unexpected clear cookie %+v", clear)
	}
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager(Config{Secret: "short"}); err == nil {
		t.Fatalf("expected error for short secret")
	}
}
