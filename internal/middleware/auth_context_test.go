package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"
)

type fakeSessions map[string][2]string

func (f fakeSessions) ResolveSession(token string) (string, string, error) {
	v, ok := f[token]
	if !ok {
		return "", "", errors.New("bad token")
	}
	return v[0], v[1], nil
}

type fakeRoles struct {
	roles map[string]permissions.Role
	err   error
}

func (f fakeRoles) RoleOf(ctx context.Context, uid string) (permissions.Role, error) {
	if f.err != nil {
		return "", f.err
	}
	r, ok := f.roles[uid]
	if !ok {
		return "", apperr.NotFound("test", uid)
	}
	return r, nil
}

func run(t *testing.T, opts AuthOptions, req *http.Request) (permissions.Principal, bool, int) {
	t.Helper()
	var (
		got permissions.Principal
		ok  bool
	)
	h := AuthContext(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetPrincipal(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, ok, rec.Code
}

func TestAuthContext_RereadsRoleEveryRequest(t *testing.T) {
	roles := fakeRoles{roles: map[string]permissions.Role{"u1": permissions.RoleVeterinarian}}
	opts := AuthOptions{Sessions: fakeSessions{"tok": {"u1", "s1"}}, Roles: roles}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "tok"})

	p, ok, _ := run(t, opts, req)
	if !ok || p.Role != permissions.RoleVeterinarian || p.SessionID != "s1" {
		t.Fatalf("unexpected principal %+v ok=%v", p, ok)
	}

	roles.roles["u1"] = permissions.RoleReceptionist
	p, _, _ = run(t, opts, req)
	if p.Role != permissions.RoleReceptionist {
		t.Fatalf("expected re-read role, got %s", p.Role)
	}
}

func TestAuthContext_NoSessionNoPrincipal(t *testing.T) {
	opts := AuthOptions{Sessions: fakeSessions{}, Roles: fakeRoles{}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "forged"})
	req.Header.Set("X-Debug-User-ID", "u1")

	if _, ok, _ := run(t, opts, req); ok {
		t.Fatalf("expected no principal (forged cookie, dev mode off)")
	}
}

func TestAuthContext_DevHeaders(t *testing.T) {
	opts := AuthOptions{Roles: fakeRoles{roles: map[string]permissions.Role{"known": permissions.RoleVeterinarian}}, DevMode: true}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "known")
	req.Header.Set("X-Debug-Role", "admin")
	p, ok, _ := run(t, opts, req)
	if !ok || p.Role != permissions.RoleVeterinarian {
		t.Fatalf("stored role must win over X-Debug-Role, got %+v", p)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "ghost")
	req.Header.Set("X-Debug-Role", "receptionist")
	p, ok, _ = run(t, opts, req)
	if !ok || p.Role != permissions.RoleReceptionist {
		t.Fatalf("expected debug role for unknown user, got %+v", p)
	}
}

func TestAuthContext_UserStoreDown(t *testing.T) {
	opts := AuthOptions{
		Sessions: fakeSessions{"tok": {"u1", "s1"}},
		Roles:    fakeRoles{err: apperr.Unavailable("test", errors.New("timeout"))},
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "tok"})

	if _, _, code := run(t, opts, req); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
}
