package access

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/middleware"
)

// fakeAuthz evalúa contra los defaults, o falla si err != nil.
type fakeAuthz struct {
	err   error
	calls int
}

func (f *fakeAuthz) HasPermission(ctx context.Context, p permissions.Principal, res permissions.Resource, act permissions.Action) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return permissions.HasPermission(permissions.DefaultFor(p.Role), res, act), nil
}

var (
	vet  = permissions.Principal{UID: "v1", Role: permissions.RoleVeterinarian}
	recp = permissions.Principal{UID: "r1", Role: permissions.RoleReceptionist}
)

func TestGuard_Decide(t *testing.T) {
	g := NewGuard(&fakeAuthz{}, nil)
	ctx := context.Background()

	if d := g.Decide(ctx, vet, permissions.ResourceConsultations, permissions.ActionCreate, ModeDisable); d.State != StateGranted || d.Mode != ModeExpose {
		t.Fatalf("expected granted/expose, got %+v", d)
	}

	d := g.Decide(ctx, recp, permissions.ResourceConsultations, permissions.ActionCreate, ModeDisable)
	if d.State != StateDenied || d.Mode != ModeDisable || d.Reason == "" || d.RedirectTo != "" {
		t.Fatalf("expected denied/disable with reason, got %+v", d)
	}

	d = g.Decide(ctx, recp, permissions.ResourceUsers, permissions.ActionRead, ModeRedirect)
	if d.State != StateDenied || d.RedirectTo != NoAccessPath {
		t.Fatalf("expected redirect to no-access, got %+v", d)
	}

	if d := g.Decide(ctx, permissions.Principal{}, permissions.ResourceDashboard, permissions.ActionRead, ModeDisable); d.State != StateDenied {
		t.Fatalf("missing principal must be denied, got %+v", d)
	}
}

func TestGuard_EvaluationErrorIsLoadingNotDenied(t *testing.T) {
	g := NewGuard(&fakeAuthz{err: errors.New("boom")}, nil)
	d := g.Decide(context.Background(), vet, permissions.ResourcePatients, permissions.ActionRead, ModeRedirect)
	if d.State != StateLoading || d.RedirectTo != "" {
		t.Fatalf("expected loading without redirect, got %+v", d)
	}
}

func TestViewGuard_RedirectsOncePerMount(t *testing.T) {
	redirects := 0
	v := NewViewGuard(func(string) { redirects++ })

	v.Mount()
	if v.State() != StateLoading {
		t.Fatalf("expected loading on mount")
	}

	v.Resolve(false)
	v.Resolve(false)
	v.RoleChanged()
	v.Resolve(false)
	if redirects != 1 {
		t.Fatalf("expected exactly 1 redirect in one mount, got %d", redirects)
	}
	if v.State() != StateDenied {
		t.Fatalf("expected denied, got %s", v.State())
	}

	v.Mount()
	v.Resolve(false)
	if redirects != 2 {
		t.Fatalf("expected a new redirect after remount, got %d", redirects)
	}
}

func TestViewGuard_LoadingNeverRedirects(t *testing.T) {
	redirects := 0
	v := NewViewGuard(func(string) { redirects++ })
	g := NewGuard(&fakeAuthz{err: errors.New("store down")}, nil)

	v.Mount()
	for i := 0; i < 5; i++ {
		if s := v.Check(context.Background(), g, recp, permissions.ResourceUsers, permissions.ActionRead); s != StateLoading {
			t.Fatalf("expected loading, got %s", s)
		}
	}
	if redirects != 0 {
		t.Fatalf("loading must not redirect, got %d", redirects)
	}
}

func TestViewGuard_RoleChangeRecomputes(t *testing.T) {
	g := NewGuard(&fakeAuthz{}, nil)
	v := NewViewGuard(nil)

	v.Mount()
	if s := v.Check(context.Background(), g, vet, permissions.ResourceConsultations, permissions.ActionCreate); s != StateGranted {
		t.Fatalf("expected granted, got %s", s)
	}

	// sin RoleChanged el estado terminal no se recalcula con un rol nuevo
	if s := v.Check(context.Background(), g, recp, permissions.ResourceConsultations, permissions.ActionCreate); s != StateGranted {
		t.Fatalf("expected terminal state kept, got %s", s)
	}

	v.RoleChanged()
	if s := v.Check(context.Background(), g, recp, permissions.ResourceConsultations, permissions.ActionCreate); s != StateDenied {
		t.Fatalf("expected denied after role change, got %s", s)
	}
}

func TestMiddleware_RequireAndRedirect(t *testing.T) {
	g := NewGuard(&fakeAuthz{}, nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name string
		h    http.Handler
		p    *permissions.Principal
		want int
	}{
		{"api granted", g.Require(permissions.ResourceInventory, permissions.ActionRead)(ok), &recp, http.StatusNoContent},
		{"api denied", g.Require(permissions.ResourceInventory, permissions.ActionDelete)(ok), &recp, http.StatusForbidden},
		{"api anonymous", g.Require(permissions.ResourceInventory, permissions.ActionRead)(ok), nil, http.StatusUnauthorized},
		{"page granted", g.RedirectIfDenied(permissions.ResourceDashboard, permissions.ActionRead)(ok), &vet, http.StatusNoContent},
		{"page denied", g.RedirectIfDenied(permissions.ResourceSettings, permissions.ActionRead)(ok), &vet, http.StatusSeeOther},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.p != nil {
			req = req.WithContext(middleware.WithPrincipal(req.Context(), *tc.p))
		}
		rec := httptest.NewRecorder()
		tc.h.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
		if tc.want == http.StatusSeeOther && rec.Header().Get("Location") != NoAccessPath {
			t.Fatalf("%s: expected Location %s, got %q", tc.name, NoAccessPath, rec.Header().Get("Location"))
		}
	}
}
