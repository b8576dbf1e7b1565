package access

import (
	"encoding/json"
	"net/http"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/middleware"
)

// Require protege rutas de API: sin principal 401, denegado 403, loading 503.
func (g *Guard) Require(resource permissions.Resource, action permissions.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := middleware.GetPrincipal(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "UNAUTHORIZED", "retryable": false})
				return
			}

			d := g.Decide(r.Context(), p, resource, action, ModeDisable)
			switch d.State {
			case StateGranted:
				next.ServeHTTP(w, r)
			case StateLoading:
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "UNAVAILABLE", "retryable": true, "decision": d})
			default:
				writeJSON(w, http.StatusForbidden, map[string]any{"error": "FORBIDDEN", "retryable": false, "decision": d})
			}
		})
	}
}

// RedirectIfDenied protege rutas de página: cada request es un montaje de la
// vista; si se deniega redirige (303) una sola vez a NoAccessPath.
func (g *Guard) RedirectIfDenied(resource permissions.Resource, action permissions.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := middleware.GetPrincipal(r.Context())

			view := NewViewGuard(func(to string) {
				http.Redirect(w, r, to, http.StatusSeeOther)
			})
			view.Mount()

			switch view.Check(r.Context(), g, p, resource, action) {
			case StateGranted:
				next.ServeHTTP(w, r)
			case StateLoading:
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusServiceUnavailable, Decision{State: StateLoading, Mode: ModeDisable, Reason: "permissions are loading"})
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
