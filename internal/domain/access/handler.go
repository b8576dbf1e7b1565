package access

import (
	"net/http"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, g *Guard) {
	r.Get("/me/capabilities", capabilitiesHandler(g))
	r.Get("/app/{resource}", pageEntryHandler(g))
	r.Get(NoAccessPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, Decision{State: StateDenied, Mode: ModeRedirect, Reason: "no access"})
	})
}

type capabilitiesResponse struct {
	UID          string                                                     `json:"uid"`
	Role         permissions.Role                                           `json:"role"`
	Capabilities map[permissions.Resource]map[permissions.Action]Decision `json:"capabilities"`
}

// @Summary Capacidades del usuario actual
// @Description Matriz recurso x acción con el modo de render (expose / disable + reason).
// @Tags access
// @Produce json
// @Success 200 {object} capabilitiesResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/capabilities [get]
func capabilitiesHandler(g *Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, capabilitiesResponse{
			UID:          p.UID,
			Role:         p.Role,
			Capabilities: g.Capabilities(r.Context(), p),
		})
	}
}

// pageEntryHandler responde la entrada a una página: 200 granted o 303 a /no-access.
func pageEntryHandler(g *Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := permissions.Resource(chi.URLParam(r, "resource"))
		granted := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, Decision{State: StateGranted, Mode: ModeExpose})
		})
		g.RedirectIfDenied(res, permissions.ActionRead)(granted).ServeHTTP(w, r)
	}
}
