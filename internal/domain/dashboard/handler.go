package dashboard

import (
	"encoding/json"
	"net/http"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, require permissions.RequireFunc) {
	r.With(require(permissions.ResourceDashboard, permissions.ActionRead)).Get("/dashboard/summary", summaryHandler(svc))
}

// summaryHandler godoc
// @Summary Resumen del día
// @Tags dashboard
// @Produce json
// @Success 200 {object} Summary
// @Failure 503 {object} map[string]any
// @Router /dashboard/summary [get]
func summaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context())
		if err != nil {
			writeJSON(w, apperr.HTTPStatus(err), apperr.Body(err))
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
