package activity

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, require permissions.RequireFunc) {
	r.With(require(permissions.ResourcePatients, permissions.ActionRead)).
		Get("/owners/{ownerID}/patients/{patientID}/activity", listHandler(svc))
}

type entryResponse struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	PatientID  string    `json:"patientId"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	RecordedAt time.Time `json:"recordedAt"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes,omitempty"`
	ActorUID   string    `json:"actorUid"`
	ActorRole  string    `json:"actorRole"`
	Ref        string    `json:"ref,omitempty"`
}

// listHandler godoc
// @Summary Línea de tiempo del paciente
// @Tags activity
// @Produce json
// @Param ownerID path string true "Owner ID"
// @Param patientID path string true "Patient ID"
// @Param types query string false "Tipos separados por coma (CONSULTATION_CREATED,STOCK_CONSUMED)"
// @Param limit query int false "Máximo de entradas (1..200)"
// @Success 200 {array} entryResponse
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]any
// @Router /owners/{ownerID}/patients/{patientID}/activity [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := parseListFilter(r)

		items, err := svc.ListByPatient(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "patientID"), filter)
		if err != nil {
			writeJSON(w, apperr.HTTPStatus(err), apperr.Body(err))
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, entryResponse{
				ID:         e.ID,
				OwnerID:    e.OwnerID,
				PatientID:  e.PatientID,
				Type:       e.Type,
				OccurredAt: e.OccurredAt,
				RecordedAt: e.RecordedAt,
				Title:      e.Title,
				Notes:      e.Notes,
				ActorUID:   e.Actor.UID,
				ActorRole:  e.Actor.Role,
				Ref:        e.Ref,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseListFilter(r *http.Request) ListFilter {
	var filter ListFilter
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	// types=CONSULTATION_CREATED,STOCK_CONSUMED
	if v := strings.TrimSpace(r.URL.Query().Get("types")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if t := Type(strings.TrimSpace(p)); t != "" {
				filter.Types = append(filter.Types, t)
			}
		}
	}
	return filter
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
