package appointments

import (
	"encoding/json"
	"net/http"
	"time"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta la agenda. DELETE /appointments/{id} lo monta el workflow.
func RegisterRoutes(r chi.Router, svc *Service, require permissions.RequireFunc) {
	r.With(require(permissions.ResourceAppointments, permissions.ActionCreate)).Post("/appointments", scheduleHandler(svc))
	r.With(require(permissions.ResourceAppointments, permissions.ActionRead)).Get("/appointments", listHandler(svc))
	r.With(require(permissions.ResourceAppointments, permissions.ActionRead)).Get("/appointments/{appointmentID}", getHandler(svc))
	r.With(require(permissions.ResourceAppointments, permissions.ActionUpdate)).Patch("/appointments/{appointmentID}", updateHandler(svc))
	r.With(require(permissions.ResourceAppointments, permissions.ActionUpdate)).Post("/appointments/{appointmentID}/confirm", confirmHandler(svc))
}

type AppointmentResponse struct {
	ID           string    `json:"id"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	PatientID    string    `json:"patientId"`
	PatientName  string    `json:"patientName"`
	OwnerID      string    `json:"ownerId"`
	OwnerName    string    `json:"ownerName"`
	Type         string    `json:"type"`
	Veterinarian string    `json:"veterinarian"`
	Duration     int       `json:"duration"`
	Notes        string    `json:"notes"`
	Status       Status    `json:"status"`
	Bare         bool      `json:"bare"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func scheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ScheduleInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, apperr.Validation("appointments.schedule", "invalid json"))
			return
		}

		a, err := svc.Schedule(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ToResponse(a))
	}
}

func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.List(r.Context(), ListFilter{
			Date:   q.Get("date"),
			Status: Status(q.Get("status")),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, ToResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Get(r.Context(), chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(a))
	}
}

func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in UpdateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, apperr.Validation("appointments.update", "invalid json"))
			return
		}

		a, err := svc.Update(r.Context(), chi.URLParam(r, "appointmentID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(a))
	}
}

func confirmHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Confirm(r.Context(), chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(a))
	}
}

// ToResponse es compartido con el workflow (resultado de consulta desde cita).
func ToResponse(a Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		Date:         a.Date,
		Time:         a.Time,
		PatientID:    a.PatientID,
		PatientName:  a.PatientName,
		OwnerID:      a.OwnerID,
		OwnerName:    a.OwnerName,
		Type:         a.Type,
		Veterinarian: a.Veterinarian,
		Duration:     a.Duration,
		Notes:        a.Notes,
		Status:       a.Status,
		Bare:         a.IsBare(),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), apperr.Body(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
