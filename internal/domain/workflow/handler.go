package workflow

import (
	"encoding/json"
	"net/http"
	"time"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/consultations"
	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta las operaciones que cruzan módulos. El guard de ruta es
// el primer filtro; el engine vuelve a autorizar.
func RegisterRoutes(r chi.Router, e *Engine, loc *time.Location, require permissions.RequireFunc) {
	r.With(require(permissions.ResourceConsultations, permissions.ActionCreate)).
		Post("/appointments/{appointmentID}/consultation", fromAppointmentHandler(e, loc))
	r.With(require(permissions.ResourceConsultations, permissions.ActionCreate)).
		Post("/owners/{ownerID}/patients/{patientID}/consultations", walkInHandler(e, loc))
	r.With(require(permissions.ResourceConsultations, permissions.ActionUpdate)).
		Post("/consultations/realizada", realizadaHandler(e, loc))

	r.With(require(permissions.ResourceAppointments, permissions.ActionDelete)).
		Delete("/appointments/{appointmentID}", deleteAppointmentHandler(e))
	r.With(require(permissions.ResourcePatients, permissions.ActionDelete)).
		Delete("/owners/{ownerID}/patients/{patientID}", deletePatientHandler(e))
	r.With(require(permissions.ResourceOwners, permissions.ActionDelete)).
		Delete("/owners/{ownerID}", deleteOwnerHandler(e))
}

type fromAppointmentRequest struct {
	Owner   OwnerLookup         `json:"owner"`
	Patient PatientLookup       `json:"patient"`
	Draft   consultations.Draft `json:"draft"`
}

type itemFailureResponse struct {
	ItemID    string `json:"itemId"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type createResponse struct {
	Consultation   consultations.ConsultationJSON    `json:"consultation"`
	Appointment    *appointments.AppointmentResponse `json:"appointment,omitempty"`
	Warnings       []string                          `json:"warnings"`
	Failures       []itemFailureResponse             `json:"failures"`
	AppointmentErr string                            `json:"appointmentError,omitempty"`
	Partial        bool                              `json:"partial"`
}

type realizadaResponse struct {
	Consultation consultations.ConsultationJSON `json:"consultation"`
	Changed      bool                           `json:"changed"`
}

// fromAppointmentHandler godoc
// @Summary Crear consulta desde una cita
// @Description Resuelve dueño y paciente, recorta insumos al stock, escribe la consulta y completa la cita.
// @Tags workflow
// @Accept json
// @Produce json
// @Param appointmentID path string true "Appointment ID"
// @Param body body fromAppointmentRequest true "Identidades y borrador"
// @Success 201 {object} createResponse
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]any
// @Failure 422 {object} map[string]any "IDENTITY_UNRESOLVED con state"
// @Router /appointments/{appointmentID}/consultation [post]
func fromAppointmentHandler(e *Engine, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var body fromAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperr.Validation("workflow.create", "invalid json"))
			return
		}

		res, err := e.CreateConsultation(r.Context(), p, Request{
			AppointmentID: chi.URLParam(r, "appointmentID"),
			Owner:         body.Owner,
			Patient:       body.Patient,
			Draft:         body.Draft,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		logPartial(r, res)
		writeJSON(w, http.StatusCreated, toCreateResponse(res, loc))
	}
}

func walkInHandler(e *Engine, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var d consultations.Draft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			writeError(w, apperr.Validation("workflow.create", "invalid json"))
			return
		}

		res, err := e.CreateConsultation(r.Context(), p, Request{
			Owner:   OwnerLookup{OwnerID: chi.URLParam(r, "ownerID")},
			Patient: PatientLookup{PatientID: chi.URLParam(r, "patientID")},
			Draft:   d,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		logPartial(r, res)
		writeJSON(w, http.StatusCreated, toCreateResponse(res, loc))
	}
}

// realizadaHandler recibe la consulta tal como se listó; la ruta se deriva de mascota.
func realizadaHandler(e *Engine, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var body consultations.ConsultationJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperr.Validation("workflow.realizada", "invalid json"))
			return
		}

		c, changed, err := e.MarkConsultationRealizada(r.Context(), p, consultations.FromJSON(body))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, realizadaResponse{Consultation: consultations.ToJSON(c, loc), Changed: changed})
	}
}

func deleteAppointmentHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		if err := e.DeleteAppointment(r.Context(), p, chi.URLParam(r, "appointmentID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deletePatientHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		if err := e.DeletePatient(r.Context(), p, chi.URLParam(r, "ownerID"), chi.URLParam(r, "patientID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteOwnerHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		if err := e.DeleteOwner(r.Context(), p, chi.URLParam(r, "ownerID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toCreateResponse(res Result, loc *time.Location) createResponse {
	out := createResponse{
		Consultation: consultations.ToJSON(res.Consultation, loc),
		Warnings:     res.Warnings,
		Failures:     make([]itemFailureResponse, 0, len(res.Failures)),
		Partial:      res.Partial(),
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if res.Appointment != nil {
		a := appointments.ToResponse(*res.Appointment)
		out.Appointment = &a
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, itemFailureResponse{
			ItemID:    f.ItemID,
			Error:     apperr.Code(f.Err),
			Message:   f.Err.Error(),
			Retryable: apperr.Retryable(f.Err),
		})
	}
	if res.AppointmentErr != nil {
		out.AppointmentErr = res.AppointmentErr.Error()
	}
	return out
}

// logPartial deja rastro de lo que no se aplicó; la consulta ya quedó escrita.
func logPartial(r *http.Request, res Result) {
	if !res.Partial() {
		return
	}
	logger.FromContext(r.Context(), logger.Nop()).Warn("consultation created with partial failures", logger.Fields{
		"consultation_id": res.Consultation.ID,
		"failures":        len(res.Failures),
		"error":           res.Err(),
	})
}

func principal(w http.ResponseWriter, r *http.Request) (permissions.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "UNAUTHORIZED", "retryable": false})
	}
	return p, ok
}

func writeError(w http.ResponseWriter, err error) {
	body := apperr.Body(err)
	if st, ok := StateOf(err); ok {
		body["state"] = st
	}
	writeJSON(w, apperr.HTTPStatus(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
