package consultations

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/clinicaltime"

	"github.com/go-chi/chi/v5"
)

const basePath = "/owners/{ownerID}/patients/{patientID}/consultations"

// RegisterRoutes monta lecturas y edición clínica. Alta (walk-in) y
// /consultations/realizada pasan por el workflow.
func RegisterRoutes(r chi.Router, svc *Service, loc *time.Location, require permissions.RequireFunc) {
	r.With(require(permissions.ResourceConsultations, permissions.ActionRead)).Get("/consultations", listAllHandler(svc, loc))
	r.With(require(permissions.ResourceConsultations, permissions.ActionRead)).Get(basePath, listByPatientHandler(svc, loc))
	r.With(require(permissions.ResourceConsultations, permissions.ActionRead)).Get(basePath+"/{consultationID}", getHandler(svc, loc))
	r.With(require(permissions.ResourceConsultations, permissions.ActionUpdate)).Patch(basePath+"/{consultationID}", updateHandler(svc, loc))
}

type ArticuloJSON struct {
	ItemID           string  `json:"itemId"`
	Nombre           string  `json:"nombre"`
	Quantity         int     `json:"quantity"`
	UnitPrice        float64 `json:"unitPrice"`
	StockAtTimeOfUse int     `json:"stockAtTimeOfUse"`
}

type DuenoJSON struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

type MascotaJSON struct {
	ID      string     `json:"id"`
	Nombre  string     `json:"nombre"`
	DuenoID string     `json:"duenoId,omitempty"`
	Dueno   *DuenoJSON `json:"dueno,omitempty"`
}

// ConsultationJSON es la forma pública de una consulta. Se usa también como
// body de POST /consultations/realizada (la consulta tal como se listó).
type ConsultationJSON struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"ownerId,omitempty"`
	PatientID       string         `json:"patientId"`
	VeterinarianID  string         `json:"veterinarianId"`
	AppointmentID   string         `json:"appointmentId,omitempty"`
	Fecha           time.Time      `json:"fecha"`
	FechaDisplay    string         `json:"fechaDisplay,omitempty"`
	Hora            string         `json:"hora,omitempty"`
	Motivo          string         `json:"motivo"`
	Sintomas        string         `json:"sintomas"`
	Diagnostico     string         `json:"diagnostico"`
	Tratamiento     string         `json:"tratamiento"`
	Estado          Estado         `json:"estado"`
	ProximaCita     string         `json:"proximaCita,omitempty"`
	CostoConsulta   float64        `json:"costoConsulta"`
	Total           float64        `json:"total"`
	ArticulosUsados []ArticuloJSON `json:"articulosUsados"`
	Mascota         MascotaJSON    `json:"mascota"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func ToJSON(c Consultation, loc *time.Location) ConsultationJSON {
	out := ConsultationJSON{
		ID:              c.ID,
		OwnerID:         c.OwnerID,
		PatientID:       c.PatientID,
		VeterinarianID:  c.VeterinarianID,
		AppointmentID:   c.AppointmentID,
		Fecha:           c.Fecha.UTC(),
		Motivo:          c.Motivo,
		Sintomas:        c.Sintomas,
		Diagnostico:     c.Diagnostico,
		Tratamiento:     c.Tratamiento,
		Estado:          c.Estado,
		ProximaCita:     c.ProximaCita,
		CostoConsulta:   c.CostoConsulta,
		Total:           c.Total(),
		ArticulosUsados: make([]ArticuloJSON, 0, len(c.ArticulosUsados)),
		Mascota: MascotaJSON{
			ID:      c.Mascota.ID,
			Nombre:  c.Mascota.Nombre,
			DuenoID: c.Mascota.DuenoID,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if loc != nil && !c.Fecha.IsZero() {
		out.FechaDisplay = clinicaltime.Display(c.Fecha, loc)
		out.Hora = clinicaltime.LocalClock(c.Fecha, loc)
	}
	if c.Mascota.Dueno != nil {
		out.Mascota.Dueno = &DuenoJSON{ID: c.Mascota.Dueno.ID, Nombre: c.Mascota.Dueno.Nombre}
	}
	for _, a := range c.ArticulosUsados {
		out.ArticulosUsados = append(out.ArticulosUsados, ArticuloJSON(a))
	}
	return out
}

// FromJSON reconstruye la consulta desde el body del cliente (campos que el
// cliente conoce; la ruta se resuelve luego con ResolvePath).
func FromJSON(j ConsultationJSON) Consultation {
	c := Consultation{
		ID:        j.ID,
		OwnerID:   j.OwnerID,
		PatientID: j.PatientID,
		Estado:    j.Estado,
		Mascota: Mascota{
			ID:      j.Mascota.ID,
			Nombre:  j.Mascota.Nombre,
			DuenoID: j.Mascota.DuenoID,
		},
	}
	if j.Mascota.Dueno != nil {
		c.Mascota.Dueno = &Dueno{ID: j.Mascota.Dueno.ID, Nombre: j.Mascota.Dueno.Nombre}
	}
	return c
}

func listAllHandler(svc *Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, apperr.Validation("consultations.list", "limit must be a positive integer"))
				return
			}
			limit = n
		}

		items, err := svc.ListAll(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toList(items, loc))
	}
}

func listByPatientHandler(svc *Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByPatient(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toList(items, loc))
	}
}

func getHandler(svc *Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.Get(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "patientID"), chi.URLParam(r, "consultationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToJSON(c, loc))
	}
}

func updateHandler(svc *Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in UpdateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, apperr.Validation("consultations.update", "invalid json"))
			return
		}

		c, err := svc.UpdateClinical(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "patientID"), chi.URLParam(r, "consultationID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToJSON(c, loc))
	}
}

func toList(items []Consultation, loc *time.Location) []ConsultationJSON {
	out := make([]ConsultationJSON, 0, len(items))
	for _, c := range items {
		out = append(out, ToJSON(c, loc))
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), apperr.Body(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
