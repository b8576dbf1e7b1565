package owners

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta lectura/alta/edición. Los DELETE los monta el workflow
// (borrado en cascada explícito).
func RegisterRoutes(r chi.Router, svc *Service, require permissions.RequireFunc) {
	r.With(require(permissions.ResourceOwners, permissions.ActionCreate)).Post("/owners", createOwnerHandler(svc))
	r.With(require(permissions.ResourceOwners, permissions.ActionRead)).Get("/owners", listOwnersHandler(svc))
	r.With(require(permissions.ResourceOwners, permissions.ActionRead)).Get("/owners/{ownerID}", getOwnerHandler(svc))
	r.With(require(permissions.ResourceOwners, permissions.ActionUpdate)).Patch("/owners/{ownerID}", updateOwnerHandler(svc))

	r.With(require(permissions.ResourcePatients, permissions.ActionCreate)).Post("/owners/{ownerID}/patients", createPatientHandler(svc))
	r.With(require(permissions.ResourcePatients, permissions.ActionRead)).Get("/owners/{ownerID}/patients", listPatientsHandler(svc))
	r.With(require(permissions.ResourcePatients, permissions.ActionRead)).Get("/owners/{ownerID}/patients/{patientID}", getPatientHandler(svc))
	r.With(require(permissions.ResourcePatients, permissions.ActionUpdate)).Patch("/owners/{ownerID}/patients/{patientID}", updatePatientHandler(svc))
}

type ownerResponse struct {
	ID        string    `json:"id"`
	RUT       string    `json:"rut"`
	Nombre    string    `json:"nombre"`
	Email     string    `json:"email"`
	Telefono  string    `json:"telefono"`
	Direccion string    `json:"direccion"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type patientResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Nombre          string    `json:"nombre"`
	Especie         string    `json:"especie"`
	Raza            string    `json:"raza"`
	Sexo            string    `json:"sexo"`
	FechaNacimiento string    `json:"fechaNacimiento,omitempty"`
	Microchip       string    `json:"microchip"`
	Notas           string    `json:"notas"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func createOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreateOwnerInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, apperr.Validation("owners.create", "invalid json"))
			return
		}

		o, err := svc.CreateOwner(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOwnerResponse(o))
	}
}

func listOwnersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// ?rut= => búsqueda exacta (paso de identificación del workflow)
		if rut := strings.TrimSpace(r.URL.Query().Get("rut")); rut != "" {
			o, err := svc.FindByRUT(r.Context(), rut)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, []ownerResponse{toOwnerResponse(o)})
			return
		}

		items, err := svc.ListOwners(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]ownerResponse, 0, len(items))
		for _, o := range items {
			out = append(out, toOwnerResponse(o))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := svc.GetOwner(r.Context(), chi.URLParam(r, "ownerID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOwnerResponse(o))
	}
}

func updateOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in UpdateOwnerInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, apperr.Validation("owners.update", "invalid json"))
			return
		}

		o, err := svc.UpdateOwner(r.Context(), chi.URLParam(r, "ownerID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOwnerResponse(o))
	}
}

func createPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreatePatientInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, apperr.Validation("owners.create_patient", "invalid json"))
			return
		}

		p, err := svc.CreatePatient(r.Context(), chi.URLParam(r, "ownerID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func listPatientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPatients(r.Context(), chi.URLParam(r, "ownerID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]patientResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetPatient(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func updatePatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in UpdatePatientInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, apperr.Validation("owners.update_patient", "invalid json"))
			return
		}

		p, err := svc.UpdatePatient(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "patientID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func toOwnerResponse(o Owner) ownerResponse {
	return ownerResponse{
		ID:        o.ID,
		RUT:       o.RUT,
		Nombre:    o.Nombre,
		Email:     o.Email,
		Telefono:  o.Telefono,
		Direccion: o.Direccion,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toPatientResponse(p Patient) patientResponse {
	out := patientResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Nombre:    p.Nombre,
		Especie:   p.Especie,
		Raza:      p.Raza,
		Sexo:      p.Sexo,
		Microchip: p.Microchip,
		Notas:     p.Notas,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.FechaNacimiento != nil {
		out.FechaNacimiento = p.FechaNacimiento.Format("2006-01-02")
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
