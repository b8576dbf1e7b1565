package users

import (
	"encoding/json"
	"net/http"
	"time"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, require permissions.RequireFunc) {
	r.Get("/me", meHandler(svc))
	r.With(require(permissions.ResourceUsers, permissions.ActionRead)).Get("/users", listUsersHandler(svc))
	r.With(require(permissions.ResourceUsers, permissions.ActionUpdate)).Patch("/users/{uid}/role", changeRoleHandler(svc))
}

type userResponse struct {
	UID       string           `json:"uid"`
	Email     string           `json:"email"`
	Nombre    string           `json:"nombre"`
	Role      permissions.Role `json:"role"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.Get(r.Context(), p.UID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// @Summary Cambiar rol de usuario
// @Description Actualiza el rol e invalida las sesiones cacheadas del usuario. No permite degradar al último admin (409).
// @Tags users
// @Accept json
// @Produce json
// @Param uid path string true "UID del usuario"
// @Param payload body changeRoleRequest true "Nuevo rol"
// @Success 200 {object} userResponse
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /users/{uid}/role [patch]
func changeRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changeRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("users.change_role", "invalid json"))
			return
		}
		role, ok := permissions.ParseRole(req.Role)
		if !ok {
			writeError(w, apperr.Validation("users.change_role", "role must be admin, veterinarian or receptionist"))
			return
		}

		u, err := svc.ChangeRole(r.Context(), chi.URLParam(r, "uid"), role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		UID:       u.UID,
		Email:     u.Email,
		Nombre:    u.Nombre,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
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
