package permissions

import (
	"encoding/json"
	"net/http"

	"vet-clinic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
)

// RequireFunc construye el middleware que exige resource:action al principal.
type RequireFunc func(Resource, Action) func(http.Handler) http.Handler

func RegisterRoutes(r chi.Router, store *Store, require RequireFunc) {
	r.With(require(ResourceUsers, ActionRead)).Get("/roles/permissions", listTableHandler(store))
	r.With(require(ResourceUsers, ActionRead)).Get("/roles/{role}/permissions", getRoleHandler(store))
	r.With(require(ResourceSettings, ActionUpdate)).Put("/roles/{role}/permissions", putRoleHandler(store))
}

type rolePermissionsResponse struct {
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	Editable    bool         `json:"editable"`
}

type putRoleRequest struct {
	Permissions []Permission `json:"permissions"`
}

// @Summary Tabla de permisos por rol
// @Description Devuelve la matriz completa rol -> recurso -> acciones. Siembra los roles que falten.
// @Tags roles
// @Produce json
// @Success 200 {array} rolePermissionsResponse
// @Failure 403 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /roles/permissions [get]
func listTableHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, err := store.GetAllRolePermissions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]rolePermissionsResponse, 0, len(table))
		for _, role := range Roles() {
			out = append(out, rolePermissionsResponse{
				Role:        role,
				Permissions: table[role],
				Editable:    role != RoleAdmin,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getRoleHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, ok := ParseRole(chi.URLParam(r, "role"))
		if !ok {
			writeError(w, ErrUnknownRole)
			return
		}

		perms, err := store.GetRolePermissions(r.Context(), role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rolePermissionsResponse{
			Role:        role,
			Permissions: perms,
			Editable:    role != RoleAdmin,
		})
	}
}

// @Summary Reemplazar permisos de un rol
// @Description Reemplaza el set completo. El rol admin no es editable (403).
// @Tags roles
// @Accept json
// @Produce json
// @Param role path string true "admin | veterinarian | receptionist"
// @Param payload body putRoleRequest true "Permisos"
// @Success 200 {object} rolePermissionsResponse
// @Failure 400 {object} map[string]any
// @Failure 403 {object} map[string]any
// @Router /roles/{role}/permissions [put]
func putRoleHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, ok := ParseRole(chi.URLParam(r, "role"))
		if !ok {
			writeError(w, ErrUnknownRole)
			return
		}

		var req putRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("permissions.put", "invalid json"))
			return
		}

		if err := store.SetRolePermissions(r.Context(), role, req.Permissions); err != nil {
			writeError(w, err)
			return
		}

		perms, err := store.GetRolePermissions(r.Context(), role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rolePermissionsResponse{Role: role, Permissions: perms, Editable: true})
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
