package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// UserEnsurer crea el registro del usuario en su primer login.
type UserEnsurer interface {
	Ensure(ctx context.Context, uid, email, nombre string) (users.User, error)
}

type HandlerDeps struct {
	Manager  *Manager
	Verifier auth.AuthVerifier
	Users    UserEnsurer
	// OnLogout descarta el estado derivado de la sesión (cache de permisos).
	OnLogout func(sessionID string)
	// Limit se aplica solo a POST /auth/session.
	Limit func(http.Handler) http.Handler
	Log   logger.Logger
}

func RegisterRoutes(r chi.Router, deps HandlerDeps) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	create := http.Handler(createSessionHandler(deps))
	if deps.Limit != nil {
		create = deps.Limit(create)
	}
	r.Method(http.MethodPost, "/auth/session", create)
	r.Post("/auth/logout", logoutHandler(deps))
}

type createSessionRequest struct {
	IDToken string `json:"idToken"`
}

type sessionResponse struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
}

// @Summary Crear sesión
// @Description Verifica el idToken del proveedor de identidad y emite la cookie `session` (HttpOnly, SameSite=Lax, 7 días).
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body createSessionRequest true "idToken"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} map[string]any
// @Failure 401 {string} string "unauthorized"
// @Failure 429 {string} string "too many requests"
// @Failure 503 {object} map[string]any "proveedor de identidad caído"
// @Router /auth/session [post]
func createSessionHandler(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
			writeError(w, apperr.Validation("sessions.create", "idToken is required"))
			return
		}
		if deps.Verifier == nil {
			http.Error(w, "identity provider not configured", http.StatusServiceUnavailable)
			return
		}

		claims, err := deps.Verifier.Verify(r.Context(), req.IDToken)
		if errors.Is(err, apperr.ErrUnavailable) {
			deps.Log.Error("identity provider unavailable", logger.Fields{"error": err})
			writeError(w, err)
			return
		}
		if err != nil {
			deps.Log.Warn("id token rejected", logger.Fields{"error": err})
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := deps.Users.Ensure(r.Context(), claims.UserID, claims.Email, "")
		if err != nil {
			writeError(w, err)
			return
		}

		token, c, err := deps.Manager.Issue(u.UID)
		if err != nil {
			writeError(w, err)
			return
		}

		http.SetCookie(w, deps.Manager.Cookie(token))
		deps.Log.Info("session created", logger.Fields{"uid": u.UID, "session_id": c.SessionID})
		writeJSON(w, http.StatusOK, sessionResponse{UID: u.UID, Role: string(u.Role)})
	}
}

func logoutHandler(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(CookieName); err == nil {
			c, err := deps.Manager.Parse(ck.Value)
			switch {
			case err == nil && deps.OnLogout != nil:
				deps.OnLogout(c.SessionID)
			case err != nil && !errors.Is(err, ErrInvalidSession):
				deps.Log.Warn("logout with unreadable session", logger.Fields{"error": err})
			}
		}

		http.SetCookie(w, deps.Manager.ClearCookie())
		w.WriteHeader(http.StatusNoContent)
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
