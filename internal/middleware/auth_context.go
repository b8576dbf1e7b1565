package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/logger"
)

type ctxKey string

const principalKey ctxKey = "principal"

// SessionResolver valida el token de la cookie y devuelve uid + id de sesión.
type SessionResolver interface {
	ResolveSession(token string) (uid string, sessionID string, err error)
}

// RoleLookup relee el rol vigente de un usuario.
type RoleLookup interface {
	RoleOf(ctx context.Context, uid string) (permissions.Role, error)
}

type AuthOptions struct {
	CookieName string
	Sessions   SessionResolver
	Roles      RoleLookup

	// DevMode habilita X-Debug-User-ID (+ X-Debug-Role si el usuario no existe).
	DevMode bool
	Log     logger.Logger
}

// AuthContext:
// - Cookie de sesión válida => relee el rol del usuario y setea el Principal.
// - DevMode y header X-Debug-User-ID => Principal de depuración.
// - Sin sesión el request sigue igual; Require decide 401/403.
// - Store de usuarios caído => 503 (no se puede decidir el rol).
func AuthContext(opts AuthOptions) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, sid := "", ""

			if opts.Sessions != nil {
				if ck, err := r.Cookie(opts.CookieName); err == nil && strings.TrimSpace(ck.Value) != "" {
					if u, s, err := opts.Sessions.ResolveSession(ck.Value); err == nil {
						uid, sid = u, s
					}
				}
			}

			debugRole := ""
			if uid == "" && opts.DevMode {
				if v := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); v != "" {
					uid, sid = v, "debug:"+v
					debugRole = r.Header.Get("X-Debug-Role")
				}
			}

			if uid == "" {
				next.ServeHTTP(w, r)
				return
			}

			role, err := opts.Roles.RoleOf(r.Context(), uid)
			switch {
			case err == nil:
			case errors.Is(err, apperr.ErrNotFound):
				parsed, ok := permissions.ParseRole(debugRole)
				if !ok {
					next.ServeHTTP(w, r)
					return
				}
				role = parsed
			default:
				opts.Log.Error("role lookup failed", logger.Fields{"uid": uid, "error": err})
				writeError(w, err)
				return
			}

			p := permissions.Principal{UID: uid, Role: role, SessionID: sid}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p permissions.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) (permissions.Principal, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return permissions.Principal{}, false
	}
	p, ok := v.(permissions.Principal)
	if !ok || p.IsZero() {
		return permissions.Principal{}, false
	}
	return p, true
}
