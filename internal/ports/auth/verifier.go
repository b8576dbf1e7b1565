package auth

import "context"

// AuthVerifier verifica el idToken de POST /auth/session y devuelve la identidad.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
