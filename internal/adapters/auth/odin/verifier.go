package odin

import (
	"context"
	"errors"
	"strings"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier contra Odin. Token rechazado =>
// ErrOdinUnauthorized; Odin caído o sin configurar => apperr.ErrUnavailable.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || !v.client.IsConfigured() {
		return auth.Claims{}, apperr.Unavailable("odin.verify", ErrOdinNotConfigured)
	}
	if strings.TrimSpace(token) == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, ErrOdinUnauthorized):
		return auth.Claims{}, err
	default:
		return auth.Claims{}, apperr.Unavailable("odin.verify", err)
	}
}
