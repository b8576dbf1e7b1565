// Package dev implementa un auth.AuthVerifier para desarrollo local: acepta
// tokens con forma "dev:<uid>" (opcionalmente "dev:<uid>:<email>").
package dev

import (
	"context"
	"errors"
	"strings"

	"vet-clinic/internal/ports/auth"
)

var ErrNotDevToken = errors.New("not a dev token")

type Verifier struct{}

func NewVerifier() *Verifier { return &Verifier{} }

func (Verifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(token), "dev:")
	if !ok {
		return auth.Claims{}, ErrNotDevToken
	}
	uid, email, _ := strings.Cut(rest, ":")
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return auth.Claims{}, ErrNotDevToken
	}
	return auth.Claims{UserID: uid, Email: strings.TrimSpace(email)}, nil
}
