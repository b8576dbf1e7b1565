// Package access traduce decisiones de autorización en decisiones de render:
// mostrar, deshabilitar con explicación o redirigir.
package access

import (
	"context"
	"fmt"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/logger"
)

type State string

const (
	StateLoading State = "loading"
	StateGranted State = "granted"
	StateDenied  State = "denied"
)

type Mode string

const (
	ModeExpose   Mode = "expose"
	ModeDisable  Mode = "disable"
	ModeRedirect Mode = "redirect"
)

const NoAccessPath = "/no-access"

type Decision struct {
	State      State  `json:"state"`
	Mode       Mode   `json:"mode"`
	Reason     string `json:"reason,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// Authorizer es lo que el guard necesita del motor de permisos.
type Authorizer interface {
	HasPermission(ctx context.Context, p permissions.Principal, resource permissions.Resource, action permissions.Action) (bool, error)
}

// Guard es la única función de guarda; la usan tanto los controles
// (deshabilitar) como las páginas (redirigir).
type Guard struct {
	authz Authorizer
	log   logger.Logger
}

func NewGuard(authz Authorizer, log logger.Logger) *Guard {
	if log == nil {
		log = logger.Nop()
	}
	return &Guard{authz: authz, log: log.With(logger.Fields{"component": "access.guard"})}
}

// Decide evalúa resource:action para p. onDeny indica cómo presentar la
// denegación (ModeDisable o ModeRedirect). Si la evaluación falla el estado es
// loading: nunca se trata como denied ni se redirige.
func (g *Guard) Decide(ctx context.Context, p permissions.Principal, resource permissions.Resource, action permissions.Action, onDeny Mode) Decision {
	if onDeny != ModeRedirect {
		onDeny = ModeDisable
	}

	if p.IsZero() {
		return denied(onDeny, "not signed in")
	}

	ok, err := g.authz.HasPermission(ctx, p, resource, action)
	if err != nil {
		g.log.Warn("permission evaluation failed", logger.Fields{
			"uid":      p.UID,
			"resource": resource,
			"action":   action,
			"error":    err,
		})
		return Decision{State: StateLoading, Mode: ModeDisable, Reason: "permissions are loading"}
	}
	if ok {
		return Decision{State: StateGranted, Mode: ModeExpose}
	}
	return denied(onDeny, fmt.Sprintf("role %s cannot %s %s", p.Role, action, resource))
}

func denied(mode Mode, reason string) Decision {
	d := Decision{State: StateDenied, Mode: mode, Reason: reason}
	if mode == ModeRedirect {
		d.RedirectTo = NoAccessPath
	}
	return d
}

// Capabilities arma la matriz recurso x acción para que la UI habilite o
// deshabilite controles con su explicación.
func (g *Guard) Capabilities(ctx context.Context, p permissions.Principal) map[permissions.Resource]map[permissions.Action]Decision {
	out := make(map[permissions.Resource]map[permissions.Action]Decision, len(permissions.Resources()))
	for _, res := range permissions.Resources() {
		row := make(map[permissions.Action]Decision, 4)
		for _, act := range permissions.Actions() {
			row[act] = g.Decide(ctx, p, res, act, ModeDisable)
		}
		out[res] = row
	}
	return out
}
