package access

import (
	"context"
	"sync"

	"vet-clinic/internal/domain/permissions"
)

// ViewGuard es la máquina de estados de una vista protegida:
// Loading -> {Granted, Denied}. Mount y RoleChanged vuelven a Loading.
// La redirección se dispara como máximo una vez por montaje y nunca en Loading.
type ViewGuard struct {
	mu         sync.Mutex
	state      State
	redirected bool
	onRedirect func(to string)
}

func NewViewGuard(onRedirect func(to string)) *ViewGuard {
	return &ViewGuard{state: StateLoading, onRedirect: onRedirect}
}

func (v *ViewGuard) Mount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateLoading
	v.redirected = false
}

// RoleChanged invalida la decisión vigente; hay que resolver de nuevo.
func (v *ViewGuard) RoleChanged() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateLoading
}

func (v *ViewGuard) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Resolve aplica el resultado de una evaluación. Fuera de Loading se ignora.
func (v *ViewGuard) Resolve(granted bool) State {
	v.mu.Lock()
	if v.state != StateLoading {
		s := v.state
		v.mu.Unlock()
		return s
	}

	fire := false
	if granted {
		v.state = StateGranted
	} else {
		v.state = StateDenied
		if !v.redirected {
			v.redirected = true
			fire = true
		}
	}
	s := v.state
	v.mu.Unlock()

	if fire && v.onRedirect != nil {
		v.onRedirect(NoAccessPath)
	}
	return s
}

// Check evalúa con g y resuelve. Una decisión loading deja la vista en Loading.
func (v *ViewGuard) Check(ctx context.Context, g *Guard, p permissions.Principal, resource permissions.Resource, action permissions.Action) State {
	d := g.Decide(ctx, p, resource, action, ModeRedirect)
	if d.State == StateLoading {
		return v.State()
	}
	return v.Resolve(d.State == StateGranted)
}
