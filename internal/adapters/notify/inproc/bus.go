package inproc

import (
	"context"
	"sync"

	"vet-clinic/internal/ports/notify"
)

// Bus entrega los eventos de forma síncrona dentro del proceso.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(notify.RoleChanged)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(notify.RoleChanged))}
}

func (b *Bus) PublishRoleChanged(_ context.Context, ev notify.RoleChanged) error {
	b.Deliver(ev)
	return nil
}

// Deliver llama a todos los suscriptores con ev.
func (b *Bus) Deliver(ev notify.RoleChanged) {
	b.mu.RLock()
	fns := make([]func(notify.RoleChanged), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (b *Bus) SubscribeRoleChanged(fn func(notify.RoleChanged)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}
