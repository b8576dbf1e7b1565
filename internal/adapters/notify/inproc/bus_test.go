package inproc

import (
	"context"
	"testing"

	"vet-clinic/internal/ports/notify"
)

func TestBus_DeliversUntilUnsubscribed(t *testing.T) {
	bus := NewBus()

	var got []notify.RoleChanged
	cancel := bus.SubscribeRoleChanged(func(ev notify.RoleChanged) { got = append(got, ev) })

	_ = bus.PublishRoleChanged(context.Background(), notify.RoleChanged{UID: "u1", From: "veterinarian", To: "receptionist"})
	cancel()
	_ = bus.PublishRoleChanged(context.Background(), notify.RoleChanged{UID: "u2"})

	if len(got) != 1 || got[0].UID != "u1" || got[0].To != "receptionist" {
		t.Fatalf("unexpected deliveries: %+v", got)
	}
}
