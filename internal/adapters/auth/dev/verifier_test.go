package dev

import (
	"context"
	"testing"
)

func TestVerifier(t *testing.T) {
	v := NewVerifier()

	c, err := v.Verify(context.Background(), "dev:u1:ana@clinic.cl")
	if err != nil || c.UserID != "u1" || c.Email != "ana@clinic.cl" {
		t.Fatalf("unexpected claims %+v err=%v", c, err)
	}

	for _, bad := range []string{"", "u1", "dev:", "bearer dev:u1"} {
		if _, err := v.Verify(context.Background(), bad); err == nil {
			t.Fatalf("expected %q rejected", bad)
		}
	}
}
