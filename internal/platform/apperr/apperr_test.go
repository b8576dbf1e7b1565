package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestError_IsMatchesKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := E(ErrUnavailable, "inventory.decrement", "item-b", cause)

	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected kind to match")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to match")
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("unexpected kind match")
	}
	if got := err.Error(); got != "inventory.decrement: store unavailable [item-b]: dial tcp: refused" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Forbidden("op", "x"), http.StatusForbidden},
		{Validation("op", "bad"), http.StatusBadRequest},
		{E(ErrIdentityUnresolved, "op", "", nil), http.StatusUnprocessableEntity},
		{E(ErrInsufficientStock, "op", "a", nil), http.StatusConflict},
		{NotFound("op", "a"), http.StatusNotFound},
		{Unavailable("op", errors.New("x")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestWrapped_KeepsKind(t *testing.T) {
	err := Wrapf(NotFound("owners.get", "o1"), "resolve owner")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound through wrap")
	}
	if Code(err) != "NOT_FOUND" {
		t.Fatalf("unexpected code %s", Code(err))
	}
	if Retryable(err) {
		t.Fatalf("not found is not retryable")
	}
}

func TestKind_OuterKindWins(t *testing.T) {
	inner := E(ErrValidation, "appointments", "", errors.New("appointment is completed"))
	err := Wrapf(E(ErrConflict, "workflow.create", "a1", inner), "create consultation")

	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected inner kind still reachable")
	}
	if got := HTTPStatus(err); got != http.StatusConflict {
		t.Fatalf("HTTPStatus = %d, want 409", got)
	}
	if Code(err) != "CONFLICT" {
		t.Fatalf("unexpected code %s", Code(err))
	}
}
