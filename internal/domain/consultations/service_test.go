package consultations

import (
	"context"
	"errors"
	"testing"
	"time"

	"vet-clinic/internal/platform/apperr"
)

type testRepo struct {
	byID    map[string]Consultation
	updates int
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Consultation{}}
}

func (r *testRepo) Create(_ context.Context, c Consultation) error {
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) Get(_ context.Context, ownerID, patientID, id string) (Consultation, error) {
	c, ok := r.byID[id]
	if !ok || c.OwnerID != ownerID || c.PatientID != patientID {
		return Consultation{}, apperr.NotFound("consultations.get", id)
	}
	return c, nil
}

func (r *testRepo) Update(_ context.Context, c Consultation) error {
	r.updates++
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) Delete(_ context.Context, _, _, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *testRepo) ListByPatient(context.Context, string, string) ([]Consultation, error) {
	return nil, nil
}

func (r *testRepo) ListAll(context.Context, int) ([]Consultation, error) {
	return nil, nil
}

func validDraft() Draft {
	return Draft{VeterinarianID: "vet-1", Motivo: "control"}
}

func TestValidateDraft(t *testing.T) {
	if err := ValidateDraft(validDraft()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := validDraft()
	bad.Motivo = "  "
	if err := ValidateDraft(bad); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank motivo: expected validation, got %v", err)
	}

	bad = validDraft()
	bad.ArticulosUsados = []ArticuloInput{{ItemID: "a", Quantity: 0}}
	if err := ValidateDraft(bad); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("zero quantity: expected validation, got %v", err)
	}

	bad = validDraft()
	bad.ProximaCita = "01-05-2024"
	if err := ValidateDraft(bad); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad proximaCita: expected validation, got %v", err)
	}
}

func TestSetEstado(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	svc := NewService(repo)

	c, err := svc.Record(ctx, "o1", "p1", time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), validDraft(), nil, Mascota{ID: "p1", DuenoID: "o1"}, "")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if c.Estado != EstadoPendiente {
		t.Fatalf("new consultation must be Pendiente, got %s", c.Estado)
	}

	got, changed, err := svc.SetEstado(ctx, "o1", "p1", c.ID, EstadoRealizada)
	if err != nil || !changed || got.Estado != EstadoRealizada {
		t.Fatalf("first transition: %+v changed=%v err=%v", got, changed, err)
	}

	_, changed, err = svc.SetEstado(ctx, "o1", "p1", c.ID, EstadoRealizada)
	if err != nil || changed {
		t.Fatalf("Realizada -> Realizada must be a no-op, changed=%v err=%v", changed, err)
	}
	if repo.updates != 1 {
		t.Fatalf("expected exactly one write, got %d", repo.updates)
	}

	if _, _, err := svc.SetEstado(ctx, "o1", "p1", c.ID, EstadoPendiente); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected reopen to be rejected, got %v", err)
	}
}

func TestRecord_RequiresIdentities(t *testing.T) {
	svc := NewService(newTestRepo())
	_, err := svc.Record(context.Background(), "", "p1", time.Now(), validDraft(), nil, Mascota{}, "")
	if !errors.Is(err, apperr.ErrIdentityUnresolved) {
		t.Fatalf("expected identity unresolved, got %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	c := Consultation{ID: "c1", Mascota: Mascota{ID: "p1", Dueno: &Dueno{ID: "o1"}}}
	o, p, err := c.ResolvePath()
	if err != nil || o != "o1" || p != "p1" {
		t.Fatalf("ResolvePath = %q %q %v", o, p, err)
	}

	// sin dueño no se adivina
	c = Consultation{ID: "c2", PatientID: "p1", Mascota: Mascota{Nombre: "Firulais"}}
	if _, _, err := c.ResolvePath(); !errors.Is(err, apperr.ErrIdentityUnresolved) {
		t.Fatalf("expected identity unresolved, got %v", err)
	}
}

func TestTotal(t *testing.T) {
	c := Consultation{
		CostoConsulta:   10000,
		ArticulosUsados: []Articulo{{Quantity: 3, UnitPrice: 1500}, {Quantity: 1, UnitPrice: 500}},
	}
	if got := c.Total(); got != 15000 {
		t.Fatalf("Total = %v, want 15000", got)
	}
}
