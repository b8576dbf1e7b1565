package consultations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/validate"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = apperr.E(apperr.ErrValidation, "consultations", "", errors.New("invalid input"))
	ErrInvalidTransition = apperr.E(apperr.ErrValidation, "consultations", "", errors.New("estado can only move Pendiente -> Realizada"))
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type ArticuloInput struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

// Draft es lo que llena el formulario de consulta antes de persistir.
type Draft struct {
	VeterinarianID  string          `json:"veterinarianId" validate:"required"`
	Motivo          string          `json:"motivo" validate:"required"`
	Sintomas        string          `json:"sintomas"`
	Diagnostico     string          `json:"diagnostico"`
	Tratamiento     string          `json:"tratamiento"`
	ProximaCita     string          `json:"proximaCita" validate:"omitempty,datetime=2006-01-02"`
	CostoConsulta   float64         `json:"costoConsulta" validate:"gte=0"`
	ArticulosUsados []ArticuloInput `json:"articulosUsados" validate:"dive"`
}

// ValidateDraft corre antes de cualquier lectura o escritura.
func ValidateDraft(d Draft) error {
	d.VeterinarianID = strings.TrimSpace(d.VeterinarianID)
	d.Motivo = strings.TrimSpace(d.Motivo)
	d.ProximaCita = strings.TrimSpace(d.ProximaCita)
	return validate.Struct("consultations.draft", d)
}

// Record persiste una consulta ya resuelta (identidades, fecha, insumos) como
// Pendiente. Lo llama el workflow en su paso de escritura.
func (s *Service) Record(ctx context.Context, ownerID, patientID string, fecha time.Time, d Draft, articulos []Articulo, m Mascota, appointmentID string) (Consultation, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(patientID) == "" {
		return Consultation{}, apperr.E(apperr.ErrIdentityUnresolved, "consultations.record", "", nil)
	}
	if err := ValidateDraft(d); err != nil {
		return Consultation{}, err
	}

	now := s.now()
	c := Consultation{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		PatientID:       patientID,
		VeterinarianID:  strings.TrimSpace(d.VeterinarianID),
		AppointmentID:   appointmentID,
		Fecha:           fecha,
		Motivo:          strings.TrimSpace(d.Motivo),
		Sintomas:        strings.TrimSpace(d.Sintomas),
		Diagnostico:     strings.TrimSpace(d.Diagnostico),
		Tratamiento:     strings.TrimSpace(d.Tratamiento),
		Estado:          EstadoPendiente,
		ProximaCita:     strings.TrimSpace(d.ProximaCita),
		CostoConsulta:   d.CostoConsulta,
		ArticulosUsados: articulos,
		Mascota:         m,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, ownerID, patientID, id string) (Consultation, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(patientID) == "" || strings.TrimSpace(id) == "" {
		return Consultation{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, ownerID, patientID, id)
}

func (s *Service) ListByPatient(ctx context.Context, ownerID, patientID string) ([]Consultation, error) {
	return s.repo.ListByPatient(ctx, ownerID, patientID)
}

func (s *Service) ListAll(ctx context.Context, limit int) ([]Consultation, error) {
	return s.repo.ListAll(ctx, limit)
}

type UpdateInput struct {
	Motivo        *string  `json:"motivo"`
	Sintomas      *string  `json:"sintomas"`
	Diagnostico   *string  `json:"diagnostico"`
	Tratamiento   *string  `json:"tratamiento"`
	ProximaCita   *string  `json:"proximaCita"`
	CostoConsulta *float64 `json:"costoConsulta"`
}

// UpdateClinical edita los campos clínicos de texto. Estado e insumos no se tocan aquí.
func (s *Service) UpdateClinical(ctx context.Context, ownerID, patientID, id string, in UpdateInput) (Consultation, error) {
	c, err := s.Get(ctx, ownerID, patientID, id)
	if err != nil {
		return Consultation{}, err
	}

	if in.Motivo != nil {
		v := strings.TrimSpace(*in.Motivo)
		if v == "" {
			return Consultation{}, apperr.Validation("consultations.update", "motivo is required")
		}
		c.Motivo = v
	}
	if in.Sintomas != nil {
		c.Sintomas = strings.TrimSpace(*in.Sintomas)
	}
	if in.Diagnostico != nil {
		c.Diagnostico = strings.TrimSpace(*in.Diagnostico)
	}
	if in.Tratamiento != nil {
		c.Tratamiento = strings.TrimSpace(*in.Tratamiento)
	}
	if in.ProximaCita != nil {
		v := strings.TrimSpace(*in.ProximaCita)
		if v != "" {
			if err := validate.Var("consultations.update", "proximaCita", v, "datetime=2006-01-02"); err != nil {
				return Consultation{}, err
			}
		}
		c.ProximaCita = v
	}
	if in.CostoConsulta != nil {
		if *in.CostoConsulta < 0 {
			return Consultation{}, apperr.Validation("consultations.update", "costoConsulta must be >= 0")
		}
		c.CostoConsulta = *in.CostoConsulta
	}

	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

// SetEstado aplica la transición de estado. Pendiente -> Realizada escribe;
// Realizada -> Realizada es no-op (changed=false); Realizada -> Pendiente se rechaza.
func (s *Service) SetEstado(ctx context.Context, ownerID, patientID, id string, to Estado) (Consultation, bool, error) {
	if !to.Valid() {
		return Consultation{}, false, ErrInvalidInput
	}

	c, err := s.Get(ctx, ownerID, patientID, id)
	if err != nil {
		return Consultation{}, false, err
	}

	switch {
	case c.Estado == to:
		return c, false, nil
	case c.Estado == EstadoRealizada:
		return Consultation{}, false, fmt.Errorf("%w [%s]", ErrInvalidTransition, c.ID)
	}

	c.Estado = to
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return Consultation{}, false, err
	}
	return c, true, nil
}

func (s *Service) Remove(ctx context.Context, ownerID, patientID, id string) error {
	return s.repo.Delete(ctx, ownerID, patientID, id)
}
