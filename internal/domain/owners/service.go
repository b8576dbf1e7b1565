package owners

import (
	"context"
	"errors"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/clinicaltime"
	"vet-clinic/internal/platform/validate"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = apperr.E(apperr.ErrValidation, "owners", "", errors.New("invalid input"))
	ErrDuplicateRUT = apperr.E(apperr.ErrConflict, "owners.create", "", errors.New("an owner with this RUT already exists"))
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

type CreateOwnerInput struct {
	RUT       string `json:"rut" validate:"required,rut"`
	Nombre    string `json:"nombre" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
}

func (s *Service) CreateOwner(ctx context.Context, in CreateOwnerInput) (Owner, error) {
	in.RUT = strings.TrimSpace(in.RUT)
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct("owners.create", in); err != nil {
		return Owner{}, err
	}

	rut := validate.NormalizeRUT(in.RUT)
	if _, err := s.repo.FindOwnerByRUT(ctx, rut); err == nil {
		return Owner{}, ErrDuplicateRUT
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return Owner{}, err
	}

	now := s.now()
	o := Owner{
		ID:        uuid.NewString(),
		RUT:       rut,
		Nombre:    in.Nombre,
		Email:     in.Email,
		Telefono:  strings.TrimSpace(in.Telefono),
		Direccion: strings.TrimSpace(in.Direccion),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateOwner(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

// FindByRUT normaliza y valida el RUT antes de ir al store.
func (s *Service) FindByRUT(ctx context.Context, rut string) (Owner, error) {
	if !validate.ValidRUT(rut) {
		return Owner{}, apperr.Validation("owners.find_by_rut", "rut must be a valid RUT")
	}
	return s.repo.FindOwnerByRUT(ctx, validate.NormalizeRUT(rut))
}

func (s *Service) GetOwner(ctx context.Context, ownerID string) (Owner, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Owner{}, ErrInvalidInput
	}
	return s.repo.GetOwner(ctx, ownerID)
}

func (s *Service) ListOwners(ctx context.Context) ([]Owner, error) {
	return s.repo.ListOwners(ctx)
}

type UpdateOwnerInput struct {
	Nombre    *string `json:"nombre"`
	Email     *string `json:"email"`
	Telefono  *string `json:"telefono"`
	Direccion *string `json:"direccion"`
}

// UpdateOwner aplica un PATCH. El RUT no se edita.
func (s *Service) UpdateOwner(ctx context.Context, ownerID string, in UpdateOwnerInput) (Owner, error) {
	o, err := s.GetOwner(ctx, ownerID)
	if err != nil {
		return Owner{}, err
	}

	if in.Nombre != nil {
		v := strings.TrimSpace(*in.Nombre)
		if v == "" {
			return Owner{}, apperr.Validation("owners.update", "nombre is required")
		}
		o.Nombre = v
	}
	if in.Email != nil {
		v := strings.TrimSpace(*in.Email)
		if v != "" {
			if err := validate.Var("owners.update", "email", v, "email"); err != nil {
				return Owner{}, err
			}
		}
		o.Email = v
	}
	if in.Telefono != nil {
		o.Telefono = strings.TrimSpace(*in.Telefono)
	}
	if in.Direccion != nil {
		o.Direccion = strings.TrimSpace(*in.Direccion)
	}

	o.UpdatedAt = s.now()
	if err := s.repo.UpdateOwner(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

type CreatePatientInput struct {
	Nombre          string `json:"nombre" validate:"required"`
	Especie         string `json:"especie" validate:"required"`
	Raza            string `json:"raza"`
	Sexo            string `json:"sexo"`
	FechaNacimiento string `json:"fechaNacimiento" validate:"omitempty,datetime=2006-01-02"`
	Microchip       string `json:"microchip"`
	Notas           string `json:"notas"`
}

func (s *Service) CreatePatient(ctx context.Context, ownerID string, in CreatePatientInput) (Patient, error) {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Especie = strings.TrimSpace(in.Especie)
	in.FechaNacimiento = strings.TrimSpace(in.FechaNacimiento)
	if err := validate.Struct("owners.create_patient", in); err != nil {
		return Patient{}, err
	}

	owner, err := s.GetOwner(ctx, ownerID)
	if err != nil {
		return Patient{}, err
	}

	var birth *time.Time
	if in.FechaNacimiento != "" {
		t, _ := clinicaltime.ParseDate(in.FechaNacimiento)
		birth = &t
	}

	now := s.now()
	p := Patient{
		ID:              uuid.NewString(),
		OwnerID:         owner.ID,
		Nombre:          in.Nombre,
		Especie:         in.Especie,
		Raza:            strings.TrimSpace(in.Raza),
		Sexo:            strings.TrimSpace(in.Sexo),
		FechaNacimiento: birth,
		Microchip:       strings.TrimSpace(in.Microchip),
		Notas:           strings.TrimSpace(in.Notas),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreatePatient(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, ownerID, patientID string) (Patient, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(patientID) == "" {
		return Patient{}, ErrInvalidInput
	}
	return s.repo.GetPatient(ctx, ownerID, patientID)
}

func (s *Service) ListPatients(ctx context.Context, ownerID string) ([]Patient, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListPatients(ctx, ownerID)
}

type UpdatePatientInput struct {
	Nombre          *string `json:"nombre"`
	Especie         *string `json:"especie"`
	Raza            *string `json:"raza"`
	Sexo            *string `json:"sexo"`
	FechaNacimiento *string `json:"fechaNacimiento"` // "" limpia
	Microchip       *string `json:"microchip"`
	Notas           *string `json:"notas"`
}

func (s *Service) UpdatePatient(ctx context.Context, ownerID, patientID string, in UpdatePatientInput) (Patient, error) {
	p, err := s.GetPatient(ctx, ownerID, patientID)
	if err != nil {
		return Patient{}, err
	}

	if in.Nombre != nil {
		v := strings.TrimSpace(*in.Nombre)
		if v == "" {
			return Patient{}, apperr.Validation("owners.update_patient", "nombre is required")
		}
		p.Nombre = v
	}
	if in.Especie != nil {
		v := strings.TrimSpace(*in.Especie)
		if v == "" {
			return Patient{}, apperr.Validation("owners.update_patient", "especie is required")
		}
		p.Especie = v
	}
	if in.Raza != nil {
		p.Raza = strings.TrimSpace(*in.Raza)
	}
	if in.Sexo != nil {
		p.Sexo = strings.TrimSpace(*in.Sexo)
	}
	if in.FechaNacimiento != nil {
		v := strings.TrimSpace(*in.FechaNacimiento)
		if v == "" {
			p.FechaNacimiento = nil
		} else {
			t, err := clinicaltime.ParseDate(v)
			if err != nil {
				return Patient{}, apperr.Validation("owners.update_patient", "fechaNacimiento must be YYYY-MM-DD")
			}
			p.FechaNacimiento = &t
		}
	}
	if in.Microchip != nil {
		p.Microchip = strings.TrimSpace(*in.Microchip)
	}
	if in.Notas != nil {
		p.Notas = strings.TrimSpace(*in.Notas)
	}

	p.UpdatedAt = s.now()
	if err := s.repo.UpdatePatient(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// RemovePatient borra solo el documento del paciente. Lo llama el workflow
// después de borrar consultas y citas.
func (s *Service) RemovePatient(ctx context.Context, ownerID, patientID string) error {
	return s.repo.DeletePatient(ctx, ownerID, patientID)
}

// RemoveOwner borra solo el documento del dueño.
func (s *Service) RemoveOwner(ctx context.Context, ownerID string) error {
	return s.repo.DeleteOwner(ctx, ownerID)
}
