package workflow

import (
	"context"
	"errors"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/platform/apperr"
)

// State es lo que la UI tiene que pedirle al usuario para poder seguir.
type State string

const (
	StateNeedsPatientAssignment State = "NEEDS_PATIENT_ASSIGNMENT"
	StateNeedsNewOwner          State = "NEEDS_NEW_OWNER"
	StateNeedsNewPatient        State = "NEEDS_NEW_PATIENT"
)

// UnresolvedError corta el workflow antes de escribir la consulta.
// Matchea apperr.ErrIdentityUnresolved.
type UnresolvedError struct {
	State  State
	Detail string
}

func (e *UnresolvedError) Error() string {
	if e.Detail == "" {
		return "identity unresolved: " + string(e.State)
	}
	return "identity unresolved: " + string(e.State) + ": " + e.Detail
}

func (e *UnresolvedError) Is(target error) bool {
	return target == apperr.ErrIdentityUnresolved
}

func unresolved(s State, detail string) error {
	return &UnresolvedError{State: s, Detail: detail}
}

// StateOf devuelve el estado de resolución si err lo trae.
func StateOf(err error) (State, bool) {
	var ue *UnresolvedError
	if errors.As(err, &ue) {
		return ue.State, true
	}
	return "", false
}

// OwnerLookup: exactamente uno de OwnerID, RUT o New. RUT + New crea el dueño
// solo si el RUT no existe.
type OwnerLookup struct {
	OwnerID string                   `json:"ownerId,omitempty"`
	RUT     string                   `json:"rut,omitempty"`
	New     *owners.CreateOwnerInput `json:"new,omitempty"`
}

type PatientLookup struct {
	PatientID string                     `json:"patientId,omitempty"`
	New       *owners.CreatePatientInput `json:"new,omitempty"`
}

func (l OwnerLookup) empty() bool   { return l.OwnerID == "" && l.RUT == "" && l.New == nil }
func (l PatientLookup) empty() bool { return l.PatientID == "" && l.New == nil }

// resolveIdentities nunca busca por nombre. Las únicas escrituras posibles
// aquí son las altas explícitas (New) de dueño o paciente.
func (e *Engine) resolveIdentities(ctx context.Context, appt *appointments.Appointment, ol OwnerLookup, pl PatientLookup) (owners.Owner, owners.Patient, error) {
	if appt != nil && appt.IsBare() && ol.empty() && pl.empty() {
		return owners.Owner{}, owners.Patient{}, unresolved(StateNeedsPatientAssignment, "appointment "+appt.ID+" has no patient")
	}

	owner, err := e.resolveOwner(ctx, appt, ol)
	if err != nil {
		return owners.Owner{}, owners.Patient{}, err
	}
	patient, err := e.resolvePatient(ctx, appt, owner, pl)
	if err != nil {
		return owners.Owner{}, owners.Patient{}, err
	}
	return owner, patient, nil
}

func (e *Engine) resolveOwner(ctx context.Context, appt *appointments.Appointment, l OwnerLookup) (owners.Owner, error) {
	switch {
	case l.OwnerID != "":
		return e.owners.GetOwner(ctx, l.OwnerID)

	case l.RUT != "":
		o, err := e.owners.FindByRUT(ctx, l.RUT)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return owners.Owner{}, err
		}
		if l.New == nil {
			return owners.Owner{}, unresolved(StateNeedsNewOwner, "no owner with rut "+l.RUT)
		}
		in := *l.New
		if in.RUT == "" {
			in.RUT = l.RUT
		}
		return e.owners.CreateOwner(ctx, in)

	case l.New != nil:
		return e.owners.CreateOwner(ctx, *l.New)

	case appt != nil && appt.OwnerID != "":
		return e.owners.GetOwner(ctx, appt.OwnerID)

	case appt != nil:
		return owners.Owner{}, unresolved(StateNeedsPatientAssignment, "appointment "+appt.ID+" has no owner")
	}
	return owners.Owner{}, unresolved(StateNeedsNewOwner, "")
}

func (e *Engine) resolvePatient(ctx context.Context, appt *appointments.Appointment, owner owners.Owner, l PatientLookup) (owners.Patient, error) {
	patientID := l.PatientID
	if patientID == "" && l.New == nil && appt != nil && appt.OwnerID == owner.ID {
		patientID = appt.PatientID
	}

	if patientID != "" {
		p, err := e.owners.GetPatient(ctx, owner.ID, patientID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return owners.Patient{}, err
		}
		if l.New == nil {
			return owners.Patient{}, unresolved(StateNeedsNewPatient, "patient "+patientID+" not under owner "+owner.ID)
		}
	}

	if l.New != nil {
		return e.owners.CreatePatient(ctx, owner.ID, *l.New)
	}
	if appt != nil && appt.IsBare() {
		return owners.Patient{}, unresolved(StateNeedsPatientAssignment, "appointment "+appt.ID+" has no patient")
	}
	return owners.Patient{}, unresolved(StateNeedsNewPatient, "owner "+owner.ID)
}
