package workflow

import (
	"context"
	"fmt"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/logger"

	"go.uber.org/multierr"
)

func (e *Engine) DeleteAppointment(ctx context.Context, p permissions.Principal, id string) error {
	if err := e.authz.Authorize(ctx, p, permissions.ResourceAppointments, permissions.ActionDelete); err != nil {
		return err
	}
	return e.appointments.Remove(ctx, id)
}

// DeletePatient borra consultas, citas con ese patientId y la línea de tiempo;
// recién entonces el paciente. Si algún hijo falla el paciente se conserva
// para poder reintentar.
func (e *Engine) DeletePatient(ctx context.Context, p permissions.Principal, ownerID, patientID string) error {
	if err := e.authz.Authorize(ctx, p, permissions.ResourcePatients, permissions.ActionDelete); err != nil {
		return err
	}
	return e.deletePatient(ctx, ownerID, patientID)
}

func (e *Engine) deletePatient(ctx context.Context, ownerID, patientID string) error {
	if _, err := e.owners.GetPatient(ctx, ownerID, patientID); err != nil {
		return err
	}
	log := logger.FromContext(ctx, e.log).With(logger.Fields{"owner_id": ownerID, "patient_id": patientID})

	var errs error
	cs, err := e.consultations.ListByPatient(ctx, ownerID, patientID)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list consultations: %w", err))
	}
	for _, c := range cs {
		if err := e.consultations.Remove(ctx, ownerID, patientID, c.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("consultation %s: %w", c.ID, err))
		}
	}

	as, err := e.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list appointments: %w", err))
	}
	for _, a := range as {
		if err := e.appointments.Remove(ctx, a.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("appointment %s: %w", a.ID, err))
		}
	}

	if e.activity != nil {
		if err := e.activity.Purge(ctx, ownerID, patientID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("activity: %w", err))
		}
	}

	if errs != nil {
		log.Warn("patient kept, cascade incomplete", logger.Fields{"err": errs})
		return fmt.Errorf("delete patient %s: %w", patientID, errs)
	}

	if err := e.owners.RemovePatient(ctx, ownerID, patientID); err != nil {
		return err
	}
	log.Info("patient deleted", logger.Fields{"consultations": len(cs), "appointments": len(as)})
	return nil
}

// DeleteOwner aplica la cascada de paciente a cada mascota y borra el dueño
// solo si todas terminaron.
func (e *Engine) DeleteOwner(ctx context.Context, p permissions.Principal, ownerID string) error {
	if err := e.authz.Authorize(ctx, p, permissions.ResourceOwners, permissions.ActionDelete); err != nil {
		return err
	}
	if _, err := e.owners.GetOwner(ctx, ownerID); err != nil {
		return err
	}

	pats, err := e.owners.ListPatients(ctx, ownerID)
	if err != nil {
		return err
	}

	var errs error
	for _, pt := range pats {
		errs = multierr.Append(errs, e.deletePatient(ctx, ownerID, pt.ID))
	}
	if errs != nil {
		return fmt.Errorf("delete owner %s: %w", ownerID, errs)
	}
	return e.owners.RemoveOwner(ctx, ownerID)
}
