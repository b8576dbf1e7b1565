package workflow

import (
	"fmt"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/consultations"

	"go.uber.org/multierr"
)

// ItemFailure es un decremento de stock que no se pudo aplicar. La consulta
// ya quedó escrita con la cantidad recortada.
type ItemFailure struct {
	ItemID string
	Err    error
}

// Result de crear una consulta. Consultation siempre es durable cuando se
// devuelve un Result; Failures y AppointmentErr son fallas parciales posteriores.
type Result struct {
	Consultation   consultations.Consultation
	Appointment    *appointments.Appointment
	Warnings       []string
	Failures       []ItemFailure
	AppointmentErr error
}

// Partial indica que algún paso posterior a la escritura falló.
func (r Result) Partial() bool {
	return len(r.Failures) > 0 || r.AppointmentErr != nil
}

// Err agrega las fallas parciales nombrando cada ítem. nil si todo salió bien.
func (r Result) Err() error {
	var err error
	for _, f := range r.Failures {
		err = multierr.Append(err, fmt.Errorf("item %s: %w", f.ItemID, f.Err))
	}
	if r.AppointmentErr != nil {
		err = multierr.Append(err, fmt.Errorf("appointment sync: %w", r.AppointmentErr))
	}
	return err
}
