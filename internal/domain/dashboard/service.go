// Package dashboard arma el resumen del día de la clínica.
package dashboard

import (
	"context"
	"time"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/consultations"
	"vet-clinic/internal/domain/inventory"
	"vet-clinic/internal/platform/clinicaltime"

	"golang.org/x/sync/errgroup"
)

type StockAlert struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"minQuantity"`
	Out         bool   `json:"out"`
}

type Summary struct {
	Date                 string                      `json:"date"`
	AppointmentsToday    int                         `json:"appointmentsToday"`
	AppointmentsByStatus map[appointments.Status]int `json:"appointmentsByStatus"`
	PendingConsultations int                         `json:"pendingConsultations"`
	LowStock             int                         `json:"lowStock"`
	OutOfStock           int                         `json:"outOfStock"`
	Alerts               []StockAlert                `json:"alerts"`
}

type Service struct {
	appointments  *appointments.Service
	consultations *consultations.Service
	inventory     *inventory.Service
	loc           *time.Location
	now           func() time.Time
}

func NewService(a *appointments.Service, c *consultations.Service, i *inventory.Service, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		appointments:  a,
		consultations: c,
		inventory:     i,
		loc:           loc,
		now:           time.Now,
	}
}

// Summary lee las tres colecciones en paralelo; cualquier error cancela el resto.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	today := clinicaltime.Today(s.now(), s.loc)

	var (
		appts []appointments.Appointment
		cons  []consultations.Consultation
		low   []inventory.Item
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		appts, err = s.appointments.List(gctx, appointments.ListFilter{Date: today})
		return err
	})
	g.Go(func() error {
		var err error
		cons, err = s.consultations.ListAll(gctx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		low, err = s.inventory.List(gctx, inventory.ListFilter{LowOnly: true})
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	out := Summary{
		Date:              today,
		AppointmentsToday: len(appts),
		AppointmentsByStatus: map[appointments.Status]int{
			appointments.StatusScheduled: 0,
			appointments.StatusConfirmed: 0,
			appointments.StatusCompleted: 0,
		},
		Alerts: make([]StockAlert, 0, len(low)),
	}
	for _, a := range appts {
		out.AppointmentsByStatus[a.Status]++
	}
	for _, c := range cons {
		if c.Estado == consultations.EstadoPendiente {
			out.PendingConsultations++
		}
	}
	for _, it := range low {
		out.LowStock++
		if inventory.IsOut(it) {
			out.OutOfStock++
		}
		out.Alerts = append(out.Alerts, StockAlert{
			ItemID:      it.ID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			MinQuantity: it.MinQuantity,
			Out:         inventory.IsOut(it),
		})
	}
	return out, nil
}
