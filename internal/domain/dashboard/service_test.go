package dashboard

import (
	"context"
	"testing"
	"time"

	"vet-clinic/internal/adapters/storage/memory"
	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/consultations"
	"vet-clinic/internal/domain/inventory"
)

func TestSummary_CountsToday(t *testing.T) {
	ctx := context.Background()
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	apSvc := appointments.NewService(memory.NewAppointmentRepo())
	coSvc := consultations.NewService(memory.NewConsultationRepo())
	invSvc := inventory.NewService(memory.NewInventoryRepo())

	svc := NewService(apSvc, coSvc, invSvc, loc)
	// 23:30 del 1 de mayo en Santiago ya es 2 de mayo en UTC
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 23, 30, 0, 0, loc) }

	for _, in := range []appointments.ScheduleInput{
		{Date: "2024-05-01", Time: "09:00", Type: "Control"},
		{Date: "2024-05-01", Time: "10:00", Type: "Control"},
		{Date: "2024-05-02", Time: "09:00", Type: "Control"},
	} {
		if _, err := apSvc.Schedule(ctx, in); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}
	list, _ := apSvc.List(ctx, appointments.ListFilter{Date: "2024-05-01"})
	if _, err := apSvc.Confirm(ctx, list[0].ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := invSvc.Create(ctx, inventory.CreateInput{Name: "Gasa", Quantity: 0, MinQuantity: 2}); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := invSvc.Create(ctx, inventory.CreateInput{Name: "Suero", Quantity: 1, MinQuantity: 2}); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := invSvc.Create(ctx, inventory.CreateInput{Name: "Jeringa", Quantity: 50, MinQuantity: 2}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	if _, err := coSvc.Record(ctx, "o1", "p1", time.Now(), consultations.Draft{VeterinarianID: "v", Motivo: "m"}, nil, consultations.Mascota{ID: "p1", DuenoID: "o1"}, ""); err != nil {
		t.Fatalf("record: %v", err)
	}

	sum, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Date != "2024-05-01" {
		t.Fatalf("date = %q, want clinic-local 2024-05-01", sum.Date)
	}
	if sum.AppointmentsToday != 2 {
		t.Fatalf("appointmentsToday = %d, want 2", sum.AppointmentsToday)
	}
	if sum.AppointmentsByStatus[appointments.StatusConfirmed] != 1 || sum.AppointmentsByStatus[appointments.StatusScheduled] != 1 {
		t.Fatalf("byStatus = %v", sum.AppointmentsByStatus)
	}
	if sum.PendingConsultations != 1 {
		t.Fatalf("pending = %d, want 1", sum.PendingConsultations)
	}
	if sum.LowStock != 2 || sum.OutOfStock != 1 {
		t.Fatalf("low=%d out=%d, want 2/1", sum.LowStock, sum.OutOfStock)
	}
}
