package appointments_test

import (
	"context"
	"errors"
	"testing"

	mem "vet-clinic/internal/adapters/storage/memory"
	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/platform/apperr"
)

func TestSchedule_Validates(t *testing.T) {
	svc := appointments.NewService(mem.NewAppointmentRepo())

	cases := []appointments.ScheduleInput{
		{Date: "2024-13-01", Time: "09:00", Type: "control"},
		{Date: "2024-05-01", Time: "25:00", Type: "control"},
		{Date: "2024-05-01", Time: "09:00", Type: " "},
	}
	for _, in := range cases {
		if _, err := svc.Schedule(context.Background(), in); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("Schedule(%+v): expected validation error, got %v", in, err)
		}
	}
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()
	svc := appointments.NewService(mem.NewAppointmentRepo())

	a, err := svc.Schedule(ctx, appointments.ScheduleInput{Date: "2024-05-01", Time: "09:00", Type: "control"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if a.Status != appointments.StatusScheduled || !a.IsBare() {
		t.Fatalf("unexpected appointment %+v", a)
	}

	if a, err = svc.Confirm(ctx, a.ID); err != nil || a.Status != appointments.StatusConfirmed {
		t.Fatalf("confirm: %+v %v", a, err)
	}

	a, err = svc.Complete(ctx, a.ID, appointments.Binding{OwnerID: "o1", OwnerName: "Ana", PatientID: "p1", PatientName: "Firulais"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Status != appointments.StatusCompleted || a.OwnerID != "o1" || a.PatientID != "p1" {
		t.Fatalf("binding not written: %+v", a)
	}

	if _, err := svc.Confirm(ctx, a.ID); !errors.Is(err, appointments.ErrBadTransition) {
		t.Fatalf("Completed must be terminal, got %v", err)
	}
	notes := "x"
	if _, err := svc.Update(ctx, a.ID, appointments.UpdateInput{Notes: &notes}); !errors.Is(err, appointments.ErrAlreadyCompleted) {
		t.Fatalf("expected completed appointment to reject edits, got %v", err)
	}
}

func TestListByPatient_IgnoresBareSlots(t *testing.T) {
	ctx := context.Background()
	svc := appointments.NewService(mem.NewAppointmentRepo())

	_, _ = svc.Schedule(ctx, appointments.ScheduleInput{Date: "2024-05-01", Time: "09:00", Type: "control"})
	_, _ = svc.Schedule(ctx, appointments.ScheduleInput{Date: "2024-05-02", Time: "10:00", Type: "control", OwnerID: "o1", PatientID: "p1"})

	got, err := svc.ListByPatient(ctx, "p1")
	if err != nil || len(got) != 1 {
		t.Fatalf("ListByPatient(p1) = %d, %v", len(got), err)
	}
	if got, _ := svc.ListByPatient(ctx, ""); len(got) != 0 {
		t.Fatalf("empty patient id must not match bare slots, got %d", len(got))
	}
}
