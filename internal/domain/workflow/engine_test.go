package workflow_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	"vet-clinic/internal/adapters/storage/memory"
	"vet-clinic/internal/domain/activity"
	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/consultations"
	"vet-clinic/internal/domain/inventory"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/domain/workflow"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/logger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// flakyInventory falla la lectura o el decremento de los ítems configurados.
type flakyInventory struct {
	inventory.Repository
	failGet       map[string]error
	failDecrement map[string]error
}

func (f *flakyInventory) Get(ctx context.Context, id string) (inventory.Item, error) {
	if err, ok := f.failGet[id]; ok {
		return inventory.Item{}, err
	}
	return f.Repository.Get(ctx, id)
}

func (f *flakyInventory) Decrement(ctx context.Context, id string, amount int) (int, error) {
	if err, ok := f.failDecrement[id]; ok {
		return 0, err
	}
	return f.Repository.Decrement(ctx, id, amount)
}

// flakyConsultations falla el borrado para probar que el paciente se conserva.
type flakyConsultations struct {
	consultations.Repository
	failDelete bool
}

func (f *flakyConsultations) Delete(ctx context.Context, ownerID, patientID, id string) error {
	if f.failDelete {
		return apperr.Unavailable("consultations.delete", errors.New("connection reset"))
	}
	return f.Repository.Delete(ctx, ownerID, patientID, id)
}

var _ = Describe("Clinical workflow engine", func() {
	var (
		ctx    context.Context
		loc    *time.Location
		clock  time.Time
		inv    *flakyInventory
		cons   *flakyConsultations
		ownSvc *owners.Service
		apSvc  *appointments.Service
		coSvc  *consultations.Service
		invSvc *inventory.Service
		actSvc *activity.Service
		engine *workflow.Engine

		vet  = permissions.Principal{UID: "vet-1", Role: permissions.RoleVeterinarian, SessionID: "s-vet"}
		recp = permissions.Principal{UID: "rec-1", Role: permissions.RoleReceptionist, SessionID: "s-rec"}
		adm  = permissions.Principal{UID: "adm-1", Role: permissions.RoleAdmin, SessionID: "s-adm"}
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		loc, err = time.LoadLocation("America/Santiago")
		Expect(err).NotTo(HaveOccurred())
		clock = time.Date(2024, 6, 3, 15, 30, 0, 0, loc)

		store := permissions.NewStore(memory.NewRoleRepo(), logger.Nop())
		authz := permissions.NewAuthorizer(store, permissions.NewSessionCache(), logger.Nop())

		inv = &flakyInventory{Repository: memory.NewInventoryRepo(), failGet: map[string]error{}, failDecrement: map[string]error{}}
		cons = &flakyConsultations{Repository: memory.NewConsultationRepo()}

		ownSvc = owners.NewService(memory.NewOwnerRepo())
		apSvc = appointments.NewService(memory.NewAppointmentRepo())
		coSvc = consultations.NewService(cons)
		invSvc = inventory.NewService(inv)
		actSvc = activity.NewService(memory.NewActivityRepo())

		engine = workflow.NewEngine(workflow.Deps{
			Authz:         authz,
			Owners:        ownSvc,
			Appointments:  apSvc,
			Consultations: coSvc,
			Inventory:     invSvc,
			Activity:      actSvc,
			Location:      loc,
			Log:           logger.Nop(),
			Clock:         func() time.Time { return clock },
		})
	})

	newOwner := func(rut, nombre string) owners.Owner {
		o, err := ownSvc.CreateOwner(ctx, owners.CreateOwnerInput{RUT: rut, Nombre: nombre})
		Expect(err).NotTo(HaveOccurred())
		return o
	}
	newPatient := func(ownerID, nombre string) owners.Patient {
		p, err := ownSvc.CreatePatient(ctx, ownerID, owners.CreatePatientInput{Nombre: nombre, Especie: "Canino"})
		Expect(err).NotTo(HaveOccurred())
		return p
	}
	newItem := func(name string, qty int, price float64) inventory.Item {
		it, err := invSvc.Create(ctx, inventory.CreateInput{Name: name, Quantity: qty, MinQuantity: 1, Price: price})
		Expect(err).NotTo(HaveOccurred())
		return it
	}
	draft := func(items ...consultations.ArticuloInput) consultations.Draft {
		return consultations.Draft{
			VeterinarianID:  "vet-1",
			Motivo:          "Control anual",
			Diagnostico:     "Sano",
			CostoConsulta:   15000,
			ArticulosUsados: items,
		}
	}
	noWrites := func() {
		all, err := coSvc.ListAll(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(BeEmpty())
	}

	Describe("CreateConsultation from an appointment", func() {
		var (
			owner   owners.Owner
			patient owners.Patient
			appt    appointments.Appointment
		)

		BeforeEach(func() {
			owner = newOwner("12.345.678-5", "Ana Pérez")
			patient = newPatient(owner.ID, "Firulais")

			var err error
			appt, err = apSvc.Schedule(ctx, appointments.ScheduleInput{
				Date: "2024-05-01", Time: "09:00", Type: "Control",
				OwnerID: owner.ID, OwnerName: owner.Nombre,
				PatientID: patient.ID, PatientName: patient.Nombre,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("dates the consultation with the appointment slot in clinic time and completes it", func() {
			res, err := engine.CreateConsultation(ctx, vet, workflow.Request{AppointmentID: appt.ID, Draft: draft()})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Err()).NotTo(HaveOccurred())

			c := res.Consultation
			Expect(c.Fecha.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, loc))).To(BeTrue())
			Expect(c.Estado).To(Equal(consultations.EstadoPendiente))
			Expect(c.OwnerID).To(Equal(owner.ID))
			Expect(c.PatientID).To(Equal(patient.ID))
			Expect(c.Mascota.DuenoID).To(Equal(owner.ID))
			Expect(c.AppointmentID).To(Equal(appt.ID))

			Expect(res.Appointment).NotTo(BeNil())
			Expect(res.Appointment.Status).To(Equal(appointments.StatusCompleted))
			Expect(res.Appointment.Veterinarian).To(Equal("vet-1"))

			stored, err := apSvc.Get(ctx, appt.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(appointments.StatusCompleted))
		})

		It("clamps to available stock, records it and decrements what was used", func() {
			gasa := newItem("Gasa", 3, 500)

			res, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				AppointmentID: appt.ID,
				Draft:         draft(consultations.ArticuloInput{ItemID: gasa.ID, Quantity: 10}),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Warnings).To(HaveLen(1))

			Expect(res.Consultation.ArticulosUsados).To(HaveLen(1))
			a := res.Consultation.ArticulosUsados[0]
			Expect(a.Quantity).To(Equal(3))
			Expect(a.StockAtTimeOfUse).To(Equal(3))
			Expect(res.Consultation.Total()).To(BeNumerically("==", 15000+3*500))

			left, err := invSvc.Get(ctx, gasa.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(left.Quantity).To(Equal(0))
		})

		It("does not decrement an item with zero stock", func() {
			vacuna := newItem("Vacuna", 0, 9000)

			res, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				AppointmentID: appt.ID,
				Draft:         draft(consultations.ArticuloInput{ItemID: vacuna.ID, Quantity: 1}),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Failures).To(BeEmpty())
			Expect(res.Warnings).To(HaveLen(1))
			Expect(res.Consultation.ArticulosUsados[0].Quantity).To(Equal(0))
		})

		It("keeps the consultation when one decrement fails and names the failing item", func() {
			a := newItem("Jeringa", 10, 200)
			b := newItem("Suero", 10, 3000)
			inv.failDecrement[b.ID] = apperr.Unavailable("inventory.decrement", errors.New("timeout"))

			res, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				AppointmentID: appt.ID,
				Draft: draft(
					consultations.ArticuloInput{ItemID: a.ID, Quantity: 2},
					consultations.ArticuloInput{ItemID: b.ID, Quantity: 1},
				),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Partial()).To(BeTrue())
			Expect(res.Failures).To(HaveLen(1))
			Expect(res.Failures[0].ItemID).To(Equal(b.ID))
			Expect(res.Err()).To(MatchError(ContainSubstring(b.ID)))
			Expect(errors.Is(res.Err(), apperr.ErrUnavailable)).To(BeTrue())

			stored, err := coSvc.Get(ctx, owner.ID, patient.ID, res.Consultation.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ArticulosUsados).To(HaveLen(2))

			left, err := invSvc.Get(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(left.Quantity).To(Equal(8))

			// la cita se completa igual
			Expect(res.Appointment).NotTo(BeNil())
		})

		It("records zero consumption when the stock read fails", func() {
			gasa := newItem("Gasa", 10, 100)
			inv.failGet[gasa.ID] = apperr.Unavailable("inventory.get", errors.New("timeout"))

			res, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				AppointmentID: appt.ID,
				Draft:         draft(consultations.ArticuloInput{ItemID: gasa.ID, Quantity: 5}),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Partial()).To(BeTrue())
			Expect(res.Failures).To(HaveLen(1))
			Expect(res.Failures[0].ItemID).To(Equal(gasa.ID))

			stored, err := coSvc.Get(ctx, owner.ID, patient.ID, res.Consultation.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ArticulosUsados).To(HaveLen(1))
			Expect(stored.ArticulosUsados[0].Quantity).To(Equal(0))

			delete(inv.failGet, gasa.ID)
			left, err := invSvc.Get(ctx, gasa.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(left.Quantity).To(Equal(10))
		})

		It("merges repeated lines of the same item before clamping", func() {
			gasa := newItem("Gasa", 4, 100)

			res, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				AppointmentID: appt.ID,
				Draft: draft(
					consultations.ArticuloInput{ItemID: gasa.ID, Quantity: 3},
					consultations.ArticuloInput{ItemID: gasa.ID, Quantity: 3},
				),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Consultation.ArticulosUsados).To(HaveLen(1))
			Expect(res.Consultation.ArticulosUsados[0].Quantity).To(Equal(4))
			Expect(res.Failures).To(BeEmpty())
		})

		It("writes the timeline entries", func() {
			_, err := engine.CreateConsultation(ctx, vet, workflow.Request{AppointmentID: appt.ID, Draft: draft()})
			Expect(err).NotTo(HaveOccurred())

			entries, err := actSvc.ListByPatient(ctx, owner.ID, patient.ID, activity.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			types := make([]activity.Type, 0, len(entries))
			for _, e := range entries {
				types = append(types, e.Type)
			}
			Expect(types).To(ConsistOf(activity.TypeConsultationCreated, activity.TypeAppointmentCompleted))
		})

		It("rejects an appointment that is already completed", func() {
			_, err := engine.CreateConsultation(ctx, vet, workflow.Request{AppointmentID: appt.ID, Draft: draft()})
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.CreateConsultation(ctx, vet, workflow.Request{AppointmentID: appt.ID, Draft: draft()})
			Expect(errors.Is(err, apperr.ErrConflict)).To(BeTrue())
			Expect(apperr.HTTPStatus(err)).To(Equal(http.StatusConflict))
		})
	})

	Describe("identity resolution", func() {
		It("asks for patient assignment on a bare appointment and writes nothing", func() {
			bare, err := apSvc.Schedule(ctx, appointments.ScheduleInput{
				Date: "2024-05-01", Time: "10:00", Type: "Consulta", PatientName: "Michi",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.CreateConsultation(ctx, vet, workflow.Request{AppointmentID: bare.ID, Draft: draft()})
			Expect(errors.Is(err, apperr.ErrIdentityUnresolved)).To(BeTrue())
			st, ok := workflow.StateOf(err)
			Expect(ok).To(BeTrue())
			Expect(st).To(Equal(workflow.StateNeedsPatientAssignment))

			noWrites()
			still, err := apSvc.Get(ctx, bare.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(still.Status).To(Equal(appointments.StatusScheduled))
			owns, err := ownSvc.ListOwners(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(owns).To(BeEmpty())
		})

		It("never matches a patient by name", func() {
			o := newOwner("11.111.111-1", "Luis")
			newPatient(o.ID, "Michi")
			bare, err := apSvc.Schedule(ctx, appointments.ScheduleInput{
				Date: "2024-05-01", Time: "10:00", Type: "Consulta", PatientName: "Michi", OwnerName: "Luis",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.CreateConsultation(ctx, vet, workflow.Request{AppointmentID: bare.ID, Draft: draft()})
			st, _ := workflow.StateOf(err)
			Expect(st).To(Equal(workflow.StateNeedsPatientAssignment))
			noWrites()
		})

		It("needs a new owner when the RUT is unknown", func() {
			bare, err := apSvc.Schedule(ctx, appointments.ScheduleInput{Date: "2024-05-01", Time: "11:00", Type: "Consulta"})
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.CreateConsultation(ctx, vet, workflow.Request{
				AppointmentID: bare.ID,
				Owner:         workflow.OwnerLookup{RUT: "7.654.321-6"},
				Draft:         draft(),
			})
			st, _ := workflow.StateOf(err)
			Expect(st).To(Equal(workflow.StateNeedsNewOwner))
			noWrites()
		})

		It("creates owner and patient from the dialog and binds the appointment", func() {
			bare, err := apSvc.Schedule(ctx, appointments.ScheduleInput{Date: "2024-05-01", Time: "11:00", Type: "Consulta"})
			Expect(err).NotTo(HaveOccurred())

			res, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				AppointmentID: bare.ID,
				Owner: workflow.OwnerLookup{
					RUT: "7.654.321-6",
					New: &owners.CreateOwnerInput{Nombre: "Carla"},
				},
				Patient: workflow.PatientLookup{New: &owners.CreatePatientInput{Nombre: "Toby", Especie: "Felino"}},
				Draft:   draft(),
			})
			Expect(err).NotTo(HaveOccurred())

			o, err := ownSvc.FindByRUT(ctx, "7654321-6")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Consultation.OwnerID).To(Equal(o.ID))
			Expect(res.Appointment.OwnerID).To(Equal(o.ID))
			Expect(res.Appointment.PatientName).To(Equal("Toby"))
		})

		It("needs a new patient when the id is not under the owner", func() {
			o1 := newOwner("12.345.678-5", "Ana")
			o2 := newOwner("11.111.111-1", "Luis")
			other := newPatient(o2.ID, "Rex")

			_, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				Owner:   workflow.OwnerLookup{OwnerID: o1.ID},
				Patient: workflow.PatientLookup{PatientID: other.ID},
				Draft:   draft(),
			})
			st, _ := workflow.StateOf(err)
			Expect(st).To(Equal(workflow.StateNeedsNewPatient))
			noWrites()
		})
	})

	Describe("walk-in", func() {
		It("dates the consultation with the injected clock", func() {
			o := newOwner("12.345.678-5", "Ana")
			p := newPatient(o.ID, "Firulais")

			res, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				Owner:   workflow.OwnerLookup{OwnerID: o.ID},
				Patient: workflow.PatientLookup{PatientID: p.ID},
				Draft:   draft(),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Consultation.Fecha.Equal(clock)).To(BeTrue())
			Expect(res.Appointment).To(BeNil())
		})
	})

	Describe("aborts before any write", func() {
		It("when the role cannot create consultations", func() {
			o := newOwner("12.345.678-5", "Ana")
			p := newPatient(o.ID, "Firulais")

			_, err := engine.CreateConsultation(ctx, recp, workflow.Request{
				Owner:   workflow.OwnerLookup{OwnerID: o.ID},
				Patient: workflow.PatientLookup{PatientID: p.ID},
				Draft:   draft(),
			})
			Expect(errors.Is(err, apperr.ErrForbidden)).To(BeTrue())
			noWrites()
		})

		It("when the draft is invalid", func() {
			o := newOwner("12.345.678-5", "Ana")
			p := newPatient(o.ID, "Firulais")
			d := draft()
			d.Motivo = "  "

			_, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				Owner:   workflow.OwnerLookup{OwnerID: o.ID},
				Patient: workflow.PatientLookup{PatientID: p.ID},
				Draft:   d,
			})
			Expect(errors.Is(err, apperr.ErrValidation)).To(BeTrue())
			noWrites()
		})
	})

	Describe("MarkConsultationRealizada", func() {
		var created consultations.Consultation

		BeforeEach(func() {
			o := newOwner("12.345.678-5", "Ana")
			p := newPatient(o.ID, "Firulais")
			res, err := engine.CreateConsultation(ctx, vet, workflow.Request{
				Owner:   workflow.OwnerLookup{OwnerID: o.ID},
				Patient: workflow.PatientLookup{PatientID: p.ID},
				Draft:   draft(),
			})
			Expect(err).NotTo(HaveOccurred())
			created = res.Consultation
		})

		It("is idempotent", func() {
			out, changed, err := engine.MarkConsultationRealizada(ctx, vet, created)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(out.Estado).To(Equal(consultations.EstadoRealizada))

			_, changed, err = engine.MarkConsultationRealizada(ctx, vet, created)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeFalse())
		})

		It("fails with IdentityUnresolved when the mascota has no owner", func() {
			orphan := created
			orphan.Mascota.DuenoID = ""
			orphan.Mascota.Dueno = nil

			_, _, err := engine.MarkConsultationRealizada(ctx, vet, orphan)
			Expect(errors.Is(err, apperr.ErrIdentityUnresolved)).To(BeTrue())

			stored, err := coSvc.Get(ctx, created.OwnerID, created.PatientID, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Estado).To(Equal(consultations.EstadoPendiente))
		})

		It("never moves Realizada back to Pendiente", func() {
			_, _, err := engine.MarkConsultationRealizada(ctx, vet, created)
			Expect(err).NotTo(HaveOccurred())

			_, _, err = coSvc.SetEstado(ctx, created.OwnerID, created.PatientID, created.ID, consultations.EstadoPendiente)
			Expect(errors.Is(err, consultations.ErrInvalidTransition)).To(BeTrue())
		})
	})

	Describe("cascading deletes", func() {
		var (
			owner   owners.Owner
			patient owners.Patient
		)

		BeforeEach(func() {
			owner = newOwner("12.345.678-5", "Ana")
			patient = newPatient(owner.ID, "Firulais")

			appt, err := apSvc.Schedule(ctx, appointments.ScheduleInput{
				Date: "2024-05-01", Time: "09:00", Type: "Control",
				OwnerID: owner.ID, PatientID: patient.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.CreateConsultation(ctx, vet, workflow.Request{AppointmentID: appt.ID, Draft: draft()})
			Expect(err).NotTo(HaveOccurred())
			_, err = apSvc.Schedule(ctx, appointments.ScheduleInput{
				Date: "2024-05-08", Time: "09:00", Type: "Control",
				OwnerID: owner.ID, PatientID: patient.ID,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("removes consultations, appointments and the patient", func() {
			Expect(engine.DeletePatient(ctx, adm, owner.ID, patient.ID)).To(Succeed())

			cs, err := coSvc.ListByPatient(ctx, owner.ID, patient.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cs).To(BeEmpty())
			as, err := apSvc.ListByPatient(ctx, patient.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(as).To(BeEmpty())
			_, err = ownSvc.GetPatient(ctx, owner.ID, patient.ID)
			Expect(errors.Is(err, apperr.ErrNotFound)).To(BeTrue())
		})

		It("keeps the patient when a child delete fails", func() {
			cons.failDelete = true

			err := engine.DeletePatient(ctx, adm, owner.ID, patient.ID)
			Expect(errors.Is(err, apperr.ErrUnavailable)).To(BeTrue())

			_, err = ownSvc.GetPatient(ctx, owner.ID, patient.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes the owner after every patient", func() {
			Expect(engine.DeleteOwner(ctx, adm, owner.ID)).To(Succeed())
			_, err := ownSvc.GetOwner(ctx, owner.ID)
			Expect(errors.Is(err, apperr.ErrNotFound)).To(BeTrue())
		})

		It("requires the delete permission", func() {
			err := engine.DeletePatient(ctx, vet, owner.ID, patient.ID)
			Expect(errors.Is(err, apperr.ErrForbidden)).To(BeTrue())
		})
	})
})
