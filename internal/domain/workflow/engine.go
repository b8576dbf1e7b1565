// Package workflow orquesta los pasos que cruzan módulos: crear una consulta
// desde una cita o walk-in, cerrarla, y los borrados en cascada.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vet-clinic/internal/domain/activity"
	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/domain/consultations"
	"vet-clinic/internal/domain/inventory"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/clinicaltime"
	"vet-clinic/internal/platform/logger"
)

// Authorizer re-evalúa el permiso dentro del workflow (el rol se relee por request).
type Authorizer interface {
	Authorize(ctx context.Context, p permissions.Principal, resource permissions.Resource, action permissions.Action) error
}

type Deps struct {
	Authz         Authorizer
	Owners        *owners.Service
	Appointments  *appointments.Service
	Consultations *consultations.Service
	Inventory     *inventory.Service
	Activity      *activity.Service
	Location      *time.Location
	Log           logger.Logger
	// Clock fecha las consultas walk-in. nil => time.Now.
	Clock func() time.Time
}

type Engine struct {
	authz         Authorizer
	owners        *owners.Service
	appointments  *appointments.Service
	consultations *consultations.Service
	inventory     *inventory.Service
	activity      *activity.Service
	loc           *time.Location
	log           logger.Logger
	now           func() time.Time
}

func NewEngine(d Deps) *Engine {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	now := d.Clock
	if now == nil {
		now = time.Now
	}
	return &Engine{
		authz:         d.Authz,
		owners:        d.Owners,
		appointments:  d.Appointments,
		consultations: d.Consultations,
		inventory:     d.Inventory,
		activity:      d.Activity,
		loc:           loc,
		log:           log,
		now:           now,
	}
}

// Request de creación. AppointmentID vacío => walk-in.
type Request struct {
	AppointmentID string
	Owner         OwnerLookup
	Patient       PatientLookup
	Draft         consultations.Draft
}

// usage es un insumo ya recortado contra el stock leído.
type usage struct {
	articulo  consultations.Articulo
	decrement bool
}

// CreateConsultation ejecuta el flujo completo, estrictamente secuencial:
// permiso, validación, identidades, fecha, recorte de stock, escritura de la
// consulta, decrementos, cierre de la cita. Todo error devuelto antes de la
// escritura de la consulta garantiza cero escrituras clínicas.
func (e *Engine) CreateConsultation(ctx context.Context, p permissions.Principal, req Request) (Result, error) {
	if err := e.authz.Authorize(ctx, p, permissions.ResourceConsultations, permissions.ActionCreate); err != nil {
		return Result{}, err
	}
	if err := consultations.ValidateDraft(req.Draft); err != nil {
		return Result{}, err
	}

	var appt *appointments.Appointment
	if id := strings.TrimSpace(req.AppointmentID); id != "" {
		a, err := e.appointments.Get(ctx, id)
		if err != nil {
			return Result{}, err
		}
		if a.Status == appointments.StatusCompleted {
			return Result{}, apperr.E(apperr.ErrConflict, "workflow.create", a.ID, appointments.ErrAlreadyCompleted)
		}
		appt = &a
	}

	fecha := e.now()
	if appt != nil {
		t, err := clinicaltime.Compose(appt.Date, appt.Time, e.loc)
		if err != nil {
			return Result{}, apperr.E(apperr.ErrValidation, "workflow.create", appt.ID, err)
		}
		fecha = t
	}

	owner, patient, err := e.resolveIdentities(ctx, appt, req.Owner, req.Patient)
	if err != nil {
		return Result{}, err
	}

	var res Result
	usages := e.clampArticles(ctx, req.Draft.ArticulosUsados, &res)
	articulos := make([]consultations.Articulo, 0, len(usages))
	for _, u := range usages {
		articulos = append(articulos, u.articulo)
	}

	mascota := consultations.Mascota{
		ID:      patient.ID,
		Nombre:  patient.Nombre,
		DuenoID: owner.ID,
		Dueno:   &consultations.Dueno{ID: owner.ID, Nombre: owner.Nombre},
	}
	apptID := ""
	if appt != nil {
		apptID = appt.ID
	}

	c, err := e.consultations.Record(ctx, owner.ID, patient.ID, fecha, req.Draft, articulos, mascota, apptID)
	if err != nil {
		return Result{}, err
	}
	res.Consultation = c

	log := logger.FromContext(ctx, e.log).With(logger.Fields{
		"consultation_id": c.ID,
		"owner_id":        owner.ID,
		"patient_id":      patient.ID,
	})
	actor := activity.Actor{UID: p.UID, Role: string(p.Role)}

	// Desde aquí la consulta es durable: nada de lo que sigue la revierte.
	for _, u := range usages {
		if !u.decrement {
			continue
		}
		if _, err := e.inventory.Decrement(ctx, u.articulo.ItemID, u.articulo.Quantity); err != nil {
			res.Failures = append(res.Failures, ItemFailure{ItemID: u.articulo.ItemID, Err: err})
			log.Warn("stock decrement failed", logger.Fields{"item_id": u.articulo.ItemID, "err": err})
			continue
		}
		e.record(ctx, log, owner.ID, patient.ID, actor, activity.RecordInput{
			Type:       activity.TypeStockConsumed,
			OccurredAt: fecha,
			Title:      fmt.Sprintf("%s x%d", u.articulo.Nombre, u.articulo.Quantity),
			Ref:        u.articulo.ItemID,
		})
	}

	if appt != nil {
		done, err := e.appointments.Complete(ctx, appt.ID, appointments.Binding{
			OwnerID:      owner.ID,
			OwnerName:    owner.Nombre,
			PatientID:    patient.ID,
			PatientName:  patient.Nombre,
			Veterinarian: req.Draft.VeterinarianID,
		})
		if err != nil {
			res.AppointmentErr = err
			log.Warn("appointment sync failed", logger.Fields{"appointment_id": appt.ID, "err": err})
		} else {
			res.Appointment = &done
			e.record(ctx, log, owner.ID, patient.ID, actor, activity.RecordInput{
				Type:       activity.TypeAppointmentCompleted,
				OccurredAt: fecha,
				Title:      done.Type,
				Ref:        done.ID,
			})
		}
	}

	e.record(ctx, log, owner.ID, patient.ID, actor, activity.RecordInput{
		Type:       activity.TypeConsultationCreated,
		OccurredAt: fecha,
		Title:      c.Motivo,
		Notes:      c.Diagnostico,
		Ref:        c.ID,
	})

	if res.Partial() {
		log.Warn("consultation created with partial failures", logger.Fields{"err": res.Err()})
	} else {
		log.Info("consultation created", logger.Fields{"articles": len(articulos)})
	}
	return res, nil
}

// clampArticles lee el stock de cada ítem justo antes de escribir. Líneas
// repetidas del mismo ítem se suman para no recortar dos veces contra la misma lectura.
func (e *Engine) clampArticles(ctx context.Context, in []consultations.ArticuloInput, res *Result) []usage {
	order := make([]string, 0, len(in))
	requested := make(map[string]int, len(in))
	for _, a := range in {
		id := strings.TrimSpace(a.ItemID)
		if _, seen := requested[id]; !seen {
			order = append(order, id)
		}
		requested[id] += a.Quantity
	}

	out := make([]usage, 0, len(order))
	for _, id := range order {
		qty := requested[id]

		it, err := e.inventory.Get(ctx, id)
		if err != nil {
			// sin lectura no hay recorte ni decremento: la línea queda en 0 y la falla nombrada
			res.Failures = append(res.Failures, ItemFailure{ItemID: id, Err: err})
			out = append(out, usage{articulo: consultations.Articulo{ItemID: id, Quantity: 0}})
			continue
		}

		consumed, clamped := inventory.Clamp(qty, it.Quantity)
		if clamped {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: requested %d, only %d available", it.Name, qty, consumed))
		}
		out = append(out, usage{
			articulo: consultations.Articulo{
				ItemID:           it.ID,
				Nombre:           it.Name,
				Quantity:         consumed,
				UnitPrice:        it.Price,
				StockAtTimeOfUse: it.Quantity,
			},
			decrement: consumed > 0,
		})
	}
	return out
}

// MarkConsultationRealizada cierra una consulta tal como la tiene el cliente.
// La ruta se deriva de la mascota antes de cualquier lectura; ya Realizada => changed=false.
func (e *Engine) MarkConsultationRealizada(ctx context.Context, p permissions.Principal, c consultations.Consultation) (consultations.Consultation, bool, error) {
	if err := e.authz.Authorize(ctx, p, permissions.ResourceConsultations, permissions.ActionUpdate); err != nil {
		return consultations.Consultation{}, false, err
	}
	ownerID, patientID, err := c.ResolvePath()
	if err != nil {
		return consultations.Consultation{}, false, err
	}

	out, changed, err := e.consultations.SetEstado(ctx, ownerID, patientID, c.ID, consultations.EstadoRealizada)
	if err != nil {
		return consultations.Consultation{}, false, err
	}
	if changed {
		log := logger.FromContext(ctx, e.log)
		e.record(ctx, log, ownerID, patientID, activity.Actor{UID: p.UID, Role: string(p.Role)}, activity.RecordInput{
			Type:  activity.TypeConsultationRealized,
			Title: out.Motivo,
			Ref:   out.ID,
		})
	}
	return out, changed, nil
}

// record escribe en la línea de tiempo sin afectar el resultado del workflow.
func (e *Engine) record(ctx context.Context, log logger.Logger, ownerID, patientID string, actor activity.Actor, in activity.RecordInput) {
	if e.activity == nil {
		return
	}
	if _, err := e.activity.Record(ctx, ownerID, patientID, actor, in); err != nil {
		log.Warn("activity entry dropped", logger.Fields{"type": string(in.Type), "err": err})
	}
}
