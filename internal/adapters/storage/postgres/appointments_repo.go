package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/platform/apperr"
)

type AppointmentsRepo struct {
	db *DB
}

func NewAppointmentsRepo(db *DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

const appointmentColumns = `id, date, time, patient_id, patient_name, owner_id, owner_name,
	type, veterinarian, duration, notes, status, created_at, updated_at`

func scanAppointment(s interface{ Scan(...any) error }, a *appointments.Appointment) error {
	var status string
	if err := s.Scan(&a.ID, &a.Date, &a.Time, &a.PatientID, &a.PatientName, &a.OwnerID, &a.OwnerName,
		&a.Type, &a.Veterinarian, &a.Duration, &a.Notes, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return err
	}
	a.Status = appointments.Status(status)
	return nil
}

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	return r.db.write(ctx, "appointments.create", func(ctx context.Context) error {
		_, err := r.db.sql.ExecContext(ctx, `
			INSERT INTO appointments (`+appointmentColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, a.ID, a.Date, a.Time, a.PatientID, a.PatientName, a.OwnerID, a.OwnerName,
			a.Type, a.Veterinarian, a.Duration, a.Notes, string(a.Status), a.CreatedAt, a.UpdatedAt)
		return err
	})
}

func (r *AppointmentsRepo) Get(ctx context.Context, id string) (appointments.Appointment, error) {
	var a appointments.Appointment
	err := r.db.read(ctx, "appointments.get", func(ctx context.Context) error {
		row := r.db.sql.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
		if err := scanAppointment(row, &a); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("appointments.get", id)
			}
			return err
		}
		return nil
	})
	return a, err
}

// Update es last-write-wins: reemplaza todas las columnas sin chequeo de versión.
func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	return r.db.write(ctx, "appointments.update", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `
			UPDATE appointments
			SET date = $2, time = $3, patient_id = $4, patient_name = $5, owner_id = $6, owner_name = $7,
			    type = $8, veterinarian = $9, duration = $10, notes = $11, status = $12, updated_at = $13
			WHERE id = $1
		`, a.ID, a.Date, a.Time, a.PatientID, a.PatientName, a.OwnerID, a.OwnerName,
			a.Type, a.Veterinarian, a.Duration, a.Notes, string(a.Status), a.UpdatedAt)
		if err != nil {
			return err
		}
		return rowsAffected(res, "appointments.update", a.ID)
	})
}

func (r *AppointmentsRepo) Delete(ctx context.Context, id string) error {
	return r.db.write(ctx, "appointments.delete", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return rowsAffected(res, "appointments.delete", id)
	})
}

func (r *AppointmentsRepo) List(ctx context.Context, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.Date != "" {
		args = append(args, filter.Date)
		where = append(where, "date = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY date ASC, time ASC`
	return r.list(ctx, "appointments.list", q, args...)
}

func (r *AppointmentsRepo) ListByPatient(ctx context.Context, patientID string) ([]appointments.Appointment, error) {
	if patientID == "" {
		return []appointments.Appointment{}, nil
	}
	return r.list(ctx, "appointments.list_by_patient",
		`SELECT `+appointmentColumns+` FROM appointments WHERE patient_id = $1 ORDER BY date ASC, time ASC`, patientID)
}

func (r *AppointmentsRepo) list(ctx context.Context, op, q string, args ...any) ([]appointments.Appointment, error) {
	var out []appointments.Appointment
	err := r.db.read(ctx, op, func(ctx context.Context) error {
		rows, err := r.db.sql.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]appointments.Appointment, 0)
		for rows.Next() {
			var a appointments.Appointment
			if err := scanAppointment(rows, &a); err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	return out, err
}
