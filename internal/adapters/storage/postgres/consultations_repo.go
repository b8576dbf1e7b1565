package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"vet-clinic/internal/domain/consultations"
	"vet-clinic/internal/platform/apperr"
)

type ConsultationsRepo struct {
	db *DB
}

func NewConsultationsRepo(db *DB) *ConsultationsRepo {
	return &ConsultationsRepo{db: db}
}

// forma JSONB de los campos denormalizados
type articuloDoc struct {
	ItemID           string  `json:"itemId"`
	Nombre           string  `json:"nombre"`
	Quantity         int     `json:"quantity"`
	UnitPrice        float64 `json:"unitPrice"`
	StockAtTimeOfUse int     `json:"stockAtTimeOfUse"`
}

type duenoDoc struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

type mascotaDoc struct {
	ID      string    `json:"id"`
	Nombre  string    `json:"nombre"`
	DuenoID string    `json:"duenoId,omitempty"`
	Dueno   *duenoDoc `json:"dueno,omitempty"`
}

const consultationColumns = `id, owner_id, patient_id, veterinarian_id, appointment_id, fecha,
	motivo, sintomas, diagnostico, tratamiento, estado, proxima_cita, costo_consulta,
	articulos, mascota, created_at, updated_at`

func encodeDocs(c consultations.Consultation) ([]byte, []byte, error) {
	arts := make([]articuloDoc, 0, len(c.ArticulosUsados))
	for _, a := range c.ArticulosUsados {
		arts = append(arts, articuloDoc(a))
	}
	m := mascotaDoc{ID: c.Mascota.ID, Nombre: c.Mascota.Nombre, DuenoID: c.Mascota.DuenoID}
	if c.Mascota.Dueno != nil {
		m.Dueno = &duenoDoc{ID: c.Mascota.Dueno.ID, Nombre: c.Mascota.Dueno.Nombre}
	}

	artsRaw, err := json.Marshal(arts)
	if err != nil {
		return nil, nil, err
	}
	mRaw, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return artsRaw, mRaw, nil
}

func scanConsultation(s interface{ Scan(...any) error }, c *consultations.Consultation) error {
	var (
		estado        string
		artsRaw, mRaw []byte
		arts          []articuloDoc
		m             mascotaDoc
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.PatientID, &c.VeterinarianID, &c.AppointmentID, &c.Fecha,
		&c.Motivo, &c.Sintomas, &c.Diagnostico, &c.Tratamiento, &estado, &c.ProximaCita, &c.CostoConsulta,
		&artsRaw, &mRaw, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	if err := json.Unmarshal(artsRaw, &arts); err != nil {
		return err
	}
	if err := json.Unmarshal(mRaw, &m); err != nil {
		return err
	}

	c.Estado = consultations.Estado(estado)
	c.ArticulosUsados = make([]consultations.Articulo, 0, len(arts))
	for _, a := range arts {
		c.ArticulosUsados = append(c.ArticulosUsados, consultations.Articulo(a))
	}
	c.Mascota = consultations.Mascota{ID: m.ID, Nombre: m.Nombre, DuenoID: m.DuenoID}
	if m.Dueno != nil {
		c.Mascota.Dueno = &consultations.Dueno{ID: m.Dueno.ID, Nombre: m.Dueno.Nombre}
	}
	return nil
}

func (r *ConsultationsRepo) Create(ctx context.Context, c consultations.Consultation) error {
	artsRaw, mRaw, err := encodeDocs(c)
	if err != nil {
		return err
	}
	return r.db.write(ctx, "consultations.create", func(ctx context.Context) error {
		_, err := r.db.sql.ExecContext(ctx, `
			INSERT INTO consultations (`+consultationColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		`, c.ID, c.OwnerID, c.PatientID, c.VeterinarianID, c.AppointmentID, c.Fecha,
			c.Motivo, c.Sintomas, c.Diagnostico, c.Tratamiento, string(c.Estado), c.ProximaCita, c.CostoConsulta,
			artsRaw, mRaw, c.CreatedAt, c.UpdatedAt)
		return err
	})
}

func (r *ConsultationsRepo) Get(ctx context.Context, ownerID, patientID, id string) (consultations.Consultation, error) {
	var c consultations.Consultation
	err := r.db.read(ctx, "consultations.get", func(ctx context.Context) error {
		row := r.db.sql.QueryRowContext(ctx, `
			SELECT `+consultationColumns+` FROM consultations
			WHERE owner_id = $1 AND patient_id = $2 AND id = $3
		`, ownerID, patientID, id)
		if err := scanConsultation(row, &c); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("consultations.get", id)
			}
			return err
		}
		return nil
	})
	return c, err
}

func (r *ConsultationsRepo) Update(ctx context.Context, c consultations.Consultation) error {
	artsRaw, mRaw, err := encodeDocs(c)
	if err != nil {
		return err
	}
	return r.db.write(ctx, "consultations.update", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `
			UPDATE consultations
			SET motivo = $4, sintomas = $5, diagnostico = $6, tratamiento = $7, estado = $8,
			    proxima_cita = $9, costo_consulta = $10, articulos = $11, mascota = $12, updated_at = $13
			WHERE owner_id = $1 AND patient_id = $2 AND id = $3
		`, c.OwnerID, c.PatientID, c.ID, c.Motivo, c.Sintomas, c.Diagnostico, c.Tratamiento, string(c.Estado),
			c.ProximaCita, c.CostoConsulta, artsRaw, mRaw, c.UpdatedAt)
		if err != nil {
			return err
		}
		return rowsAffected(res, "consultations.update", c.ID)
	})
}

func (r *ConsultationsRepo) Delete(ctx context.Context, ownerID, patientID, id string) error {
	return r.db.write(ctx, "consultations.delete", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `
			DELETE FROM consultations WHERE owner_id = $1 AND patient_id = $2 AND id = $3
		`, ownerID, patientID, id)
		if err != nil {
			return err
		}
		return rowsAffected(res, "consultations.delete", id)
	})
}

func (r *ConsultationsRepo) ListByPatient(ctx context.Context, ownerID, patientID string) ([]consultations.Consultation, error) {
	return r.list(ctx, "consultations.list_by_patient", `
		SELECT `+consultationColumns+` FROM consultations
		WHERE owner_id = $1 AND patient_id = $2
		ORDER BY fecha DESC
	`, ownerID, patientID)
}

func (r *ConsultationsRepo) ListAll(ctx context.Context, limit int) ([]consultations.Consultation, error) {
	q := `SELECT ` + consultationColumns + ` FROM consultations ORDER BY fecha DESC`
	if limit > 0 {
		return r.list(ctx, "consultations.list_all", q+` LIMIT $1`, limit)
	}
	return r.list(ctx, "consultations.list_all", q)
}

func (r *ConsultationsRepo) list(ctx context.Context, op, q string, args ...any) ([]consultations.Consultation, error) {
	var out []consultations.Consultation
	err := r.db.read(ctx, op, func(ctx context.Context) error {
		rows, err := r.db.sql.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]consultations.Consultation, 0)
		for rows.Next() {
			var c consultations.Consultation
			if err := scanConsultation(rows, &c); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}
