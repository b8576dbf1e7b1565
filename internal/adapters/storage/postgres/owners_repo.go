package postgres

import (
	"context"
	"database/sql"
	"errors"

	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/platform/apperr"
)

type OwnersRepo struct {
	db *DB
}

func NewOwnersRepo(db *DB) *OwnersRepo {
	return &OwnersRepo{db: db}
}

const ownerColumns = `id, rut, nombre, email, telefono, direccion, created_at, updated_at`

func scanOwner(s interface{ Scan(...any) error }, o *owners.Owner) error {
	return s.Scan(&o.ID, &o.RUT, &o.Nombre, &o.Email, &o.Telefono, &o.Direccion, &o.CreatedAt, &o.UpdatedAt)
}

func (r *OwnersRepo) CreateOwner(ctx context.Context, o owners.Owner) error {
	return r.db.write(ctx, "owners.create", func(ctx context.Context) error {
		_, err := r.db.sql.ExecContext(ctx, `
			INSERT INTO owners (`+ownerColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, o.ID, o.RUT, o.Nombre, o.Email, o.Telefono, o.Direccion, o.CreatedAt, o.UpdatedAt)
		return err
	})
}

func (r *OwnersRepo) GetOwner(ctx context.Context, ownerID string) (owners.Owner, error) {
	var o owners.Owner
	err := r.db.read(ctx, "owners.get", func(ctx context.Context) error {
		row := r.db.sql.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = $1`, ownerID)
		if err := scanOwner(row, &o); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("owners.get", ownerID)
			}
			return err
		}
		return nil
	})
	return o, err
}

func (r *OwnersRepo) FindOwnerByRUT(ctx context.Context, rut string) (owners.Owner, error) {
	var o owners.Owner
	err := r.db.read(ctx, "owners.find_by_rut", func(ctx context.Context) error {
		row := r.db.sql.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE rut = $1`, rut)
		if err := scanOwner(row, &o); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("owners.find_by_rut", rut)
			}
			return err
		}
		return nil
	})
	return o, err
}

func (r *OwnersRepo) ListOwners(ctx context.Context) ([]owners.Owner, error) {
	var out []owners.Owner
	err := r.db.read(ctx, "owners.list", func(ctx context.Context) error {
		rows, err := r.db.sql.QueryContext(ctx, `SELECT `+ownerColumns+` FROM owners ORDER BY nombre ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]owners.Owner, 0)
		for rows.Next() {
			var o owners.Owner
			if err := scanOwner(rows, &o); err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	return out, err
}

func (r *OwnersRepo) UpdateOwner(ctx context.Context, o owners.Owner) error {
	return r.db.write(ctx, "owners.update", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `
			UPDATE owners
			SET nombre = $2, email = $3, telefono = $4, direccion = $5, updated_at = $6
			WHERE id = $1
		`, o.ID, o.Nombre, o.Email, o.Telefono, o.Direccion, o.UpdatedAt)
		if err != nil {
			return err
		}
		return rowsAffected(res, "owners.update", o.ID)
	})
}

// DeleteOwner con pacientes vivos falla por FK (RESTRICT) => Conflict.
func (r *OwnersRepo) DeleteOwner(ctx context.Context, ownerID string) error {
	return r.db.write(ctx, "owners.delete", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, ownerID)
		if err != nil {
			return err
		}
		return rowsAffected(res, "owners.delete", ownerID)
	})
}

const patientColumns = `id, owner_id, nombre, especie, raza, sexo, fecha_nacimiento, microchip, notas, created_at, updated_at`

func scanPatient(s interface{ Scan(...any) error }, p *owners.Patient) error {
	var birth sql.NullTime
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Nombre, &p.Especie, &p.Raza, &p.Sexo, &birth, &p.Microchip, &p.Notas, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	if birth.Valid {
		t := birth.Time
		p.FechaNacimiento = &t
	}
	return nil
}

func (r *OwnersRepo) CreatePatient(ctx context.Context, p owners.Patient) error {
	return r.db.write(ctx, "owners.create_patient", func(ctx context.Context) error {
		_, err := r.db.sql.ExecContext(ctx, `
			INSERT INTO patients (`+patientColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, p.ID, p.OwnerID, p.Nombre, p.Especie, p.Raza, p.Sexo, nullTime(p.FechaNacimiento), p.Microchip, p.Notas, p.CreatedAt, p.UpdatedAt)
		return err
	})
}

func (r *OwnersRepo) GetPatient(ctx context.Context, ownerID, patientID string) (owners.Patient, error) {
	var p owners.Patient
	err := r.db.read(ctx, "owners.get_patient", func(ctx context.Context) error {
		row := r.db.sql.QueryRowContext(ctx, `
			SELECT `+patientColumns+` FROM patients WHERE owner_id = $1 AND id = $2
		`, ownerID, patientID)
		if err := scanPatient(row, &p); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("owners.get_patient", ownerID+"/"+patientID)
			}
			return err
		}
		return nil
	})
	return p, err
}

func (r *OwnersRepo) ListPatients(ctx context.Context, ownerID string) ([]owners.Patient, error) {
	if _, err := r.GetOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	var out []owners.Patient
	err := r.db.read(ctx, "owners.list_patients", func(ctx context.Context) error {
		rows, err := r.db.sql.QueryContext(ctx, `
			SELECT `+patientColumns+` FROM patients WHERE owner_id = $1 ORDER BY nombre ASC
		`, ownerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]owners.Patient, 0)
		for rows.Next() {
			var p owners.Patient
			if err := scanPatient(rows, &p); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

func (r *OwnersRepo) UpdatePatient(ctx context.Context, p owners.Patient) error {
	return r.db.write(ctx, "owners.update_patient", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `
			UPDATE patients
			SET nombre = $3, especie = $4, raza = $5, sexo = $6,
			    fecha_nacimiento = $7, microchip = $8, notas = $9, updated_at = $10
			WHERE owner_id = $1 AND id = $2
		`, p.OwnerID, p.ID, p.Nombre, p.Especie, p.Raza, p.Sexo, nullTime(p.FechaNacimiento), p.Microchip, p.Notas, p.UpdatedAt)
		if err != nil {
			return err
		}
		return rowsAffected(res, "owners.update_patient", p.OwnerID+"/"+p.ID)
	})
}

func (r *OwnersRepo) DeletePatient(ctx context.Context, ownerID, patientID string) error {
	return r.db.write(ctx, "owners.delete_patient", func(ctx context.Context) error {
		res, err := r.db.sql.ExecContext(ctx, `DELETE FROM patients WHERE owner_id = $1 AND id = $2`, ownerID, patientID)
		if err != nil {
			return err
		}
		return rowsAffected(res, "owners.delete_patient", ownerID+"/"+patientID)
	})
}
